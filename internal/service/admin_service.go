package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
	"parking-analytics-service/internal/repository"
)

// AdminService covers the provisioning and maintenance write paths.
type AdminService struct {
	repo *repository.AdminRepository
	log  zerolog.Logger
}

func NewAdminService(repo *repository.AdminRepository, log zerolog.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

func (s *AdminService) CreateClient(ctx context.Context, client *model.Client) error {
	if client.ClientAlias == "" {
		return fmt.Errorf("%w: client_alias is required", ErrValidation)
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	s.log.Info().Str("client_id", client.ClientID.String()).Msg("client created")
	return nil
}

func (s *AdminService) CreateParking(ctx context.Context, parking *model.Parking) error {
	if parking.ParkingAlias == "" || parking.Complex == "" {
		return fmt.Errorf("%w: parking_alias and complex are required", ErrValidation)
	}
	if parking.Timezone == "" {
		return fmt.Errorf("%w: timezone is required", ErrValidation)
	}
	if _, err := time.LoadLocation(parking.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrValidation, parking.Timezone)
	}
	err := s.repo.CreateParking(ctx, parking)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: client", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create parking: %w", err)
	}
	s.log.Info().Str("parking_id", parking.ParkingID.String()).Msg("parking created")
	return nil
}

func (s *AdminService) CreateLevel(ctx context.Context, level *model.Level) error {
	err := s.repo.CreateLevel(ctx, level)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: parking", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}

func (s *AdminService) CreateSensor(ctx context.Context, sensor *model.Sensor) error {
	if sensor.SensorAlias == "" {
		return fmt.Errorf("%w: sensor_alias is required", ErrValidation)
	}
	err := s.repo.CreateSensor(ctx, sensor)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: level", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create sensor: %w", err)
	}
	return nil
}

func (s *AdminService) CreateUser(ctx context.Context, user *model.User) error {
	if user.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	err := s.repo.CreateUser(ctx, user)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: client", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *AdminService) CreatePermission(ctx context.Context, permission *model.Permission) error {
	err := s.repo.CreatePermission(ctx, permission)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user or parking", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("create permission: %w", err)
	}
	return nil
}

// RenameSensor requires an administrator caller; structure names are
// tenant-visible and not self-service.
func (s *AdminService) RenameSensor(ctx context.Context, userID, sensorID, alias string) error {
	if userID == "" || sensorID == "" || alias == "" {
		return fmt.Errorf("%w: user_id, sensor_id and alias are required", ErrValidation)
	}
	admin, err := s.repo.IsAdministrator(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check administrator: %w", err)
	}
	if !admin {
		return ErrPermissionDenied
	}
	err = s.repo.RenameSensor(ctx, sensorID, alias)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: sensor", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("rename sensor: %w", err)
	}
	return nil
}

func (s *AdminService) UpdateFlags(ctx context.Context, sensorID string, lowBattery, connectionError, errorFlag bool) error {
	if sensorID == "" {
		return fmt.Errorf("%w: sensor_id is required", ErrValidation)
	}
	err := s.repo.UpdateFlags(ctx, sensorID, lowBattery, connectionError, errorFlag)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: sensor", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update flags: %w", err)
	}
	return nil
}

func (s *AdminService) UpdateMaintenanceDate(ctx context.Context, parkingID, date string) error {
	if parkingID == "" || date == "" {
		return fmt.Errorf("%w: parking_id and date are required", ErrValidation)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, date)
	}
	err = s.repo.UpdateMaintenanceDate(ctx, parkingID, parsed)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: parking", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update maintenance date: %w", err)
	}
	return nil
}
