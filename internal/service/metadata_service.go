package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
	"parking-analytics-service/internal/repository"
)

// MetadataService serves the navigation and reporting endpoints around
// the core analysis: structure listings, date discovery, per-sensor
// statistics and the overnight report.
type MetadataService struct {
	repo *repository.MetadataRepository
	log  zerolog.Logger
}

func NewMetadataService(repo *repository.MetadataRepository, log zerolog.Logger) *MetadataService {
	return &MetadataService{repo: repo, log: log}
}

// Levels returns the user's parkings with their floors nested, ordered
// by complex and alias.
func (s *MetadataService) Levels(ctx context.Context, userID string) ([]model.ParkingLevels, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	rows, err := s.repo.LevelsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}

	result := make([]model.ParkingLevels, 0)
	index := make(map[uuid.UUID]int)
	for _, row := range rows {
		i, ok := index[row.ParkingID]
		if !ok {
			result = append(result, model.ParkingLevels{
				ParkingID:    row.ParkingID,
				Complex:      row.Complex,
				ParkingAlias: row.ParkingAlias,
				Levels:       []model.LevelSummary{},
			})
			i = len(result) - 1
			index[row.ParkingID] = i
		}
		result[i].Levels = append(result[i].Levels, model.LevelSummary{
			Floor:      row.Floor,
			FloorAlias: row.FloorAlias,
		})
	}
	return result, nil
}

func (s *MetadataService) Sensors(ctx context.Context, userID string) ([]model.SensorSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	rows, err := s.repo.SensorsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	return rows, nil
}

// SensorsByLevel lists one floor's sensors, gated by the caller's grant
// on the parking.
func (s *MetadataService) SensorsByLevel(ctx context.Context, userID, parkingID, floor string) ([]model.MapSensor, error) {
	floorNum, err := s.checkLevelParams(ctx, userID, parkingID, floor)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.SensorsByLevel(ctx, parkingID, floorNum)
	if err != nil {
		return nil, fmt.Errorf("list level sensors: %w", err)
	}
	return rows, nil
}

// Layout returns one floor's rendering blobs.
func (s *MetadataService) Layout(ctx context.Context, userID, parkingID, floor string) (*model.LevelLayout, error) {
	floorNum, err := s.checkLevelParams(ctx, userID, parkingID, floor)
	if err != nil {
		return nil, err
	}
	layout, err := s.repo.LevelLayout(ctx, parkingID, floorNum)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: level", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	return layout, nil
}

func (s *MetadataService) checkLevelParams(ctx context.Context, userID, parkingID, floor string) (int, error) {
	if userID == "" || parkingID == "" || floor == "" {
		return 0, fmt.Errorf("%w: user_id, parking_id and floor are required", ErrValidation)
	}
	floorNum, err := strconv.Atoi(floor)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid floor %q", ErrValidation, floor)
	}
	ok, err := s.repo.HasAccess(ctx, userID, parkingID)
	if err != nil {
		return 0, fmt.Errorf("check access: %w", err)
	}
	if !ok {
		return 0, ErrPermissionDenied
	}
	return floorNum, nil
}

func (s *MetadataService) Info(ctx context.Context, userID string) ([]model.ParkingInfo, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	info, err := s.repo.ParkingInfo(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load parking info: %w", err)
	}
	return info, nil
}

// AvailableDates lists the dates with data inside the user's grants,
// both flat (newest first) and grouped year -> month for pickers.
func (s *MetadataService) AvailableDates(ctx context.Context, userID, parkingIDs, floors, sensorIDs string) (*model.AvailableDates, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	parsedFloors, err := parseFloors(floors)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.AvailableDates(ctx, model.DateQuery{
		UserID:     userID,
		ParkingIDs: splitCSV(parkingIDs),
		Floors:     parsedFloors,
		SensorIDs:  splitCSV(sensorIDs),
	})
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}

	result := model.AvailableDates{
		AvailableDates: make([]string, 0, len(rows)),
		GroupedByYear:  make(map[int]map[int][]model.DateRef),
		TotalDates:     len(rows),
	}
	for _, row := range rows {
		date := row.AvailableDate.Format("2006-01-02")
		result.AvailableDates = append(result.AvailableDates, date)
		if result.GroupedByYear[row.Year] == nil {
			result.GroupedByYear[row.Year] = make(map[int][]model.DateRef)
		}
		result.GroupedByYear[row.Year][row.Month] = append(result.GroupedByYear[row.Year][row.Month], model.DateRef{
			Date: date,
			Day:  row.Day,
		})
	}
	return &result, nil
}

// SensorStats reconstructs per-sensor occupation over a date window.
// Either an exact date or a start/end pair must be supplied, not both
// halves of a range alone.
func (s *MetadataService) SensorStats(ctx context.Context, userID, parkingID, startDate, endDate, exactDate string) ([]model.SensorStats, error) {
	if userID == "" || parkingID == "" {
		return nil, fmt.Errorf("%w: user_id and parking_id are required", ErrValidation)
	}

	q := model.SensorStatsQuery{ParkingID: parkingID}
	switch {
	case startDate != "" && endDate != "":
		if err := checkDate(startDate); err != nil {
			return nil, err
		}
		if err := checkDate(endDate); err != nil {
			return nil, err
		}
		q.UseRange = true
		q.StartDate = startDate
		q.EndDate = endDate
	case exactDate != "":
		if err := checkDate(exactDate); err != nil {
			return nil, err
		}
		q.ExactDate = exactDate
	default:
		return nil, fmt.Errorf("%w: either date or start_date and end_date are required", ErrValidation)
	}

	ok, err := s.repo.HasAccess(ctx, userID, parkingID)
	if err != nil {
		return nil, fmt.Errorf("check access: %w", err)
	}
	if !ok {
		return nil, ErrPermissionDenied
	}

	stats, err := s.repo.SensorStats(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sensor stats: %w", err)
	}
	return stats, nil
}

func checkDate(raw string) error {
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, raw)
	}
	return nil
}

// Overnight reports vehicles still parked past their parking's closing
// time on the day of arrival.
func (s *MetadataService) Overnight(ctx context.Context, userID string) ([]model.OvernightVehicle, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	vehicles, err := s.repo.OvernightVehicles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("overnight report: %w", err)
	}
	return vehicles, nil
}
