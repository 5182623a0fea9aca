package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) CreateClient(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

// CreateParking inserts the parking and bumps the client's parking
// counter, plus the complex counter when the complex label is new for
// that client.
func (r *AdminRepository) CreateParking(ctx context.Context, parking *model.Parking) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client model.Client
		if err := tx.Where("client_id = ?", parking.ClientID).First(&client).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&model.Parking{}).
			Where("client_id = ? AND complex = ?", parking.ClientID, parking.Complex).
			Count(&existing).Error; err != nil {
			return err
		}

		if err := tx.Create(parking).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"no_parkings": gorm.Expr("no_parkings + 1")}
		if existing == 0 {
			updates["no_complexes"] = gorm.Expr("no_complexes + 1")
		}
		return tx.Model(&model.Client{}).
			Where("client_id = ?", parking.ClientID).
			Updates(updates).Error
	})
}

func (r *AdminRepository) CreateLevel(ctx context.Context, level *model.Level) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parking model.Parking
		if err := tx.Where("parking_id = ?", level.ParkingID).First(&parking).Error; err != nil {
			return err
		}
		if err := tx.Create(level).Error; err != nil {
			return err
		}
		return tx.Model(&model.Client{}).
			Where("client_id = ?", parking.ClientID).
			Update("no_floors", gorm.Expr("no_floors + 1")).Error
	})
}

// CreateSensor requires the target level to exist already; sensors are
// never placed on undeclared floors.
func (r *AdminRepository) CreateSensor(ctx context.Context, sensor *model.Sensor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var level model.Level
		if err := tx.Where("parking_id = ? AND floor = ?", sensor.ParkingID, sensor.Floor).
			First(&level).Error; err != nil {
			return err
		}
		var parking model.Parking
		if err := tx.Where("parking_id = ?", sensor.ParkingID).First(&parking).Error; err != nil {
			return err
		}
		if err := tx.Create(sensor).Error; err != nil {
			return err
		}
		return tx.Model(&model.Client{}).
			Where("client_id = ?", parking.ClientID).
			Update("no_sensors", gorm.Expr("no_sensors + 1")).Error
	})
}

func (r *AdminRepository) CreateUser(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client model.Client
		if err := tx.Where("client_id = ?", user.ClientID).First(&client).Error; err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Model(&model.Client{}).
			Where("client_id = ?", user.ClientID).
			Update("no_users", gorm.Expr("no_users + 1")).Error
	})
}

func (r *AdminRepository) CreatePermission(ctx context.Context, permission *model.Permission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.Where("user_id = ?", permission.UserID).First(&user).Error; err != nil {
			return err
		}
		var parking model.Parking
		if err := tx.Where("parking_id = ?", permission.ParkingID).First(&parking).Error; err != nil {
			return err
		}
		return tx.Create(permission).Error
	})
}

func (r *AdminRepository) IsAdministrator(ctx context.Context, userID string) (bool, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Select("administrator").
		Where("user_id = ?", userID).
		First(&user).Error
	if err != nil {
		return false, err
	}
	return user.Administrator, nil
}

func (r *AdminRepository) RenameSensor(ctx context.Context, sensorID, alias string) error {
	result := r.db.WithContext(ctx).Model(&model.Sensor{}).
		Where("sensor_id = ?", sensorID).
		Update("sensor_alias", alias)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateFlags overwrites all three health flags at once. Partial flag
// updates are not supported; reporters always know the full state.
func (r *AdminRepository) UpdateFlags(ctx context.Context, sensorID string, lowBattery, connectionError, errorFlag bool) error {
	result := r.db.WithContext(ctx).Model(&model.Sensor{}).
		Where("sensor_id = ?", sensorID).
		Updates(map[string]interface{}{
			"low_battery":      lowBattery,
			"connection_error": connectionError,
			"error":            errorFlag,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *AdminRepository) UpdateMaintenanceDate(ctx context.Context, parkingID string, date time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Parking{}).
		Where("parking_id = ?", parkingID).
		Update("maintenance_date", date)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
