package repository

import (
	"context"

	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// Record appends a measurement and moves the sensor's current_state in
// one transaction. Returns the enriched event for live delivery; the
// database trigger performs the actual NOTIFY so direct SQL writes are
// broadcast too.
func (r *StatusRepository) Record(ctx context.Context, report model.StatusReport) (*model.StatusEvent, error) {
	var sensor model.Sensor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sensor_id = ?", report.SensorID).First(&sensor).Error; err != nil {
			return err
		}

		measurement := model.Measurement{
			SensorID:          report.SensorID,
			Timestamp:         report.Timestamp,
			State:             *report.State,
			PreviousStateTime: report.PreviousStateTime,
		}
		if err := tx.Create(&measurement).Error; err != nil {
			return err
		}

		return tx.Model(&model.Sensor{}).
			Where("sensor_id = ?", report.SensorID).
			Update("current_state", *report.State).Error
	})
	if err != nil {
		return nil, err
	}

	return &model.StatusEvent{
		SensorID:  report.SensorID,
		ParkingID: sensor.ParkingID,
		Floor:     sensor.Floor,
		State:     *report.State,
		Timestamp: report.Timestamp,
	}, nil
}
