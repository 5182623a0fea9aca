package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
)

func TestRecordPersistsAndEnrichesEvent(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewStatusRepository(gormDB)

	sensorID := uuid.New()
	parkingID := uuid.New()
	ts := time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC)
	state := true

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT \* FROM "sensor_info" WHERE sensor_id =`).
		WithArgs(sensorID.String(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"sensor_id", "parking_id", "floor", "sensor_alias", "type", "current_state"}).
			AddRow(sensorID, parkingID, 2, "P2-01", "surface", false))
	mock.ExpectQuery(`(?s)INSERT INTO "measurements"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectExec(`(?s)UPDATE "sensor_info" SET "current_state"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event, err := repo.Record(context.Background(), model.StatusReport{
		SensorID:          sensorID,
		Timestamp:         ts,
		State:             &state,
		PreviousStateTime: "1800 seconds",
	})
	require.NoError(t, err)
	assert.Equal(t, sensorID, event.SensorID)
	assert.Equal(t, parkingID, event.ParkingID)
	assert.Equal(t, 2, event.Floor)
	assert.True(t, event.State)
	assert.Equal(t, ts, event.Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordUnknownSensorRollsBack(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewStatusRepository(gormDB)

	sensorID := uuid.New()
	state := false

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT \* FROM "sensor_info" WHERE sensor_id =`).
		WithArgs(sensorID.String(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"sensor_id"}))
	mock.ExpectRollback()

	_, err := repo.Record(context.Background(), model.StatusReport{
		SensorID:          sensorID,
		Timestamp:         time.Now(),
		State:             &state,
		PreviousStateTime: "0 seconds",
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
