package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parking-analytics-service/internal/model"
)

func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return gormDB, mock
}

func distributionColumns() []string {
	return []string{
		"time_period", "parking_id", "parking_alias",
		"total_measurements", "occupied_measurements", "available_measurements",
		"unique_sensors", "period_start", "period_end",
	}
}

func TestAggregateDistributionScansGroups(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewAnalysisRepository(gormDB, model.StrategyDistribution)

	parkingID := uuid.New()
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT .* FROM measurements m .*permissions perm.*GROUP BY .*HAVING COUNT\(\*\) > 0`).
		WithArgs("user-1", "2024-03-05", "p1").
		WillReturnRows(sqlmock.NewRows(distributionColumns()).
			AddRow(8, parkingID, "Central", 10, 3, 7, 4, start, start.Add(55*time.Minute)).
			AddRow(9, parkingID, "Central", 12, 6, 6, 4, start.Add(time.Hour), start.Add(115*time.Minute)))

	groups, err := repo.Aggregate(context.Background(), model.AnalysisQuery{
		UserID:     "user-1",
		Location:   model.ScopeParking,
		Time:       model.TimeDay,
		ParkingIDs: []string{"p1"},
		Year:       2024, Month: 3, Day: 5,
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, 8, groups[0].TimePeriod)
	assert.Equal(t, parkingID, groups[0].ParkingID)
	assert.Equal(t, "Central", groups[0].ParkingAlias)
	assert.Equal(t, int64(10), groups[0].TotalMeasurements)
	assert.Equal(t, int64(3), groups[0].OccupiedMeasurements)
	assert.Equal(t, int64(4), groups[0].UniqueSensors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateDistributionZeroPadsDate(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewAnalysisRepository(gormDB, model.StrategyDistribution)

	mock.ExpectQuery(`(?s)SELECT .* FROM measurements m`).
		WithArgs("user-1", "2024-03-05", "p1").
		WillReturnRows(sqlmock.NewRows(distributionColumns()))

	_, err := repo.Aggregate(context.Background(), model.AnalysisQuery{
		UserID:     "user-1",
		Location:   model.ScopeParking,
		Time:       model.TimeDay,
		ParkingIDs: []string{"p1"},
		Year:       2024, Month: 3, Day: 5,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateDistributionMonthBindsYearAndMonth(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewAnalysisRepository(gormDB, model.StrategyDistribution)

	mock.ExpectQuery(`(?s)EXTRACT\(YEAR FROM m\.timestamp\) = .*EXTRACT\(MONTH FROM m\.timestamp\) =`).
		WithArgs("user-1", 2024, 11, "p1", 1, -2).
		WillReturnRows(sqlmock.NewRows(distributionColumns()))

	_, err := repo.Aggregate(context.Background(), model.AnalysisQuery{
		UserID:     "user-1",
		Location:   model.ScopeFloor,
		Time:       model.TimeMonth,
		ParkingIDs: []string{"p1"},
		Floors:     []int{1, -2},
		Year:       2024, Month: 11,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateDistributionAppliesCapWhenUnfiltered(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewAnalysisRepository(gormDB, model.StrategyDistribution)

	mock.ExpectQuery(`(?s)LIMIT \$?\d*`).
		WillReturnRows(sqlmock.NewRows(distributionColumns()))

	_, err := repo.Aggregate(context.Background(), model.AnalysisQuery{
		UserID:   "user-1",
		Location: model.ScopeParking,
		Time:     model.TimeYear,
		Limit:    20,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateDurationScansSecondsAndChanges(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewAnalysisRepository(gormDB, model.StrategyDuration)

	sensorID := uuid.New()
	parkingID := uuid.New()
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	columns := []string{
		"time_period", "sensor_id", "sensor_alias", "parking_id", "parking_alias", "floor", "floor_alias",
		"total_measurements", "occupied_measurements", "available_measurements",
		"unique_sensors", "occupied_seconds", "available_seconds", "state_changes",
		"period_start", "period_end",
	}

	mock.ExpectQuery(`(?s)WITH sensor_state_durations AS .*LEAD\(m\.timestamp\) OVER \(PARTITION BY m\.sensor_id ORDER BY m\.timestamp\)`).
		WithArgs("user-1", "2024-03-05", sensorID.String()).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(8, sensorID, "P0-01", parkingID, "Central", 0, "Level 0",
				3, 2, 1, 1, 1800.0, 900.0, 2, start, start.Add(45*time.Minute)))

	groups, err := repo.Aggregate(context.Background(), model.AnalysisQuery{
		UserID:    "user-1",
		Location:  model.ScopeSensor,
		Time:      model.TimeDay,
		SensorIDs: []string{sensorID.String()},
		Year:      2024, Month: 3, Day: 5,
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)

	assert.Equal(t, sensorID, groups[0].SensorID)
	assert.InDelta(t, 1800.0, groups[0].OccupiedSeconds, 0.001)
	assert.InDelta(t, 900.0, groups[0].AvailableSeconds, 0.001)
	assert.Equal(t, int64(2), groups[0].StateChanges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAggregateDurationYearWithoutAnchorHasNoTimeFilter(t *testing.T) {
	gormDB, mock := newTestDB(t)
	repo := NewAnalysisRepository(gormDB, model.StrategyDuration)

	mock.ExpectQuery(`(?s)WITH sensor_state_durations`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"time_period"}))

	_, err := repo.Aggregate(context.Background(), model.AnalysisQuery{
		UserID:   "user-1",
		Location: model.ScopeParking,
		Time:     model.TimeYear,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketExpr(t *testing.T) {
	assert.Equal(t, "EXTRACT(HOUR FROM m.timestamp)", bucketExpr(model.TimeDay))
	assert.Equal(t, "EXTRACT(DAY FROM m.timestamp)", bucketExpr(model.TimeMonth))
	assert.Equal(t, "EXTRACT(MONTH FROM m.timestamp)", bucketExpr(model.TimeYear))
}

func TestLocationConditionsScopeIsolation(t *testing.T) {
	q := model.AnalysisQuery{
		Location:   model.ScopeSensor,
		ParkingIDs: []string{"p1"},
		Floors:     []int{1},
		SensorIDs:  []string{"s1", "s2"},
	}
	conds, args := locationConditions(q)
	require.Len(t, conds, 1)
	assert.Equal(t, "si.sensor_id IN ?", conds[0])
	assert.Equal(t, []string{"s1", "s2"}, args[0])

	q.Location = model.ScopeParking
	conds, _ = locationConditions(q)
	require.Len(t, conds, 1)
	assert.Equal(t, "si.parking_id IN ?", conds[0])

	q.Location = model.ScopeFloor
	conds, _ = locationConditions(q)
	assert.Len(t, conds, 2)
}
