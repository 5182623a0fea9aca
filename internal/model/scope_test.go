package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLocationScopeValid(t *testing.T) {
	assert.True(t, ScopeParking.Valid())
	assert.True(t, ScopeFloor.Valid())
	assert.True(t, ScopeSensor.Valid())
	assert.False(t, LocationScope("building").Valid())
	assert.False(t, LocationScope("").Valid())
}

func TestLocationScopeDefaultLimit(t *testing.T) {
	assert.Equal(t, 20, ScopeParking.DefaultLimit())
	assert.Equal(t, 100, ScopeFloor.DefaultLimit())
	assert.Equal(t, 50, ScopeSensor.DefaultLimit())
}

func TestTimeScopeUnit(t *testing.T) {
	assert.Equal(t, "hour", TimeDay.Unit())
	assert.Equal(t, "day", TimeMonth.Unit())
	assert.Equal(t, "month", TimeYear.Unit())
}

func TestStrategyValid(t *testing.T) {
	assert.True(t, StrategyDistribution.Valid())
	assert.True(t, StrategyDuration.Valid())
	assert.False(t, Strategy("hybrid").Valid())
}

func TestAnalysisRequestFiltered(t *testing.T) {
	testCases := []struct {
		name     string
		req      AnalysisRequest
		expected bool
	}{
		{
			name:     "parking scope without filter",
			req:      AnalysisRequest{LocationSetting: ScopeParking},
			expected: false,
		},
		{
			name:     "parking scope with parking filter",
			req:      AnalysisRequest{LocationSetting: ScopeParking, ParkingIDs: "a,b"},
			expected: true,
		},
		{
			name:     "parking scope ignores sensor filter",
			req:      AnalysisRequest{LocationSetting: ScopeParking, SensorIDs: "s1"},
			expected: false,
		},
		{
			name:     "floor scope with parking filter only",
			req:      AnalysisRequest{LocationSetting: ScopeFloor, ParkingIDs: "a"},
			expected: true,
		},
		{
			name:     "floor scope with floor filter only",
			req:      AnalysisRequest{LocationSetting: ScopeFloor, Floors: "1,2"},
			expected: true,
		},
		{
			name:     "sensor scope ignores parking filter",
			req:      AnalysisRequest{LocationSetting: ScopeSensor, ParkingIDs: "a"},
			expected: false,
		},
		{
			name:     "sensor scope with sensor filter",
			req:      AnalysisRequest{LocationSetting: ScopeSensor, SensorIDs: "s1"},
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.req.Filtered())
		})
	}
}

func TestAnalysisGroupLocationKey(t *testing.T) {
	parkingID := uuid.New()
	sensorID := uuid.New()
	g := AnalysisGroup{ParkingID: parkingID, Floor: 2, SensorID: sensorID}

	assert.Equal(t, parkingID.String(), g.LocationKey(ScopeParking))
	assert.Equal(t, parkingID.String()+"-2", g.LocationKey(ScopeFloor))
	assert.Equal(t, sensorID.String(), g.LocationKey(ScopeSensor))

	other := AnalysisGroup{ParkingID: parkingID, Floor: 3, SensorID: sensorID}
	assert.NotEqual(t, g.LocationKey(ScopeFloor), other.LocationKey(ScopeFloor))
}
