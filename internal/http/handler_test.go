package http

import (
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"parking-analytics-service/internal/live"
	"parking-analytics-service/internal/model"
	"parking-analytics-service/internal/repository"
	"parking-analytics-service/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	log := zerolog.Nop()
	analysisRepo := repository.NewAnalysisRepository(gormDB, model.StrategyDistribution)
	metadataRepo := repository.NewMetadataRepository(gormDB)
	statusRepo := repository.NewStatusRepository(gormDB)
	adminRepo := repository.NewAdminRepository(gormDB)

	handler := NewHandler(
		service.NewAnalysisService(analysisRepo, 0, log),
		service.NewMetadataService(metadataRepo, log),
		service.NewStatusService(statusRepo, log),
		service.NewAdminService(adminRepo, log),
		live.NewHub(30*time.Second, log),
		log,
	)
	return NewRouter(handler, "test"), mock
}

func doRequest(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestGetAnalysisValidationMatrix(t *testing.T) {
	router, _ := newTestRouter(t)

	testCases := []struct {
		name  string
		query string
	}{
		{"no params", ""},
		{"missing user", "location_setting=parking&time_setting=year"},
		{"missing location", "user_id=u1&time_setting=year"},
		{"bad location", "user_id=u1&location_setting=city&time_setting=year"},
		{"bad time", "user_id=u1&location_setting=parking&time_setting=week"},
		{"day missing anchor", "user_id=u1&location_setting=parking&time_setting=day&year=2024&month=3"},
		{"month missing anchor", "user_id=u1&location_setting=parking&time_setting=month&year=2024"},
		{"bad year", "user_id=u1&location_setting=parking&time_setting=year&year=abc"},
		{"bad floor token", "user_id=u1&location_setting=floor&time_setting=year&floors=1,ground"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(router, "GET", "/analysis?"+tc.query, "")
			assert.Equal(t, nethttp.StatusBadRequest, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body, "error")
		})
	}
}

func TestGetAnalysisSuccess(t *testing.T) {
	router, mock := newTestRouter(t)

	parkingID := uuid.New()
	start := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)SELECT .* FROM measurements m`).
		WithArgs("u1", "2024-03-05", "p1").
		WillReturnRows(sqlmock.NewRows([]string{
			"time_period", "parking_id", "parking_alias",
			"total_measurements", "occupied_measurements", "available_measurements",
			"unique_sensors", "period_start", "period_end",
		}).AddRow(8, parkingID, "Central", 10, 4, 6, 3, start, start.Add(time.Hour)))

	w := doRequest(router, "GET",
		"/analysis?user_id=u1&location_setting=parking&time_setting=day&year=2024&month=3&day=5&parking_ids=p1", "")
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())

	var body struct {
		Data model.AnalysisResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, "distribution", body.Data.AnalysisType)
	assert.Equal(t, "hour", body.Data.TimeUnit)
	require.Len(t, body.Data.LocationAnalysis, 1)
	line := body.Data.LocationAnalysis[0]
	assert.Equal(t, 8, line.TimePeriod)
	assert.Equal(t, "parking", line.Location.Type)
	assert.Equal(t, "Central", line.Location.DisplayName)
	assert.InDelta(t, 40.0, line.Metrics.OccupancyPercentage, 0.001)
	assert.InDelta(t, 40.0, body.Data.OverallStatistics.AverageOccupancyPercentage, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Clients also send the query params as camelCase and singular names;
// both spellings must reach the same analysis.
func TestGetAnalysisAcceptsAliasedParams(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM measurements m`).
		WithArgs("u1", 2024, 3, "p1").
		WillReturnRows(sqlmock.NewRows([]string{"time_period"}))

	w := doRequest(router, "GET",
		"/analysis?user_id=u1&locationSetting=parking&timeSetting=month&year=2024&month=3&parking_id=p1", "")
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A user without grants matches no permission rows, so the result is an
// empty analysis rather than an error.
func TestGetAnalysisNoGrantsIsEmpty(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`(?s)SELECT .* FROM measurements m`).
		WillReturnRows(sqlmock.NewRows([]string{"time_period"}))

	w := doRequest(router, "GET", "/analysis?user_id=nobody&location_setting=parking&time_setting=year", "")
	require.Equal(t, nethttp.StatusOK, w.Code)

	var body struct {
		Data model.AnalysisResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.Data.TotalRecords)
	assert.InDelta(t, 100.0, body.Data.OverallStatistics.AverageAvailabilityPercentage, 0.001)
}

func TestGetSensorStatsPermissionDenied(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`(?s)SELECT count\(\*\) FROM "permissions"`).
		WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	w := doRequest(router, "GET", "/stats/sensors?user_id=u1&parking_id=p1&date=2024-03-05", "")
	assert.Equal(t, nethttp.StatusForbidden, w.Code)
}

func TestGetSensorStatsRequiresWindow(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/stats/sensors?user_id=u1&parking_id=p1", "")
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
}

func TestGetLayoutNotFound(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`(?s)SELECT count\(\*\) FROM "permissions"`).
		WithArgs("u1", "p1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT stage_info, layout_info FROM "levels"`).
		WithArgs("p1", 7, 1).
		WillReturnRows(sqlmock.NewRows([]string{"stage_info", "layout_info"}))

	w := doRequest(router, "GET", "/layout?user_id=u1&parking_id=p1&floor=7", "")
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestPostStatusRejectsIncompletePayload(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "POST", "/status", `{"sensor_id":"`+uuid.NewString()+`"}`)
	assert.Equal(t, nethttp.StatusBadRequest, w.Code)
}

func TestPostStatusUnknownSensor(t *testing.T) {
	router, mock := newTestRouter(t)

	sensorID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)SELECT \* FROM "sensor_info"`).
		WillReturnRows(sqlmock.NewRows([]string{"sensor_id"}))
	mock.ExpectRollback()

	payload := `{"sensor_id":"` + sensorID.String() + `","timestamp":"2024-03-05T08:15:00Z","state":true,"previous_state_time":"1800 seconds"}`
	w := doRequest(router, "POST", "/status", payload)
	assert.Equal(t, nethttp.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(router, "GET", "/health", "")
	assert.Equal(t, nethttp.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestPutAliasRequiresAdministrator(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(`(?s)SELECT "administrator" FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"administrator"}).AddRow(false))

	payload := `{"user_id":"u1","sensor_id":"s1","sensor_alias":"New Name"}`
	w := doRequest(router, "PUT", "/sensors/alias", payload)
	assert.Equal(t, nethttp.StatusForbidden, w.Code)
}
