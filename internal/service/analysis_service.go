package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"parking-analytics-service/internal/model"
	"parking-analytics-service/internal/repository"
)

// AnalysisService validates analytics requests, runs the aggregation
// and shapes the grouped rows into the response payload.
type AnalysisService struct {
	repo         *repository.AnalysisRepository
	queryTimeout time.Duration
	log          zerolog.Logger
}

func NewAnalysisService(repo *repository.AnalysisRepository, queryTimeout time.Duration, log zerolog.Logger) *AnalysisService {
	return &AnalysisService{repo: repo, queryTimeout: queryTimeout, log: log}
}

// Analyze runs one analytics request end to end: validate, resolve,
// aggregate, roll up, assemble.
func (s *AnalysisService) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResponse, error) {
	query, err := s.resolve(req)
	if err != nil {
		return nil, err
	}

	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	groups, err := s.repo.Aggregate(ctx, *query)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	elapsed := time.Since(start).Milliseconds()

	s.log.Debug().
		Str("user_id", req.UserID).
		Str("location_setting", string(req.LocationSetting)).
		Str("time_setting", string(req.TimeSetting)).
		Int("groups", len(groups)).
		Int64("elapsed_ms", elapsed).
		Msg("analysis query executed")

	return s.assemble(req, *query, groups, elapsed), nil
}

// resolve turns the raw request into a typed query: enum membership,
// temporal anchor completeness, CSV filter parsing and the safety cap.
func (s *AnalysisService) resolve(req model.AnalysisRequest) (*model.AnalysisQuery, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if req.LocationSetting == "" || req.TimeSetting == "" {
		return nil, fmt.Errorf("%w: location_setting and time_setting are required", ErrValidation)
	}
	if !req.LocationSetting.Valid() {
		return nil, fmt.Errorf("%w: location_setting must be one of parking, floor, sensor", ErrValidation)
	}
	if !req.TimeSetting.Valid() {
		return nil, fmt.Errorf("%w: time_setting must be one of day, month, year", ErrValidation)
	}

	q := model.AnalysisQuery{
		UserID:     req.UserID,
		Location:   req.LocationSetting,
		Time:       req.TimeSetting,
		ParkingIDs: splitCSV(req.ParkingIDs),
		SensorIDs:  splitCSV(req.SensorIDs),
	}

	floors, err := parseFloors(req.Floors)
	if err != nil {
		return nil, err
	}
	q.Floors = floors

	switch req.TimeSetting {
	case model.TimeDay:
		if req.Year == "" || req.Month == "" || req.Day == "" {
			return nil, fmt.Errorf("%w: day analysis requires year, month and day", ErrValidation)
		}
		if q.Year, err = parseTemporal("year", req.Year); err != nil {
			return nil, err
		}
		if q.Month, err = parseTemporal("month", req.Month); err != nil {
			return nil, err
		}
		if q.Day, err = parseTemporal("day", req.Day); err != nil {
			return nil, err
		}
	case model.TimeMonth:
		if req.Year == "" || req.Month == "" {
			return nil, fmt.Errorf("%w: month analysis requires year and month", ErrValidation)
		}
		if q.Year, err = parseTemporal("year", req.Year); err != nil {
			return nil, err
		}
		if q.Month, err = parseTemporal("month", req.Month); err != nil {
			return nil, err
		}
	case model.TimeYear:
		if req.Year != "" {
			if q.Year, err = parseTemporal("year", req.Year); err != nil {
				return nil, err
			}
		}
	}

	if !req.Filtered() {
		q.Limit = req.LocationSetting.DefaultLimit()
	}
	return &q, nil
}

// splitCSV splits a comma-separated filter, trimming whitespace and
// dropping empty tokens. An all-empty input yields nil, which reads as
// "no filter".
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// parseFloors rejects the whole request on any non-integer token rather
// than silently narrowing the filter.
func parseFloors(raw string) ([]int, error) {
	tokens := splitCSV(raw)
	if tokens == nil {
		return nil, nil
	}
	floors := make([]int, 0, len(tokens))
	for _, t := range tokens {
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid floor %q", ErrValidation, t)
		}
		floors = append(floors, n)
	}
	return floors, nil
}

func parseTemporal(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrValidation, name, raw)
	}
	return n, nil
}

// assemble builds the full response: per-line metrics, the weighted
// rollup and the echo of the request parameters.
func (s *AnalysisService) assemble(req model.AnalysisRequest, q model.AnalysisQuery, groups []model.AnalysisGroup, elapsedMs int64) *model.AnalysisResponse {
	lines := make([]model.AnalysisLine, 0, len(groups))
	locations := make(map[string]struct{})

	var (
		totalMeasurements     int64
		occupiedMeasurements  int64
		availableMeasurements int64
		occupiedWeight        float64
		totalWeight           float64
		maxUniqueSensors      int64
	)

	for _, g := range groups {
		locations[g.LocationKey(q.Location)] = struct{}{}

		metrics := s.metricsFor(g)
		lines = append(lines, model.AnalysisLine{
			TimePeriod: g.TimePeriod,
			Location:   locationFor(g, q.Location),
			Metrics:    metrics,
		})

		totalMeasurements += g.TotalMeasurements
		occupiedMeasurements += g.OccupiedMeasurements
		availableMeasurements += g.AvailableMeasurements
		if g.UniqueSensors > maxUniqueSensors {
			maxUniqueSensors = g.UniqueSensors
		}
		if s.repo.Strategy() == model.StrategyDuration {
			occupiedWeight += g.OccupiedSeconds
			totalWeight += g.OccupiedSeconds + g.AvailableSeconds
		} else {
			occupiedWeight += float64(g.OccupiedMeasurements)
			totalWeight += float64(g.TotalMeasurements)
		}
	}

	avgOccupancy, avgAvailability := 0.0, 100.0
	if totalWeight > 0 {
		avgOccupancy = round2(occupiedWeight / totalWeight * 100)
		avgAvailability = round2(100 - avgOccupancy)
	}

	periodsPerLocation := 0
	if len(locations) > 0 {
		periodsPerLocation = int(math.Round(float64(len(lines)) / float64(len(locations))))
	}

	return &model.AnalysisResponse{
		Parameters: model.AnalysisParameters{
			UserID:          req.UserID,
			LocationSetting: req.LocationSetting,
			TimeSetting:     req.TimeSetting,
			Filters: model.AnalysisFilters{
				ParkingIDs: echo(req.ParkingIDs),
				Floors:     echo(req.Floors),
				SensorIDs:  echo(req.SensorIDs),
				Year:       echo(req.Year),
				Month:      echo(req.Month),
				Day:        echo(req.Day),
			},
		},
		OverallStatistics: model.OverallStatistics{
			TotalMeasurements:             totalMeasurements,
			TotalOccupiedMeasurements:     occupiedMeasurements,
			TotalAvailableMeasurements:    availableMeasurements,
			AverageOccupancyPercentage:    avgOccupancy,
			AverageAvailabilityPercentage: avgAvailability,
			TotalUniqueSensors:            maxUniqueSensors,
			TotalLocationsAnalyzed:        len(locations),
			QueryExecutionTimeMs:          elapsedMs,
		},
		LocationAnalysis: lines,
		TotalRecords:     len(lines),
		AnalysisType:     string(s.repo.Strategy()),
		TimeUnit:         q.Time.Unit(),
		Metadata: model.AnalysisMetadata{
			LocationsAnalyzed:      len(locations),
			TimePeriodsPerLocation: periodsPerLocation,
			AnalysisScope:          string(q.Location),
			FilterApplied:          req.Filtered(),
			ExecutionTimeMs:        elapsedMs,
		},
	}
}

// metricsFor derives the per-line metrics under the active strategy.
// Distribution scales the occupied ratio to a nominal 1-hour bucket
// regardless of time scope; duration converts reconstructed seconds
// directly. Distribution has no transition data, so state_changes
// carries the measurement count there.
func (s *AnalysisService) metricsFor(g model.AnalysisGroup) model.AnalysisMetrics {
	m := model.AnalysisMetrics{
		StateChanges:      g.StateChanges,
		UniqueSensors:     g.UniqueSensors,
		TotalMeasurements: g.TotalMeasurements,
		PeriodStart:       g.PeriodStart,
		PeriodEnd:         g.PeriodEnd,
	}

	if s.repo.Strategy() == model.StrategyDuration {
		m.OccupiedHours = round2(g.OccupiedSeconds / 3600)
		m.AvailableHours = round2(g.AvailableSeconds / 3600)
		m.TotalHours = round2((g.OccupiedSeconds + g.AvailableSeconds) / 3600)
		total := g.OccupiedSeconds + g.AvailableSeconds
		if total > 0 {
			m.OccupancyPercentage = round2(g.OccupiedSeconds / total * 100)
			m.AvailabilityPercentage = round2(100 - m.OccupancyPercentage)
			m.ActivityRate = round2(float64(g.StateChanges) / (total / 3600))
		} else {
			m.AvailabilityPercentage = 100
		}
		return m
	}

	if g.TotalMeasurements > 0 {
		m.OccupancyPercentage = round2(float64(g.OccupiedMeasurements) / float64(g.TotalMeasurements) * 100)
		m.AvailabilityPercentage = round2(100 - m.OccupancyPercentage)
	} else {
		m.AvailabilityPercentage = 100
	}

	m.StateChanges = g.TotalMeasurements
	m.TotalHours = 1
	m.OccupiedHours = round2(m.OccupancyPercentage / 100)
	m.AvailableHours = round2(1 - m.OccupiedHours)
	if g.UniqueSensors > 0 {
		m.ActivityRate = round2(float64(g.TotalMeasurements) / float64(g.UniqueSensors))
	}
	return m
}

// locationFor builds the discriminated location payload for one grouped
// row. Finer scopes carry their parent context in the display name.
func locationFor(g model.AnalysisGroup, scope model.LocationScope) model.AnalysisLocation {
	loc := model.AnalysisLocation{
		Type:        string(scope),
		ParkingID:   g.ParkingID,
		ParkingName: g.ParkingAlias,
	}
	switch scope {
	case model.ScopeFloor:
		floor := g.Floor
		floorName := g.FloorAlias
		loc.FloorNumber = &floor
		loc.FloorName = &floorName
		loc.DisplayName = fmt.Sprintf("%s - %s", g.ParkingAlias, floorName)
	case model.ScopeSensor:
		floor := g.Floor
		floorName := g.FloorAlias
		sensorID := g.SensorID
		sensorName := g.SensorAlias
		loc.FloorNumber = &floor
		loc.FloorName = &floorName
		loc.SensorID = &sensorID
		loc.SensorName = &sensorName
		loc.DisplayName = fmt.Sprintf("%s (%s - %s)", sensorName, g.ParkingAlias, floorName)
	default:
		loc.DisplayName = g.ParkingAlias
	}
	return loc
}

// echo returns a pointer to the raw filter string as received, or nil
// when the filter was absent, so the response distinguishes "not sent"
// from "sent empty".
func echo(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
