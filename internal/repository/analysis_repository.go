package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
)

// AnalysisRepository runs the occupancy aggregation against the store.
// The statistical strategy is fixed at construction; mixing strategies
// within one deployment is a configuration error.
type AnalysisRepository struct {
	db       *gorm.DB
	strategy model.Strategy
}

func NewAnalysisRepository(db *gorm.DB, strategy model.Strategy) *AnalysisRepository {
	return &AnalysisRepository{db: db, strategy: strategy}
}

func (r *AnalysisRepository) Strategy() model.Strategy {
	return r.strategy
}

// Aggregate executes the composed analysis query and returns one row
// per (time bucket, location group). Buckets without measurements are
// never emitted. Access control is a join condition: users without
// permission rows simply match nothing.
func (r *AnalysisRepository) Aggregate(ctx context.Context, q model.AnalysisQuery) ([]model.AnalysisGroup, error) {
	if r.strategy == model.StrategyDuration {
		return r.aggregateDuration(ctx, q)
	}
	return r.aggregateDistribution(ctx, q)
}

// aggregateDistribution counts measurement rows per state inside each
// bucket. Fast: no ordering or window requirement, at the cost of
// treating the sample distribution as a proxy for elapsed time.
func (r *AnalysisRepository) aggregateDistribution(ctx context.Context, q model.AnalysisQuery) ([]model.AnalysisGroup, error) {
	sel := fmt.Sprintf(`%s AS time_period,
		%s,
		COUNT(*) AS total_measurements,
		SUM(CASE WHEN m.state THEN 1 ELSE 0 END) AS occupied_measurements,
		SUM(CASE WHEN NOT m.state THEN 1 ELSE 0 END) AS available_measurements,
		COUNT(DISTINCT m.sensor_id) AS unique_sensors,
		MIN(m.timestamp) AS period_start,
		MAX(m.timestamp) AS period_end`,
		bucketExpr(q.Time), locationSelect(q.Location))

	query := r.db.WithContext(ctx).
		Table("measurements m").
		Select(sel).
		Joins("INNER JOIN sensor_info si ON si.sensor_id = m.sensor_id").
		Joins("INNER JOIN parking p ON p.parking_id = si.parking_id").
		Joins("LEFT JOIN levels l ON l.parking_id = si.parking_id AND l.floor = si.floor").
		Joins("INNER JOIN permissions perm ON perm.parking_id = p.parking_id").
		Where("perm.user_id = ?", q.UserID)

	query = applyTimeScope(query, q)
	query = applyLocationFilters(query, q)

	query = query.
		Group(locationGroup(q.Location) + ", " + bucketExpr(q.Time)).
		Having("COUNT(*) > 0").
		Order(orderColumns(q.Location))

	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var groups []model.AnalysisGroup
	if err := query.Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// aggregateDuration reconstructs elapsed occupied/available time from
// consecutive events per sensor. The gap between an event and the next
// is attributed to the state held during the gap, which is the state of
// the earlier event; the gap lands in the bucket of the earlier event's
// timestamp. A sensor's last event has no successor and contributes no
// duration but still counts toward membership.
func (r *AnalysisRepository) aggregateDuration(ctx context.Context, q model.AnalysisQuery) ([]model.AnalysisGroup, error) {
	var conds []string
	args := []interface{}{q.UserID}

	timeSQL, timeArgs := timeConditions(q)
	conds = append(conds, timeSQL...)
	args = append(args, timeArgs...)

	locSQL, locArgs := locationConditions(q)
	conds = append(conds, locSQL...)
	args = append(args, locArgs...)

	where := "perm.user_id = ?"
	if len(conds) > 0 {
		where += " AND " + strings.Join(conds, " AND ")
	}

	limit := ""
	if q.Limit > 0 {
		limit = fmt.Sprintf("LIMIT %d", q.Limit)
	}

	sql := fmt.Sprintf(`
		WITH sensor_state_durations AS (
			SELECT
				m.sensor_id,
				m.state,
				m.timestamp,
				LEAD(m.timestamp) OVER (PARTITION BY m.sensor_id ORDER BY m.timestamp) AS next_timestamp,
				%s AS time_period,
				si.parking_id,
				si.floor,
				si.sensor_alias,
				p.parking_alias,
				COALESCE(l.floor_alias, CONCAT('Floor ', si.floor)) AS floor_alias
			FROM measurements m
			INNER JOIN sensor_info si ON si.sensor_id = m.sensor_id
			INNER JOIN parking p ON p.parking_id = si.parking_id
			LEFT JOIN levels l ON l.parking_id = si.parking_id AND l.floor = si.floor
			INNER JOIN permissions perm ON perm.parking_id = p.parking_id
			WHERE %s
		)
		SELECT
			time_period,
			%s,
			COUNT(*) AS total_measurements,
			SUM(CASE WHEN state THEN 1 ELSE 0 END) AS occupied_measurements,
			SUM(CASE WHEN NOT state THEN 1 ELSE 0 END) AS available_measurements,
			COUNT(DISTINCT sensor_id) AS unique_sensors,
			SUM(CASE WHEN state AND next_timestamp IS NOT NULL
				THEN EXTRACT(EPOCH FROM (next_timestamp - timestamp)) ELSE 0 END) AS occupied_seconds,
			SUM(CASE WHEN NOT state AND next_timestamp IS NOT NULL
				THEN EXTRACT(EPOCH FROM (next_timestamp - timestamp)) ELSE 0 END) AS available_seconds,
			COUNT(*) FILTER (WHERE next_timestamp IS NOT NULL) AS state_changes,
			MIN(timestamp) AS period_start,
			MAX(timestamp) AS period_end
		FROM sensor_state_durations
		GROUP BY %s, time_period
		HAVING COUNT(*) > 0
		ORDER BY %s
		%s`,
		bucketExpr(q.Time), where,
		durationSelect(q.Location),
		durationGroup(q.Location),
		durationOrder(q.Location),
		limit)

	var groups []model.AnalysisGroup
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

// bucketExpr maps the time scope to its extraction expression over the
// measurement timestamp. Fixed enum dispatch, never user input.
func bucketExpr(t model.TimeScope) string {
	switch t {
	case model.TimeDay:
		return "EXTRACT(HOUR FROM m.timestamp)"
	case model.TimeMonth:
		return "EXTRACT(DAY FROM m.timestamp)"
	default:
		return "EXTRACT(MONTH FROM m.timestamp)"
	}
}

func applyTimeScope(query *gorm.DB, q model.AnalysisQuery) *gorm.DB {
	conds, args := timeConditions(q)
	for i, cond := range conds {
		query = query.Where(cond, args[i])
	}
	return query
}

// timeConditions returns the temporal predicates with one bound value
// each. The exact-date literal is rebuilt from parsed integers so
// single-digit months and days come out zero-padded.
func timeConditions(q model.AnalysisQuery) ([]string, []interface{}) {
	switch q.Time {
	case model.TimeDay:
		date := fmt.Sprintf("%04d-%02d-%02d", q.Year, q.Month, q.Day)
		return []string{"DATE(m.timestamp) = ?"}, []interface{}{date}
	case model.TimeMonth:
		return []string{
			"EXTRACT(YEAR FROM m.timestamp) = ?",
			"EXTRACT(MONTH FROM m.timestamp) = ?",
		}, []interface{}{q.Year, q.Month}
	default:
		if q.Year > 0 {
			return []string{"EXTRACT(YEAR FROM m.timestamp) = ?"}, []interface{}{q.Year}
		}
		return nil, nil
	}
}

func applyLocationFilters(query *gorm.DB, q model.AnalysisQuery) *gorm.DB {
	conds, args := locationConditions(q)
	for i, cond := range conds {
		query = query.Where(cond, args[i])
	}
	return query
}

// locationConditions returns the IN-list predicates relevant to the
// chosen scope. Values are always bound, never spliced into the query
// text. Parking and floor scopes may narrow by parking even though
// they group at a different granularity; sensor scope honors only the
// sensor list.
func locationConditions(q model.AnalysisQuery) ([]string, []interface{}) {
	var conds []string
	var args []interface{}

	switch q.Location {
	case model.ScopeParking:
		if len(q.ParkingIDs) > 0 {
			conds = append(conds, "si.parking_id IN ?")
			args = append(args, q.ParkingIDs)
		}
	case model.ScopeFloor:
		if len(q.ParkingIDs) > 0 {
			conds = append(conds, "si.parking_id IN ?")
			args = append(args, q.ParkingIDs)
		}
		if len(q.Floors) > 0 {
			conds = append(conds, "si.floor IN ?")
			args = append(args, q.Floors)
		}
	case model.ScopeSensor:
		if len(q.SensorIDs) > 0 {
			conds = append(conds, "si.sensor_id IN ?")
			args = append(args, q.SensorIDs)
		}
	}
	return conds, args
}

func locationSelect(s model.LocationScope) string {
	switch s {
	case model.ScopeFloor:
		return "si.parking_id, si.floor, p.parking_alias, COALESCE(l.floor_alias, CONCAT('Floor ', si.floor)) AS floor_alias"
	case model.ScopeSensor:
		return "si.sensor_id, si.sensor_alias, si.parking_id, p.parking_alias, si.floor, COALESCE(l.floor_alias, CONCAT('Floor ', si.floor)) AS floor_alias"
	default:
		return "si.parking_id, p.parking_alias"
	}
}

func locationGroup(s model.LocationScope) string {
	switch s {
	case model.ScopeFloor:
		return "si.parking_id, si.floor, p.parking_alias, COALESCE(l.floor_alias, CONCAT('Floor ', si.floor))"
	case model.ScopeSensor:
		return "si.sensor_id, si.sensor_alias, si.parking_id, p.parking_alias, si.floor, COALESCE(l.floor_alias, CONCAT('Floor ', si.floor))"
	default:
		return "si.parking_id, p.parking_alias"
	}
}

func orderColumns(s model.LocationScope) string {
	switch s {
	case model.ScopeFloor:
		return "time_period, si.parking_id, si.floor"
	case model.ScopeSensor:
		return "time_period, si.parking_id, si.floor, si.sensor_alias"
	default:
		return "time_period, p.parking_alias"
	}
}

// Duration-strategy column sets select from the CTE, where the alias
// projections are already materialized.
func durationSelect(s model.LocationScope) string {
	switch s {
	case model.ScopeFloor:
		return "parking_id, floor, parking_alias, floor_alias"
	case model.ScopeSensor:
		return "sensor_id, sensor_alias, parking_id, parking_alias, floor, floor_alias"
	default:
		return "parking_id, parking_alias"
	}
}

func durationGroup(s model.LocationScope) string {
	switch s {
	case model.ScopeFloor:
		return "parking_id, floor, parking_alias, floor_alias"
	case model.ScopeSensor:
		return "sensor_id, sensor_alias, parking_id, parking_alias, floor, floor_alias"
	default:
		return "parking_id, parking_alias"
	}
}

func durationOrder(s model.LocationScope) string {
	switch s {
	case model.ScopeFloor:
		return "time_period, parking_id, floor"
	case model.ScopeSensor:
		return "time_period, parking_id, floor, sensor_alias"
	default:
		return "time_period, parking_alias"
	}
}
