package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"parking-analytics-service/internal/model"
)

type MetadataRepository struct {
	db *gorm.DB
}

func NewMetadataRepository(db *gorm.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// HasAccess answers the permission gate for endpoints that address a
// single parking directly. The aggregation path never calls this; there
// the gate is a join condition.
func (r *MetadataRepository) HasAccess(ctx context.Context, userID, parkingID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("permissions").
		Where("user_id = ? AND parking_id = ?", userID, parkingID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LevelsByUser lists every (parking, level) pair the user can see,
// ordered for stable nesting by the caller.
func (r *MetadataRepository) LevelsByUser(ctx context.Context, userID string) ([]LevelRow, error) {
	var rows []LevelRow
	err := r.db.WithContext(ctx).
		Table("parking p").
		Select("DISTINCT p.parking_id, p.complex, p.parking_alias, l.floor, l.floor_alias").
		Joins("JOIN permissions perm ON perm.parking_id = p.parking_id").
		Joins("JOIN levels l ON l.parking_id = p.parking_id").
		Where("perm.user_id = ?", userID).
		Order("p.complex, p.parking_alias, l.floor").
		Scan(&rows).Error
	return rows, err
}

type LevelRow struct {
	ParkingID    uuid.UUID `gorm:"column:parking_id"`
	Complex      string    `gorm:"column:complex"`
	ParkingAlias string    `gorm:"column:parking_alias"`
	Floor        int       `gorm:"column:floor"`
	FloorAlias   *string   `gorm:"column:floor_alias"`
}

func (r *MetadataRepository) SensorsByUser(ctx context.Context, userID string) ([]model.SensorSummary, error) {
	var rows []model.SensorSummary
	err := r.db.WithContext(ctx).
		Table("sensor_info s").
		Select("s.sensor_id, s.sensor_alias, s.parking_id, s.floor, s.current_state, p.parking_alias, p.complex").
		Joins("JOIN parking p ON p.parking_id = s.parking_id").
		Joins("JOIN permissions perm ON perm.parking_id = s.parking_id").
		Where("perm.user_id = ?", userID).
		Order("p.complex, p.parking_alias, s.floor, s.sensor_alias").
		Scan(&rows).Error
	return rows, err
}

func (r *MetadataRepository) SensorsByLevel(ctx context.Context, parkingID string, floor int) ([]model.MapSensor, error) {
	var rows []model.MapSensor
	err := r.db.WithContext(ctx).
		Table("sensor_info").
		Select("sensor_id, sensor_alias, konva_id, type, current_state").
		Where("parking_id = ? AND floor = ?", parkingID, floor).
		Order("sensor_id").
		Scan(&rows).Error
	return rows, err
}

func (r *MetadataRepository) LevelLayout(ctx context.Context, parkingID string, floor int) (*model.LevelLayout, error) {
	var layout model.LevelLayout
	result := r.db.WithContext(ctx).
		Table("levels").
		Select("stage_info, layout_info").
		Where("parking_id = ? AND floor = ?", parkingID, floor).
		Limit(1).
		Scan(&layout)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &layout, nil
}

// ParkingInfo assembles the per-parking summary for one user: sensor
// totals, floor breakdown and the full grant list per parking.
func (r *MetadataRepository) ParkingInfo(ctx context.Context, userID string) ([]model.ParkingInfo, error) {
	type parkingRow struct {
		ParkingID        uuid.UUID  `gorm:"column:parking_id"`
		ParkingAlias     string     `gorm:"column:parking_alias"`
		Complex          string     `gorm:"column:complex"`
		InstallationDate *time.Time `gorm:"column:installation_date"`
		MaintenanceDate  *time.Time `gorm:"column:maintenance_date"`
		TotalSensors     int64      `gorm:"column:total_sensors"`
	}
	var parkings []parkingRow
	err := r.db.WithContext(ctx).
		Table("parking p").
		Select(`p.parking_id, p.parking_alias, p.complex, p.installation_date, p.maintenance_date,
			(SELECT COUNT(*) FROM sensor_info si WHERE si.parking_id = p.parking_id) AS total_sensors`).
		Joins("JOIN permissions perm ON perm.parking_id = p.parking_id").
		Where("perm.user_id = ?", userID).
		Order("p.complex, p.parking_alias").
		Scan(&parkings).Error
	if err != nil {
		return nil, err
	}
	if len(parkings) == 0 {
		return []model.ParkingInfo{}, nil
	}

	ids := make([]uuid.UUID, 0, len(parkings))
	for _, p := range parkings {
		ids = append(ids, p.ParkingID)
	}

	type floorRow struct {
		ParkingID      uuid.UUID `gorm:"column:parking_id"`
		Floor          int       `gorm:"column:floor"`
		FloorAlias     *string   `gorm:"column:floor_alias"`
		SensorsOnFloor int64     `gorm:"column:sensors_on_floor"`
	}
	var floors []floorRow
	err = r.db.WithContext(ctx).
		Table("levels l").
		Select(`l.parking_id, l.floor, l.floor_alias,
			(SELECT COUNT(*) FROM sensor_info si WHERE si.parking_id = l.parking_id AND si.floor = l.floor) AS sensors_on_floor`).
		Where("l.parking_id IN ?", ids).
		Order("l.parking_id, l.floor").
		Scan(&floors).Error
	if err != nil {
		return nil, err
	}

	type grantRow struct {
		ParkingID     uuid.UUID `gorm:"column:parking_id"`
		UserID        uuid.UUID `gorm:"column:user_id"`
		Username      string    `gorm:"column:username"`
		Administrator bool      `gorm:"column:administrator"`
	}
	var grants []grantRow
	err = r.db.WithContext(ctx).
		Table("permissions perm").
		Select("perm.parking_id, u.user_id, u.username, u.administrator").
		Joins("JOIN users u ON u.user_id = perm.user_id").
		Where("perm.parking_id IN ?", ids).
		Order("perm.parking_id, u.username").
		Scan(&grants).Error
	if err != nil {
		return nil, err
	}

	var requesterAdmin bool
	err = r.db.WithContext(ctx).
		Table("users").
		Select("administrator").
		Where("user_id = ?", userID).
		Scan(&requesterAdmin).Error
	if err != nil {
		return nil, err
	}

	floorsByParking := make(map[uuid.UUID][]model.FloorBreakdown)
	for _, f := range floors {
		floorsByParking[f.ParkingID] = append(floorsByParking[f.ParkingID], model.FloorBreakdown{
			Floor:          f.Floor,
			FloorAlias:     f.FloorAlias,
			SensorsOnFloor: f.SensorsOnFloor,
		})
	}
	grantsByParking := make(map[uuid.UUID][]model.UserSummary)
	for _, g := range grants {
		grantsByParking[g.ParkingID] = append(grantsByParking[g.ParkingID], model.UserSummary{
			UserID:        g.UserID,
			Username:      g.Username,
			Administrator: g.Administrator,
		})
	}

	result := make([]model.ParkingInfo, 0, len(parkings))
	for _, p := range parkings {
		result = append(result, model.ParkingInfo{
			ParkingID:        p.ParkingID,
			ParkingAlias:     p.ParkingAlias,
			Complex:          p.Complex,
			ParkingSensors:   p.TotalSensors,
			InstallationDate: p.InstallationDate,
			MaintenanceDate:  p.MaintenanceDate,
			Floors:           floorsByParking[p.ParkingID],
			AuthorizedUsers:  grantsByParking[p.ParkingID],
			RequestingAdmin:  requesterAdmin,
		})
	}
	return result, nil
}

type DateRow struct {
	AvailableDate time.Time `gorm:"column:available_date"`
	Year          int       `gorm:"column:year"`
	Month         int       `gorm:"column:month"`
	Day           int       `gorm:"column:day"`
}

// AvailableDates lists the distinct calendar dates with measurements
// inside the user's grants, newest first. Filters narrow but never
// widen the permission scope.
func (r *MetadataRepository) AvailableDates(ctx context.Context, q model.DateQuery) ([]DateRow, error) {
	query := r.db.WithContext(ctx).
		Table("measurements m").
		Select(`DISTINCT DATE(m.timestamp) AS available_date,
			EXTRACT(YEAR FROM m.timestamp) AS year,
			EXTRACT(MONTH FROM m.timestamp) AS month,
			EXTRACT(DAY FROM m.timestamp) AS day`).
		Joins("JOIN sensor_info s ON s.sensor_id = m.sensor_id").
		Joins("JOIN permissions p ON p.parking_id = s.parking_id").
		Where("p.user_id = ?", q.UserID)

	if len(q.ParkingIDs) > 0 {
		query = query.Where("s.parking_id IN ?", q.ParkingIDs)
	}
	if len(q.Floors) > 0 {
		query = query.Where("s.floor IN ?", q.Floors)
	}
	if len(q.SensorIDs) > 0 {
		query = query.Where("s.sensor_id IN ?", q.SensorIDs)
	}

	var rows []DateRow
	err := query.Order("available_date DESC").Scan(&rows).Error
	return rows, err
}

// SensorStats computes true per-sensor occupation over a date window by
// pairing each measurement with its predecessor (LAG) and attributing
// the elapsed gap to the predecessor's state. The window's first event
// has no predecessor and contributes nothing.
func (r *MetadataRepository) SensorStats(ctx context.Context, q model.SensorStatsQuery) ([]model.SensorStats, error) {
	dateCond := "DATE(m.timestamp) = ?"
	dateArgs := []interface{}{q.ExactDate}
	if q.UseRange {
		dateCond = "m.timestamp BETWEEN ?::date AND ?::date"
		dateArgs = []interface{}{q.StartDate, q.EndDate}
	}

	sql := `
		SELECT
			t.sensor_id,
			si.sensor_alias,
			p.parking_alias,
			si.floor,
			l.floor_alias,
			SUM(CASE WHEN t.prev_state THEN EXTRACT(EPOCH FROM (t.timestamp - t.prev_timestamp)) ELSE 0 END) AS occupied_seconds,
			SUM(EXTRACT(EPOCH FROM (t.timestamp - t.prev_timestamp))) AS total_seconds,
			SUM(CASE WHEN NOT t.prev_state AND t.current_state THEN 1 ELSE 0 END) AS arrivals
		FROM (
			SELECT
				m.sensor_id,
				m.timestamp,
				m.state AS current_state,
				LAG(m.timestamp) OVER (PARTITION BY m.sensor_id ORDER BY m.timestamp) AS prev_timestamp,
				LAG(m.state) OVER (PARTITION BY m.sensor_id ORDER BY m.timestamp) AS prev_state
			FROM measurements m
			JOIN sensor_info si ON si.sensor_id = m.sensor_id
			WHERE si.parking_id = ? AND ` + dateCond + `
		) t
		JOIN sensor_info si ON si.sensor_id = t.sensor_id
		JOIN parking p ON p.parking_id = si.parking_id
		LEFT JOIN levels l ON l.parking_id = si.parking_id AND l.floor = si.floor
		WHERE t.prev_timestamp IS NOT NULL
		GROUP BY t.sensor_id, si.sensor_alias, p.parking_alias, si.floor, l.floor_alias
		ORDER BY t.sensor_id`

	args := append([]interface{}{q.ParkingID}, dateArgs...)

	type statsRow struct {
		SensorID        uuid.UUID `gorm:"column:sensor_id"`
		SensorAlias     string    `gorm:"column:sensor_alias"`
		ParkingAlias    string    `gorm:"column:parking_alias"`
		Floor           int       `gorm:"column:floor"`
		FloorAlias      *string   `gorm:"column:floor_alias"`
		OccupiedSeconds float64   `gorm:"column:occupied_seconds"`
		TotalSeconds    float64   `gorm:"column:total_seconds"`
		Arrivals        int64     `gorm:"column:arrivals"`
	}
	var rows []statsRow
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	result := make([]model.SensorStats, 0, len(rows))
	for _, row := range rows {
		stats := model.SensorStats{
			SensorID:        row.SensorID,
			SensorAlias:     row.SensorAlias,
			ParkingAlias:    row.ParkingAlias,
			Floor:           row.Floor,
			FloorAlias:      row.FloorAlias,
			OccupiedSeconds: row.OccupiedSeconds,
			TotalSeconds:    row.TotalSeconds,
		}
		if row.TotalSeconds > 0 {
			stats.OccupationPercentage = round2(row.OccupiedSeconds / row.TotalSeconds * 100)
			stats.NormalizedRotation = round4(float64(row.Arrivals) / row.TotalSeconds)
		}
		result = append(result, stats)
	}
	return result, nil
}

// OvernightVehicles finds sensors still occupied past their parking's
// closing time for the day the vehicle arrived. Closing times are a
// day-of-week vector on the parking; Postgres arrays are 1-based, DOW
// is 0-based.
func (r *MetadataRepository) OvernightVehicles(ctx context.Context, userID string) ([]model.OvernightVehicle, error) {
	sql := `
		WITH latest AS (
			SELECT DISTINCT ON (sensor_id)
				sensor_id,
				timestamp AS last_status_time,
				state
			FROM measurements
			ORDER BY sensor_id, timestamp DESC
		),
		entries AS (
			SELECT DISTINCT ON (m.sensor_id)
				m.sensor_id,
				m.timestamp AS entry_time
			FROM measurements m
			JOIN latest l ON l.sensor_id = m.sensor_id
			WHERE m.state = TRUE AND m.timestamp <= l.last_status_time
			ORDER BY m.sensor_id, m.timestamp DESC
		),
		enriched AS (
			SELECT
				e.sensor_id,
				s.sensor_alias,
				p.parking_alias,
				s.parking_id,
				e.entry_time,
				l.last_status_time,
				p.horario_cierre,
				CURRENT_TIMESTAMP AT TIME ZONE p.timezone AS local_timestamp,
				AGE(CURRENT_TIMESTAMP AT TIME ZONE p.timezone, e.entry_time) AS duration_parked
			FROM entries e
			JOIN latest l ON l.sensor_id = e.sensor_id
			JOIN sensor_info s ON s.sensor_id = e.sensor_id
			JOIN parking p ON p.parking_id = s.parking_id
			JOIN permissions perm ON perm.parking_id = p.parking_id
			WHERE perm.user_id = ? AND l.state = TRUE
		)
		SELECT
			sensor_id,
			parking_id,
			sensor_alias,
			parking_alias,
			entry_time,
			last_status_time,
			duration_parked::text AS duration_parked,
			(horario_cierre[EXTRACT(DOW FROM entry_time)::INT + 1])::text AS closing_on_arrival
		FROM enriched
		WHERE horario_cierre IS NOT NULL
		AND local_timestamp > (entry_time::date + horario_cierre[EXTRACT(DOW FROM entry_time)::INT + 1])::timestamp`

	var rows []model.OvernightVehicle
	err := r.db.WithContext(ctx).Raw(sql, userID).Scan(&rows).Error
	return rows, err
}
