package model

import (
	"time"

	"github.com/google/uuid"
)

// ParkingLevels is the nested parking -> levels listing returned by
// the levels endpoint.
type ParkingLevels struct {
	ParkingID    uuid.UUID      `json:"parking_id"`
	Complex      string         `json:"complex"`
	ParkingAlias string         `json:"parking_alias"`
	Levels       []LevelSummary `json:"levels"`
}

type LevelSummary struct {
	Floor      int     `json:"floor"`
	FloorAlias *string `json:"floor_alias"`
}

type SensorSummary struct {
	SensorID     uuid.UUID `json:"sensor_id"`
	SensorAlias  string    `json:"sensor_alias"`
	ParkingID    uuid.UUID `json:"parking_id"`
	Floor        int       `json:"floor"`
	CurrentState bool      `json:"current_state"`
	ParkingAlias string    `json:"parking_alias"`
	Complex      string    `json:"complex"`
}

// MapSensor is the per-sensor layout state used by the floor map view.
type MapSensor struct {
	SensorID     uuid.UUID `json:"sensor_id"`
	SensorAlias  string    `json:"sensor_alias"`
	KonvaID      *string   `json:"konva_id"`
	Type         string    `json:"type"`
	CurrentState bool      `json:"current_state"`
}

// LevelLayout carries the opaque rendering blobs of one floor.
type LevelLayout struct {
	StageInfo  []byte `json:"stage_info"`
	LayoutInfo []byte `json:"layout_info"`
}

type UserSummary struct {
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Administrator bool      `json:"administrator"`
}

type FloorBreakdown struct {
	Floor          int     `json:"floor"`
	FloorAlias     *string `json:"floor_alias"`
	SensorsOnFloor int64   `json:"sensors_on_floor"`
}

// ParkingInfo is the per-parking summary for one user: totals, floor
// breakdown and everyone else holding a grant on the same parking.
type ParkingInfo struct {
	ParkingID        uuid.UUID        `json:"parking_id"`
	ParkingAlias     string           `json:"parking_alias"`
	Complex          string           `json:"complex"`
	ParkingSensors   int64            `json:"parking_sensors"`
	InstallationDate *time.Time       `json:"installation_date"`
	MaintenanceDate  *time.Time       `json:"maintenance_date"`
	Floors           []FloorBreakdown `json:"floors"`
	AuthorizedUsers  []UserSummary    `json:"authorized_users"`
	RequestingAdmin  bool             `json:"is_requesting_user_admin"`
}

// AvailableDates lists the calendar dates for which measurements exist
// within a user's grants, grouped for date-picker consumption.
type AvailableDates struct {
	AvailableDates []string                  `json:"available_dates"`
	GroupedByYear  map[int]map[int][]DateRef `json:"grouped_by_year_month"`
	TotalDates     int                       `json:"total_dates"`
}

type DateRef struct {
	Date string `json:"date"`
	Day  int    `json:"day"`
}

// SensorStats is one sensor's duration-reconstructed statistics over a
// date window: true elapsed occupied time against total observed time,
// plus a rotation rate normalized by observed seconds (typically well
// below 1, hence 4 decimal places).
type SensorStats struct {
	SensorID             uuid.UUID `json:"sensor_id"`
	SensorAlias          string    `json:"sensor_alias"`
	ParkingAlias         string    `json:"parking_alias"`
	Floor                int       `json:"floor"`
	FloorAlias           *string   `json:"floor_alias"`
	OccupiedSeconds      float64   `json:"occupied_seconds"`
	TotalSeconds         float64   `json:"total_seconds"`
	OccupationPercentage float64   `json:"occupation_percentage"`
	NormalizedRotation   float64   `json:"normalized_rotation"`
}

// OvernightVehicle is a sensor still occupied past its parking's
// closing time for the day the vehicle arrived.
type OvernightVehicle struct {
	SensorID         uuid.UUID `json:"sensor_id"`
	ParkingID        uuid.UUID `json:"parking_id"`
	SensorAlias      string    `json:"sensor_alias"`
	ParkingAlias     string    `json:"parking_alias"`
	EntryTime        time.Time `json:"entry_time"`
	LastStatusTime   time.Time `json:"last_status_time"`
	DurationParked   string    `json:"duration_parked"`
	ClosingOnArrival string    `json:"closing_time_on_arrival"`
}

// StatusReport is the measurement-ingestion payload. PreviousStateTime
// is a Postgres interval literal describing how long the sensor held
// its prior state before this report.
type StatusReport struct {
	SensorID          uuid.UUID `json:"sensor_id" binding:"required"`
	Timestamp         time.Time `json:"timestamp" binding:"required"`
	State             *bool     `json:"state" binding:"required"`
	PreviousStateTime string    `json:"previous_state_time" binding:"required"`
}

// StatusEvent is the payload broadcast to live subscribers when a new
// measurement lands.
type StatusEvent struct {
	SensorID  uuid.UUID `json:"sensor_id"`
	ParkingID uuid.UUID `json:"parking_id"`
	Floor     int       `json:"floor"`
	State     bool      `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}
