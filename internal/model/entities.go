package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Client is the tenant root. The no_* counters are denormalized and
// maintained incrementally by the write path; the read path trusts them.
type Client struct {
	ClientID    uuid.UUID `gorm:"column:client_id;primaryKey" json:"client_id"`
	ClientAlias string    `gorm:"column:client_alias" json:"client_alias"`
	NoUsers     int       `gorm:"column:no_users" json:"no_users"`
	NoComplexes int       `gorm:"column:no_complexes" json:"no_complexes"`
	NoParkings  int       `gorm:"column:no_parkings" json:"no_parkings"`
	NoFloors    int       `gorm:"column:no_floors" json:"no_floors"`
	NoSensors   int       `gorm:"column:no_sensors" json:"no_sensors"`
}

func (Client) TableName() string { return "clients" }

// Parking belongs to one client. complex is a grouping label unique per
// (client, name), not an entity of its own. ClosingTimes is indexed by
// day-of-week (0 = Sunday) and drives the overnight analysis.
type Parking struct {
	ParkingID        uuid.UUID      `gorm:"column:parking_id;primaryKey" json:"parking_id"`
	ClientID         uuid.UUID      `gorm:"column:client_id" json:"client_id"`
	Complex          string         `gorm:"column:complex" json:"complex"`
	ParkingAlias     string         `gorm:"column:parking_alias" json:"parking_alias"`
	InstallationDate *time.Time     `gorm:"column:installation_date" json:"installation_date,omitempty"`
	MaintenanceDate  *time.Time     `gorm:"column:maintenance_date" json:"maintenance_date,omitempty"`
	Timezone         string         `gorm:"column:timezone" json:"timezone"`
	ClosingTimes     pq.StringArray `gorm:"column:horario_cierre;type:time[]" json:"horario_cierre,omitempty"`
}

func (Parking) TableName() string { return "parking" }

// Level is keyed by (parking_id, floor). StageInfo and LayoutInfo are
// opaque rendering blobs consumed by the frontend.
type Level struct {
	ParkingID  uuid.UUID `gorm:"column:parking_id;primaryKey" json:"parking_id"`
	Floor      int       `gorm:"column:floor;primaryKey" json:"floor"`
	FloorAlias *string   `gorm:"column:floor_alias" json:"floor_alias,omitempty"`
	StageInfo  []byte    `gorm:"column:stage_info;type:jsonb" json:"stage_info,omitempty"`
	LayoutInfo []byte    `gorm:"column:layout_info;type:jsonb" json:"layout_info,omitempty"`
}

func (Level) TableName() string { return "levels" }

type Sensor struct {
	SensorID        uuid.UUID `gorm:"column:sensor_id;primaryKey" json:"sensor_id"`
	ParkingID       uuid.UUID `gorm:"column:parking_id" json:"parking_id"`
	Floor           int       `gorm:"column:floor" json:"floor"`
	SensorAlias     string    `gorm:"column:sensor_alias" json:"sensor_alias"`
	KonvaID         *string   `gorm:"column:konva_id" json:"konva_id,omitempty"`
	Type            string    `gorm:"column:type" json:"type"`
	CurrentState    bool      `gorm:"column:current_state" json:"current_state"`
	LowBattery      bool      `gorm:"column:low_battery" json:"low_battery"`
	ConnectionError bool      `gorm:"column:connection_error" json:"connection_error"`
	ErrorFlag       bool      `gorm:"column:error" json:"error"`
}

func (Sensor) TableName() string { return "sensor_info" }

// Measurement is an append-only state report. PreviousStateTime records
// how long the sensor held its prior state before Timestamp, not how
// long it holds the new one.
type Measurement struct {
	ID                int64     `gorm:"column:id;autoIncrement;primaryKey" json:"id"`
	SensorID          uuid.UUID `gorm:"column:sensor_id" json:"sensor_id"`
	Timestamp         time.Time `gorm:"column:timestamp" json:"timestamp"`
	State             bool      `gorm:"column:state" json:"state"`
	PreviousStateTime string    `gorm:"column:previous_state_time;type:interval" json:"previous_state_time"`
}

func (Measurement) TableName() string { return "measurements" }

// Permission grants a user read access to every level and sensor under
// a parking. No finer grant exists.
type Permission struct {
	UserID    uuid.UUID `gorm:"column:user_id;primaryKey" json:"user_id"`
	ParkingID uuid.UUID `gorm:"column:parking_id;primaryKey" json:"parking_id"`
}

func (Permission) TableName() string { return "permissions" }

type User struct {
	UserID        uuid.UUID `gorm:"column:user_id;primaryKey" json:"user_id"`
	ClientID      uuid.UUID `gorm:"column:client_id" json:"client_id"`
	Username      string    `gorm:"column:username" json:"username"`
	Administrator bool      `gorm:"column:administrator" json:"administrator"`
}

func (User) TableName() string { return "users" }
