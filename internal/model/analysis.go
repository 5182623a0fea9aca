package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// AnalysisRequest carries the raw query parameters of one analytics
// request. Filter strings stay unparsed here so the response can echo
// them back exactly as received; the service parses and validates.
type AnalysisRequest struct {
	UserID          string
	LocationSetting LocationScope
	TimeSetting     TimeScope
	ParkingIDs      string
	Floors          string
	SensorIDs       string
	Year            string
	Month           string
	Day             string
}

// Filtered reports whether any filter on the chosen spatial dimension
// was supplied. Unfiltered requests get the scope's default cap.
func (r AnalysisRequest) Filtered() bool {
	switch r.LocationSetting {
	case ScopeParking:
		return r.ParkingIDs != ""
	case ScopeFloor:
		return r.ParkingIDs != "" || r.Floors != ""
	case ScopeSensor:
		return r.SensorIDs != ""
	}
	return false
}

// AnalysisGroup is one grouped row out of the aggregation query: a
// (time bucket, location) pair with its raw counts. The duration
// strategy additionally fills the *Seconds fields and StateChanges;
// the distribution strategy leaves them zero.
type AnalysisGroup struct {
	TimePeriod            int       `gorm:"column:time_period"`
	ParkingID             uuid.UUID `gorm:"column:parking_id"`
	ParkingAlias          string    `gorm:"column:parking_alias"`
	Floor                 int       `gorm:"column:floor"`
	FloorAlias            string    `gorm:"column:floor_alias"`
	SensorID              uuid.UUID `gorm:"column:sensor_id"`
	SensorAlias           string    `gorm:"column:sensor_alias"`
	TotalMeasurements     int64     `gorm:"column:total_measurements"`
	OccupiedMeasurements  int64     `gorm:"column:occupied_measurements"`
	AvailableMeasurements int64     `gorm:"column:available_measurements"`
	UniqueSensors         int64     `gorm:"column:unique_sensors"`
	OccupiedSeconds       float64   `gorm:"column:occupied_seconds"`
	AvailableSeconds      float64   `gorm:"column:available_seconds"`
	StateChanges          int64     `gorm:"column:state_changes"`
	PeriodStart           time.Time `gorm:"column:period_start"`
	PeriodEnd             time.Time `gorm:"column:period_end"`
}

// LocationKey identifies the location group independently of the time
// bucket, for counting distinct locations in the rollup.
func (g AnalysisGroup) LocationKey(scope LocationScope) string {
	switch scope {
	case ScopeFloor:
		return g.ParkingID.String() + "-" + strconv.Itoa(g.Floor)
	case ScopeSensor:
		return g.SensorID.String()
	default:
		return g.ParkingID.String()
	}
}

// AnalysisLocation is the discriminated location payload attached to
// each analysis line. Type is "parking", "floor" or "sensor"; the finer
// types carry their parent context for display.
type AnalysisLocation struct {
	Type        string     `json:"type"`
	ParkingID   uuid.UUID  `json:"parking_id"`
	ParkingName string     `json:"parking_name"`
	FloorNumber *int       `json:"floor_number,omitempty"`
	FloorName   *string    `json:"floor_name,omitempty"`
	SensorID    *uuid.UUID `json:"sensor_id,omitempty"`
	SensorName  *string    `json:"sensor_name,omitempty"`
	DisplayName string     `json:"display_name"`
}

type AnalysisMetrics struct {
	OccupancyPercentage    float64   `json:"occupancy_percentage"`
	AvailabilityPercentage float64   `json:"availability_percentage"`
	OccupiedHours          float64   `json:"occupied_hours"`
	AvailableHours         float64   `json:"available_hours"`
	TotalHours             float64   `json:"total_hours"`
	StateChanges           int64     `json:"state_changes"`
	UniqueSensors          int64     `json:"unique_sensors"`
	ActivityRate           float64   `json:"activity_rate"`
	TotalMeasurements      int64     `json:"total_measurements"`
	PeriodStart            time.Time `json:"period_start"`
	PeriodEnd              time.Time `json:"period_end"`
}

type AnalysisLine struct {
	TimePeriod int              `json:"time_period"`
	Location   AnalysisLocation `json:"location"`
	Metrics    AnalysisMetrics  `json:"metrics"`
}

// OverallStatistics is the scope-wide rollup. AverageOccupancyPercentage
// is weighted by measurement volume, never an unweighted mean of the
// per-line percentages. TotalUniqueSensors is the max of per-line
// distinct counts, an approximation of coverage rather than a true
// global distinct.
type OverallStatistics struct {
	TotalMeasurements             int64   `json:"total_measurements"`
	TotalOccupiedMeasurements     int64   `json:"total_occupied_measurements"`
	TotalAvailableMeasurements    int64   `json:"total_available_measurements"`
	AverageOccupancyPercentage    float64 `json:"average_occupancy_percentage"`
	AverageAvailabilityPercentage float64 `json:"average_availability_percentage"`
	TotalUniqueSensors            int64   `json:"total_unique_sensors"`
	TotalLocationsAnalyzed        int     `json:"total_locations_analyzed"`
	QueryExecutionTimeMs          int64   `json:"query_execution_time_ms"`
}

type AnalysisFilters struct {
	ParkingIDs *string `json:"parking_ids"`
	Floors     *string `json:"floors"`
	SensorIDs  *string `json:"sensor_ids"`
	Year       *string `json:"year"`
	Month      *string `json:"month"`
	Day        *string `json:"day"`
}

type AnalysisParameters struct {
	UserID          string          `json:"user_id"`
	LocationSetting LocationScope   `json:"location_setting"`
	TimeSetting     TimeScope       `json:"time_setting"`
	Filters         AnalysisFilters `json:"filters"`
}

type AnalysisMetadata struct {
	LocationsAnalyzed      int    `json:"locations_analyzed"`
	TimePeriodsPerLocation int    `json:"time_periods_per_location"`
	AnalysisScope          string `json:"analysis_scope"`
	FilterApplied          bool   `json:"filter_applied"`
	ExecutionTimeMs        int64  `json:"execution_time_ms"`
}

type AnalysisResponse struct {
	Parameters        AnalysisParameters `json:"parameters"`
	OverallStatistics OverallStatistics  `json:"overall_statistics"`
	LocationAnalysis  []AnalysisLine     `json:"location_analysis"`
	TotalRecords      int                `json:"total_records"`
	AnalysisType      string             `json:"analysis_type"`
	TimeUnit          string             `json:"time_unit"`
	Metadata          AnalysisMetadata   `json:"metadata"`
}
