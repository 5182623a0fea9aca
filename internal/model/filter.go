package model

// AnalysisQuery is the resolved, validated form of an AnalysisRequest:
// CSV filters split and typed, temporal anchors parsed, the safety cap
// decided. Built by the service, consumed by the repository.
type AnalysisQuery struct {
	UserID     string
	Location   LocationScope
	Time       TimeScope
	ParkingIDs []string
	Floors     []int
	SensorIDs  []string
	Year       int
	Month      int
	Day        int
	Limit      int
}

// DateQuery scopes the available-dates listing.
type DateQuery struct {
	UserID     string
	ParkingIDs []string
	Floors     []int
	SensorIDs  []string
}

// SensorStatsQuery scopes the per-sensor duration statistics: one
// parking, and either an exact calendar date or an inclusive range.
type SensorStatsQuery struct {
	ParkingID string
	UseRange  bool
	StartDate string
	EndDate   string
	ExactDate string
}
