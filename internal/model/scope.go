package model

// LocationScope selects the spatial grouping of an analysis: one result
// line per parking, per floor, or per sensor.
type LocationScope string

const (
	ScopeParking LocationScope = "parking"
	ScopeFloor   LocationScope = "floor"
	ScopeSensor  LocationScope = "sensor"
)

func (s LocationScope) Valid() bool {
	switch s {
	case ScopeParking, ScopeFloor, ScopeSensor:
		return true
	}
	return false
}

// DefaultLimit caps the grouped result set when the request carries no
// filter on this scope's dimension. A safety valve, not pagination:
// callers that need the full set must filter explicitly.
func (s LocationScope) DefaultLimit() int {
	switch s {
	case ScopeParking:
		return 20
	case ScopeFloor:
		return 100
	case ScopeSensor:
		return 50
	}
	return 0
}

// TimeScope selects the temporal bucketing of an analysis.
type TimeScope string

const (
	TimeDay   TimeScope = "day"
	TimeMonth TimeScope = "month"
	TimeYear  TimeScope = "year"
)

func (t TimeScope) Valid() bool {
	switch t {
	case TimeDay, TimeMonth, TimeYear:
		return true
	}
	return false
}

// Unit is the label of the buckets produced under this scope: a day is
// bucketed by hour, a month by day-of-month, a year by month.
func (t TimeScope) Unit() string {
	switch t {
	case TimeDay:
		return "hour"
	case TimeMonth:
		return "day"
	default:
		return "month"
	}
}

// Strategy names the statistical model used by the occupancy aggregator.
// The two models are not equivalent: distribution counts measurement rows,
// duration reconstructs elapsed state time from consecutive events. A
// deployment runs exactly one of them, chosen at startup.
type Strategy string

const (
	StrategyDistribution Strategy = "distribution"
	StrategyDuration     Strategy = "duration"
)

func (s Strategy) Valid() bool {
	return s == StrategyDistribution || s == StrategyDuration
}
