package domain

import "strings"

// SortKey selects the column an interactive view orders by.
type SortKey string

const (
	SortCreated   SortKey = "created"
	SortUser      SortKey = "user"
	SortAvgPower  SortKey = "avg_power_w"
	SortPeakPower SortKey = "peak_power_w"
	SortEnergy    SortKey = "energy_wh"
	SortCores     SortKey = "cores"
	SortThreads   SortKey = "threads"
)

// SortDir is the sort direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSortKey maps a request value onto a SortKey, defaulting to
// chronological order for anything unrecognized.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortUser:
		return SortUser
	case SortAvgPower:
		return SortAvgPower
	case SortPeakPower:
		return SortPeakPower
	case SortEnergy:
		return SortEnergy
	case SortCores:
		return SortCores
	case SortThreads:
		return SortThreads
	default:
		return SortCreated
	}
}

// ParseSortDir maps a request value onto a SortDir, defaulting to
// descending (newest or largest first).
func ParseSortDir(s string) SortDir {
	if SortDir(strings.ToLower(strings.TrimSpace(s))) == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// QueryParams is one interactive query against the current collection.
// GroupByDate is meaningful only when sorting chronologically; date
// grouping of any other order would be visually meaningless.
type QueryParams struct {
	CPUFilter  string  `json:"cpu_filter"`
	UserFilter string  `json:"user_filter"`
	SortKey    SortKey `json:"sort_key"`
	SortDir    SortDir `json:"sort_dir"`
}

// GroupByDate reports whether the result should be partitioned by
// calendar day.
func (p QueryParams) GroupByDate() bool { return p.SortKey == SortCreated }

// Range is a [min, max] pair over a metric; nil bounds mean no row in the
// view carried the metric.
type Range struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Stats aggregates the filtered, sorted view (not the full collection).
type Stats struct {
	Users    int   `json:"users"`
	CPUs     int   `json:"cpus"`
	Nodes    int   `json:"nodes"`
	AvgPower Range `json:"avg_power_w"`
	Peak     Range `json:"peak_power_w"`
	Energy   Range `json:"energy_wh"`
}

// Group is one calendar day of the grouped view. Date is "2006-01-02" or
// UnknownDate for rows without a creation timestamp.
type Group struct {
	Date string `json:"date"`
	Rows []Run  `json:"rows"`
}

// UnknownDate labels the group of rows with no parseable creation date.
const UnknownDate = "Unknown date"

// Result is the produced view: the flat ordered rows, the optional
// date-grouped partition of the same rows, and aggregate statistics.
type Result struct {
	Rows   []Run   `json:"rows"`
	Groups []Group `json:"groups,omitempty"`
	Stats  Stats   `json:"stats"`
}
