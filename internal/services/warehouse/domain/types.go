// Package domain holds warehouse types and ports
package domain

import (
	"time"
)

// LoadState tracks the loader's progress through a full refresh
type LoadState uint8

const (
	// StateUninitialized is the zero state before any work
	StateUninitialized LoadState = iota
	// StateSchemaEnsured means the star schema tables exist
	StateSchemaEnsured
	// StateReset means fact and dimension tables were emptied
	StateReset
	// StateDimensionsLoaded means all dimension tables are populated
	StateDimensionsLoaded
	// StateFactLoaded means fact_sales is populated
	StateFactLoaded
	// StateComplete means the verification battery ran
	StateComplete
)

// String names the state for logs
func (s LoadState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSchemaEnsured:
		return "schema_ensured"
	case StateReset:
		return "reset"
	case StateDimensionsLoaded:
		return "dimensions_loaded"
	case StateFactLoaded:
		return "fact_loaded"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Config drives loader behavior
type Config struct {
	// BatchSize caps the rows per multi-row fact insert
	BatchSize int `json:"batch_size" validate:"required,min=1"`

	// Reset empties the star schema before loading (full refresh)
	Reset bool `json:"reset"`
}

// DefaultConfig returns the loader defaults
func DefaultConfig() Config {
	return Config{BatchSize: 500, Reset: true}
}

// DateDim is one distinct order-date tuple destined for dim_date
type DateDim struct {
	OrderDate time.Time
	Year      int
	Month     int
}

// CountryDim is one distinct (region, country) tuple destined for dim_country
type CountryDim struct {
	Region  string
	Country string
}

// LoadResult summarizes a completed load
type LoadResult struct {
	State LoadState

	DimDates     int
	DimCountries int
	DimItems     int
	DimChannels  int
	FactRows     int

	// UnmatchedDimRefs counts fact rows that resolved at least one null
	// surrogate key (loaded anyway)
	UnmatchedDimRefs int
}

// RunRecord is the durable audit row for one pipeline run
type RunRecord struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	SourceRows  int
	RowsDropped int
	FactRows    int
	Status      string
}

// AnalyticsResult is one verification query's rows, shape varies per query
type AnalyticsResult struct {
	Name string           `json:"name"`
	Rows []map[string]any `json:"rows"`
}
