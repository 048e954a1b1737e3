// Package domain holds transform types shared by service and callers
package domain

import (
	"salesdw/internal/platform/tabular"
)

// Config drives the normalization and enrichment passes.
// Column names may be given in raw header form ("Order ID"); the
// service standardizes them before use
type Config struct {
	// IDColumn is the primary key column used for deduplication
	IDColumn string `json:"id_column" validate:"required"`

	// FallbackIDColumn is tried when IDColumn is absent after the merge
	FallbackIDColumn string `json:"fallback_id_column" validate:"required"`

	// OrderDateColumn is coerced to a date; rows it cannot be parsed for are dropped
	OrderDateColumn string `json:"order_date_column" validate:"required"`

	// ShipDateColumn is coerced to a date; parse failures stay null
	ShipDateColumn string `json:"ship_date_column" validate:"required"`

	// NumericColumns are imputed with the column median and outlier-clipped
	NumericColumns []string `json:"numeric_columns" validate:"required,min=1"`

	// CategoricalColumns are trimmed and one-hot encoded unless dimensional
	CategoricalColumns []string `json:"categorical_columns" validate:"required,min=1"`

	// DimensionColumns feed the warehouse dimensions and are never encoded
	DimensionColumns []string `json:"dimension_columns" validate:"required,min=1"`

	// NormalizeColumns get a min-max scaled sibling column
	NormalizeColumns []string `json:"normalize_columns"`

	// Sentinel replaces missing string values
	Sentinel string `json:"sentinel" validate:"required"`
}

// Default returns the configuration for the global + regional sales feeds
func Default() Config {
	return Config{
		IDColumn:         "Order ID",
		FallbackIDColumn: "order_id",
		OrderDateColumn:  "Order Date",
		ShipDateColumn:   "Ship Date",
		NumericColumns: []string{
			"Units Sold", "Unit Price", "Unit Cost",
			"Total Revenue", "Total Cost", "Total Profit",
		},
		CategoricalColumns: []string{
			"Region", "Country", "Item Type", "Sales Channel", "Order Priority",
		},
		DimensionColumns: []string{
			"region", "country", "item_type", "sales_channel",
		},
		NormalizeColumns: []string{"Units Sold", "Total Revenue"},
		Sentinel:         "Unknown",
	}
}

// SkippedStep records a pipeline step that could not run
type SkippedStep struct {
	Step   string `json:"step"`
	Reason string `json:"reason"`
}

// Report is the read-only quality summary produced alongside the table.
// Findings never abort the pipeline
type Report struct {
	// PKDuplicates is counted after deduplication, so a nonzero value
	// means the dedupe step was skipped or defeated
	PKDuplicates    int                        `json:"uniqueness_pk_duplicates"`
	NullCounts      map[string]int             `json:"null_counts_per_column"`
	NegativeValues  map[string]int             `json:"range_negative_values"`
	DTypes          map[string]string          `json:"dtypes"`
	PKNulls         int                        `json:"referential_integrity_pk_null"`
	NumericDescribe map[string]tabular.Summary `json:"distribution_numeric_describe"`

	SkippedSteps            []SkippedStep `json:"skipped_steps"`
	RowsDroppedBadOrderDate int           `json:"rows_dropped_bad_order_date"`
}

// Skip appends a skipped step to the report
func (r *Report) Skip(step, reason string) {
	r.SkippedSteps = append(r.SkippedSteps, SkippedStep{Step: step, Reason: reason})
}
