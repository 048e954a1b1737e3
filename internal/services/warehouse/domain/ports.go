package domain

import (
	"context"

	"salesdw/internal/platform/tabular"
)

// LoaderPort loads one transformed table into the star schema.
// Reset, dimension load, and fact load run in a single transaction;
// the verification battery runs after commit
type LoaderPort interface {
	Load(ctx context.Context, t *tabular.Table, run RunRecord) (LoadResult, error)
	State() LoadState
}

// AnalyticsPort runs the read-only verification battery
type AnalyticsPort interface {
	Analytics(ctx context.Context) ([]AnalyticsResult, error)
}
