package domain

import (
	"context"

	"salesdw/internal/platform/tabular"
)

// TransformerPort runs the full normalize, standardize, enrich, check
// sequence over the merged sources. The table is returned even when the
// report flags problems; the caller decides what to do with it
type TransformerPort interface {
	Run(ctx context.Context, sources ...*tabular.Table) (*tabular.Table, *Report, error)
}
