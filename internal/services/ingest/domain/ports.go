// Package domain holds ingest types and ports
package domain

import (
	"context"

	"salesdw/internal/platform/tabular"
)

// SourcePort reads one already-downloaded feed into a raw string table.
// Header casing is preserved; empty cells become nulls
type SourcePort interface {
	Read(ctx context.Context, path string) (*tabular.Table, error)
}
