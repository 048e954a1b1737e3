// Package module wires the transform service from shared deps
package module

import (
	"salesdw/internal/modkit"
	"salesdw/internal/platform/config"
	"salesdw/internal/services/transform/domain"
	"salesdw/internal/services/transform/service"
)

// Module exposes the transform port
type Module struct {
	svc service.Service
}

// Ports exposed by the transform module
type Ports struct {
	Transformer domain.TransformerPort
}

// FromConfig builds the transform config from env, defaults matching the
// two sales feeds
func FromConfig(cfg config.Conf) domain.Config {
	v := cfg.Prefix("TRANSFORM_")
	out := domain.Default()
	out.IDColumn = v.MayString("ID_COLUMN", out.IDColumn)
	out.FallbackIDColumn = v.MayString("FALLBACK_ID_COLUMN", out.FallbackIDColumn)
	out.OrderDateColumn = v.MayString("ORDER_DATE_COLUMN", out.OrderDateColumn)
	out.ShipDateColumn = v.MayString("SHIP_DATE_COLUMN", out.ShipDateColumn)
	out.Sentinel = v.MayString("SENTINEL", out.Sentinel)
	if cols := v.MayCSV("NUMERIC_COLUMNS", nil); len(cols) > 0 {
		out.NumericColumns = cols
	}
	if cols := v.MayCSV("CATEGORICAL_COLUMNS", nil); len(cols) > 0 {
		out.CategoricalColumns = cols
	}
	if cols := v.MayCSV("DIMENSION_COLUMNS", nil); len(cols) > 0 {
		out.DimensionColumns = cols
	}
	if cols := v.MayCSV("NORMALIZE_COLUMNS", nil); len(cols) > 0 {
		out.NormalizeColumns = cols
	}
	return out
}

// New constructs the transform module
func New(deps modkit.Deps) *Module {
	svc, err := service.New(FromConfig(deps.Cfg), deps.Log)
	if err != nil {
		panic(err)
	}
	return &Module{svc: svc}
}

// Ports returns the module's exposed ports
func (m *Module) Ports() Ports { return Ports{Transformer: m.svc} }
