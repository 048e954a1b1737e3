// Package module wires the ingest sources from shared deps
package module

import (
	"salesdw/internal/modkit"
	"salesdw/internal/services/ingest/domain"
	"salesdw/internal/services/ingest/service"
)

// Module exposes the ingest port
type Module struct {
	svc service.Service
}

// Ports exposed by the ingest module
type Ports struct {
	Source domain.SourcePort
}

// New constructs the ingest module
func New(deps modkit.Deps) *Module {
	return &Module{svc: service.New(deps.Log)}
}

// Ports returns the module's exposed ports
func (m *Module) Ports() Ports { return Ports{Source: m.svc} }
