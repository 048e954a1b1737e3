// Package module wires the read API service and routes
package module

import (
	"salesdw/internal/modkit"
	ahttp "salesdw/internal/services/api/http"
	"salesdw/internal/services/api/repo"
	"salesdw/internal/services/api/service"
	whdomain "salesdw/internal/services/warehouse/domain"

	phttp "salesdw/internal/platform/net/http"
)

// Module implements the read API module
type Module struct {
	svc service.Service
}

// Ports declares the injected warehouse port this module needs
type Ports struct {
	Analytics whdomain.AnalyticsPort
}

// New constructs the module
func New(deps modkit.Deps, ports Ports) *Module {
	if ports.Analytics == nil {
		panic("api module requires Analytics port (from services/warehouse)")
	}
	svc := service.New(deps.PG, repo.NewPG(), ports.Analytics)
	return &Module{svc: svc}
}

// MountRoutes mounts the module routes under /api/v1
func (m *Module) MountRoutes(r phttp.Router) {
	r.Route("/api/v1", func(rr phttp.Router) {
		ahttp.Register(rr, m.svc)
	})
}
