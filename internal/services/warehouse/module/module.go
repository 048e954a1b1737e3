// Package module wires the warehouse service from shared deps
package module

import (
	"salesdw/internal/modkit"
	"salesdw/internal/platform/config"
	"salesdw/internal/services/warehouse/domain"
	"salesdw/internal/services/warehouse/repo"
	"salesdw/internal/services/warehouse/service"
)

// Module exposes the warehouse ports
type Module struct {
	svc service.Service
}

// Ports exposed by the warehouse module
type Ports struct {
	Loader    domain.LoaderPort
	Analytics domain.AnalyticsPort
}

// FromConfig builds the loader config from env
func FromConfig(cfg config.Conf) domain.Config {
	v := cfg.Prefix("WAREHOUSE_")
	out := domain.DefaultConfig()
	out.BatchSize = v.MayInt("BATCH_SIZE", out.BatchSize)
	out.Reset = v.MayBool("RESET", out.Reset)
	return out
}

// New constructs the warehouse module
func New(deps modkit.Deps) *Module {
	svc, err := service.New(deps.PG, repo.NewPG(), FromConfig(deps.Cfg), deps.Log)
	if err != nil {
		panic(err)
	}
	return &Module{svc: svc}
}

// Ports returns the module's exposed ports
func (m *Module) Ports() Ports { return Ports{Loader: m.svc, Analytics: m.svc} }
