// Package service contains the read API workflows
package service

import (
	"context"

	"salesdw/internal/modkit/repokit"
	"salesdw/internal/platform/validate"
	"salesdw/internal/services/api/domain"
	"salesdw/internal/services/api/repo"
	whdomain "salesdw/internal/services/warehouse/domain"
)

// Service is the public read API port
type Service interface{ domain.ServicePort }

// Svc implements the service port
type Svc struct {
	repo      repo.Storage
	analytics whdomain.AnalyticsPort
}

// New constructs the service; a nil querier panics via the binder guard
func New(db repokit.TxRunner, binder repokit.Binder[repo.Storage], analytics whdomain.AnalyticsPort) *Svc {
	if analytics == nil {
		panic("api.Service requires a non nil AnalyticsPort")
	}
	return &Svc{repo: repokit.MustBind(binder, db), analytics: analytics}
}

// Sales lists flattened fact rows with optional filters
func (s *Svc) Sales(ctx context.Context, f domain.SalesFilter) ([]domain.SalesRow, error) {
	if err := validate.Struct(f); err != nil {
		return nil, err
	}
	return s.repo.Sales(ctx, f)
}

// LatestRun returns the most recent pipeline audit row
func (s *Svc) LatestRun(ctx context.Context) (domain.RunInfo, error) {
	return s.repo.LatestRun(ctx)
}

// Analytics returns the warehouse verification aggregates
func (s *Svc) Analytics(ctx context.Context) ([]whdomain.AnalyticsResult, error) {
	return s.analytics.Analytics(ctx)
}
