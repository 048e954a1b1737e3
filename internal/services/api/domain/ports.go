package domain

import (
	"context"

	whdomain "salesdw/internal/services/warehouse/domain"
)

// ServicePort is the interface implemented by the read API service
type ServicePort interface {
	Sales(ctx context.Context, f SalesFilter) ([]SalesRow, error)
	LatestRun(ctx context.Context) (RunInfo, error)
	Analytics(ctx context.Context) ([]whdomain.AnalyticsResult, error)
}
