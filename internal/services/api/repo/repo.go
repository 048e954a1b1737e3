// Package repo provides the read API repository implementation
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesdw/internal/modkit/repokit"
	perr "salesdw/internal/platform/errors"
	"salesdw/internal/platform/store"
	"salesdw/internal/services/api/domain"
)

type pg struct{ q repokit.Queryer }

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] {
	return repokit.BindFunc[Storage](func(q repokit.Queryer) Storage { return &pg{q: q} })
}

// Storage defines the read API repository
type Storage interface {
	Sales(ctx context.Context, f domain.SalesFilter) ([]domain.SalesRow, error)
	LatestRun(ctx context.Context) (domain.RunInfo, error)
}

const defaultLimit = 500

// Sales runs the single flattening query, fact joined to all four
// dimensions, with optional filters
func (s *pg) Sales(ctx context.Context, f domain.SalesFilter) ([]domain.SalesRow, error) {
	var sb strings.Builder
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	sb.WriteString(`
		SELECT
			f.order_id,
			d.order_date, d.order_year, d.order_month,
			c.region, c.country,
			i.item_type,
			ch.sales_channel,
			f.units_sold, f.unit_price, f.unit_cost,
			f.total_revenue, f.total_cost, f.total_profit,
			f.profit_per_unit, f.revenue_per_unit, f.profit_margin_ratio,
			f.shipping_days
		FROM fact_sales f
		LEFT JOIN dim_date d ON f.date_id = d.date_id
		LEFT JOIN dim_country c ON f.country_id = c.country_id
		LEFT JOIN dim_item i ON f.item_id = i.item_id
		LEFT JOIN dim_channel ch ON f.channel_id = ch.channel_id
		WHERE 1=1
	`)

	if f.Year != 0 {
		sb.WriteString("  AND d.order_year = " + arg(f.Year) + "\n")
	}
	if f.Region != "" {
		sb.WriteString("  AND c.region = " + arg(f.Region) + "\n")
	}
	if f.Country != "" {
		sb.WriteString("  AND c.country = " + arg(f.Country) + "\n")
	}
	if f.ItemType != "" {
		sb.WriteString("  AND i.item_type = " + arg(f.ItemType) + "\n")
	}
	if f.SalesChannel != "" {
		sb.WriteString("  AND ch.sales_channel = " + arg(f.SalesChannel) + "\n")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	sb.WriteString("ORDER BY f.sales_id\nLIMIT " + arg(limit))

	rows, err := store.Many(ctx, s.q, scanSalesRow, sb.String(), args...)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list sales")
	}
	return rows, nil
}

// LatestRun returns the most recent pipeline audit row; a warehouse that
// was never loaded yields a not-found error
func (s *pg) LatestRun(ctx context.Context) (domain.RunInfo, error) {
	run, err := store.One(ctx, s.q, scanRunInfo, `
		SELECT run_id, started_at, finished_at, source_rows, rows_dropped, fact_rows, status
		FROM etl_runs
		ORDER BY started_at DESC
		LIMIT 1`)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return run, err
		}
		return run, perr.FromPostgresf(err, "latest run")
	}
	return run, nil
}

func scanRunInfo(r store.Row) (domain.RunInfo, error) {
	var x domain.RunInfo
	err := r.Scan(&x.RunID, &x.StartedAt, &x.FinishedAt, &x.SourceRows, &x.RowsDropped, &x.FactRows, &x.Status)
	return x, err
}

func scanSalesRow(r store.Row) (domain.SalesRow, error) {
	var x domain.SalesRow
	var orderDate *time.Time
	err := r.Scan(
		&x.OrderID,
		&orderDate, &x.OrderYear, &x.OrderMonth,
		&x.Region, &x.Country,
		&x.ItemType,
		&x.SalesChannel,
		&x.UnitsSold, &x.UnitPrice, &x.UnitCost,
		&x.TotalRevenue, &x.TotalCost, &x.TotalProfit,
		&x.ProfitPerUnit, &x.RevenuePerUnit, &x.ProfitMarginRatio,
		&x.ShippingDays,
	)
	if err != nil {
		return x, err
	}
	if orderDate != nil {
		s := orderDate.Format("2006-01-02")
		x.OrderDate = &s
	}
	return x, nil
}
