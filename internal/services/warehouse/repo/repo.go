// Package repo provides the warehouse repository implementation
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"salesdw/internal/modkit/repokit"
	perr "salesdw/internal/platform/errors"
	"salesdw/internal/platform/store"
	"salesdw/internal/services/warehouse/domain"
)

type pg struct{ q repokit.Queryer }

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] {
	return repokit.BindFunc[Storage](func(q repokit.Queryer) Storage { return &pg{q: q} })
}

// Storage defines the warehouse repository
type Storage interface {
	EnsureSchema(ctx context.Context) error
	Reset(ctx context.Context) error

	InsertDimDates(ctx context.Context, rows []domain.DateDim) error
	DateKeys(ctx context.Context) (map[string]int64, error)
	InsertDimCountries(ctx context.Context, rows []domain.CountryDim) error
	CountryKeys(ctx context.Context) (map[string]int64, error)
	InsertDimItems(ctx context.Context, itemTypes []string) error
	ItemKeys(ctx context.Context) (map[string]int64, error)
	InsertDimChannels(ctx context.Context, channels []string) error
	ChannelKeys(ctx context.Context) (map[string]int64, error)

	InsertFacts(ctx context.Context, cols []string, rows [][]any) (int, error)
	InsertRun(ctx context.Context, run domain.RunRecord) error

	Analytics(ctx context.Context) ([]domain.AnalyticsResult, error)
}

// DateKey formats an order date the way DateKeys indexes it
func DateKey(t time.Time) string { return t.Format("2006-01-02") }

// CountryKey joins region and country with a separator no feed value contains
func CountryKey(region, country string) string { return region + "\x1f" + country }

// EnsureSchema creates the star schema tables when absent
func (s *pg) EnsureSchema(ctx context.Context) error {
	for _, ddl := range schemaDDL {
		if _, err := store.Exec(ctx, s.q, ddl); err != nil {
			return perr.FromPostgresf(err, "ensure schema")
		}
	}
	return nil
}

// Reset empties fact and dimension tables, children before parents
func (s *pg) Reset(ctx context.Context) error {
	for _, dml := range resetDML {
		if _, err := store.Exec(ctx, s.q, dml); err != nil {
			return perr.FromPostgresf(err, "reset star schema")
		}
	}
	return nil
}

// InsertDimDates inserts distinct order dates, ignoring already-present keys
func (s *pg) InsertDimDates(ctx context.Context, rows []domain.DateDim) error {
	if len(rows) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO dim_date (order_date, order_year, order_month) VALUES `)
	args := make([]any, 0, len(rows)*3)
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*3 + 1
		fmt.Fprintf(&sb, "($%d,$%d,$%d)", base, base+1, base+2)
		args = append(args, r.OrderDate, r.Year, r.Month)
	}
	sb.WriteString(` ON CONFLICT (order_date) DO NOTHING`)
	_, err := store.Exec(ctx, s.q, sb.String(), args...)
	if err != nil {
		return perr.FromPostgresf(err, "insert dim_date")
	}
	return nil
}

// DateKeys returns order_date -> date_id for every loaded date
func (s *pg) DateKeys(ctx context.Context) (map[string]int64, error) {
	type row struct {
		id int64
		d  time.Time
	}
	xs, err := store.Many(ctx, s.q, func(r store.Row) (row, error) {
		var x row
		err := r.Scan(&x.id, &x.d)
		return x, err
	}, `SELECT date_id, order_date FROM dim_date`)
	if err != nil {
		return nil, perr.FromPostgresf(err, "select dim_date keys")
	}
	out := make(map[string]int64, len(xs))
	for _, x := range xs {
		out[DateKey(x.d)] = x.id
	}
	return out, nil
}

// InsertDimCountries inserts distinct (region, country) tuples
func (s *pg) InsertDimCountries(ctx context.Context, rows []domain.CountryDim) error {
	if len(rows) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO dim_country (region, country) VALUES `)
	args := make([]any, 0, len(rows)*2)
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		base := i*2 + 1
		fmt.Fprintf(&sb, "($%d,$%d)", base, base+1)
		args = append(args, r.Region, r.Country)
	}
	sb.WriteString(` ON CONFLICT (region, country) DO NOTHING`)
	_, err := store.Exec(ctx, s.q, sb.String(), args...)
	if err != nil {
		return perr.FromPostgresf(err, "insert dim_country")
	}
	return nil
}

// CountryKeys returns (region, country) -> country_id
func (s *pg) CountryKeys(ctx context.Context) (map[string]int64, error) {
	type row struct {
		id              int64
		region, country string
	}
	xs, err := store.Many(ctx, s.q, func(r store.Row) (row, error) {
		var x row
		err := r.Scan(&x.id, &x.region, &x.country)
		return x, err
	}, `SELECT country_id, region, country FROM dim_country`)
	if err != nil {
		return nil, perr.FromPostgresf(err, "select dim_country keys")
	}
	out := make(map[string]int64, len(xs))
	for _, x := range xs {
		out[CountryKey(x.region, x.country)] = x.id
	}
	return out, nil
}

// InsertDimItems inserts distinct item types
func (s *pg) InsertDimItems(ctx context.Context, itemTypes []string) error {
	return s.insertSingleCol(ctx, "dim_item", "item_type", itemTypes)
}

// ItemKeys returns item_type -> item_id
func (s *pg) ItemKeys(ctx context.Context) (map[string]int64, error) {
	return s.singleColKeys(ctx, `SELECT item_id, item_type FROM dim_item`)
}

// InsertDimChannels inserts distinct sales channels
func (s *pg) InsertDimChannels(ctx context.Context, channels []string) error {
	return s.insertSingleCol(ctx, "dim_channel", "sales_channel", channels)
}

// ChannelKeys returns sales_channel -> channel_id
func (s *pg) ChannelKeys(ctx context.Context) (map[string]int64, error) {
	return s.singleColKeys(ctx, `SELECT channel_id, sales_channel FROM dim_channel`)
}

func (s *pg) insertSingleCol(ctx context.Context, table, col string, vals []string) error {
	if len(vals) == 0 {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `INSERT INTO %s (%s) VALUES `, table, col)
	args := make([]any, 0, len(vals))
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "($%d)", i+1)
		args = append(args, v)
	}
	fmt.Fprintf(&sb, ` ON CONFLICT (%s) DO NOTHING`, col)
	_, err := store.Exec(ctx, s.q, sb.String(), args...)
	if err != nil {
		return perr.FromPostgresf(err, "insert %s", table)
	}
	return nil
}

func (s *pg) singleColKeys(ctx context.Context, sql string) (map[string]int64, error) {
	type row struct {
		id  int64
		val string
	}
	xs, err := store.Many(ctx, s.q, func(r store.Row) (row, error) {
		var x row
		err := r.Scan(&x.id, &x.val)
		return x, err
	}, sql)
	if err != nil {
		return nil, perr.FromPostgresf(err, "select dimension keys")
	}
	out := make(map[string]int64, len(xs))
	for _, x := range xs {
		out[x.val] = x.id
	}
	return out, nil
}

// InsertFacts appends rows to fact_sales. cols names the canonical fact
// columns actually present; every row must match its length
func (s *pg) InsertFacts(ctx context.Context, cols []string, rows [][]any) (int, error) {
	if len(rows) == 0 || len(cols) == 0 {
		return 0, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO fact_sales (` + strings.Join(cols, ", ") + `) VALUES `)
	args := make([]any, 0, len(rows)*len(cols))
	for i, r := range rows {
		if len(r) != len(cols) {
			return 0, perr.InvalidArgf("fact row %d has %d values, want %d", i, len(r), len(cols))
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j := range r {
			if j > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, "$%d", i*len(cols)+j+1)
		}
		sb.WriteByte(')')
		args = append(args, r...)
	}
	tag, err := store.Exec(ctx, s.q, sb.String(), args...)
	if err != nil {
		return 0, perr.FromPostgresf(err, "insert fact_sales")
	}
	return int(tag.RowsAffected()), nil
}

// InsertRun records the audit row for a completed pipeline run
func (s *pg) InsertRun(ctx context.Context, run domain.RunRecord) error {
	_, err := store.Exec(ctx, s.q, `
		INSERT INTO etl_runs (run_id, started_at, finished_at, source_rows, rows_dropped, fact_rows, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		run.ID, run.StartedAt, run.FinishedAt, run.SourceRows, run.RowsDropped, run.FactRows, run.Status,
	)
	if err != nil {
		return perr.FromPostgresf(err, "insert etl_runs")
	}
	return nil
}

// analyticQueries is the fixed verification battery run after a load
var analyticQueries = []struct {
	name string
	sql  string
}{
	{"q1_total_revenue_all", `
		SELECT SUM(total_revenue) AS total_revenue_all
		FROM fact_sales`},
	{"q2_total_revenue_per_year", `
		SELECT d.order_year, SUM(f.total_revenue) AS total_revenue_year
		FROM fact_sales f
		JOIN dim_date d ON f.date_id = d.date_id
		GROUP BY d.order_year
		ORDER BY d.order_year`},
	{"q3_top5_country_profit", `
		SELECT c.country, SUM(f.total_profit) AS total_profit_country
		FROM fact_sales f
		JOIN dim_country c ON f.country_id = c.country_id
		GROUP BY c.country
		ORDER BY total_profit_country DESC
		LIMIT 5`},
	{"q4_units_sold_per_item", `
		SELECT i.item_type, SUM(f.units_sold) AS total_units_sold
		FROM fact_sales f
		JOIN dim_item i ON f.item_id = i.item_id
		GROUP BY i.item_type
		ORDER BY total_units_sold DESC`},
	{"q5_avg_margin_per_channel", `
		SELECT ch.sales_channel, AVG(f.profit_margin_ratio) AS avg_profit_margin_ratio
		FROM fact_sales f
		JOIN dim_channel ch ON f.channel_id = ch.channel_id
		GROUP BY ch.sales_channel`},
	{"q6_revenue_per_region_year", `
		SELECT c.region, d.order_year, SUM(f.total_revenue) AS total_revenue
		FROM fact_sales f
		JOIN dim_country c ON f.country_id = c.country_id
		JOIN dim_date d ON f.date_id = d.date_id
		GROUP BY c.region, d.order_year
		ORDER BY c.region, d.order_year`},
	{"q7_top10_order_profit", `
		SELECT f.order_id, f.total_revenue, f.total_cost, f.total_profit
		FROM fact_sales f
		ORDER BY f.total_profit DESC
		LIMIT 10`},
	{"q8_avg_shipping_days_country", `
		SELECT c.country, AVG(f.shipping_days) AS avg_shipping_days
		FROM fact_sales f
		JOIN dim_country c ON f.country_id = c.country_id
		GROUP BY c.country
		ORDER BY avg_shipping_days`},
}

// Analytics runs the battery and returns per-query row maps; the shapes
// differ per query so rows come back as column maps
func (s *pg) Analytics(ctx context.Context) ([]domain.AnalyticsResult, error) {
	out := make([]domain.AnalyticsResult, 0, len(analyticQueries))
	for _, q := range analyticQueries {
		rows, err := store.Maps(ctx, s.q, q.sql)
		if err != nil {
			return out, perr.FromPostgresf(err, "analytics %s", q.name)
		}
		out = append(out, domain.AnalyticsResult{Name: q.name, Rows: rows})
	}
	return out, nil
}
