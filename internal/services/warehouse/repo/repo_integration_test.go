//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"salesdw/internal/platform/store"
	"salesdw/internal/services/warehouse/domain"
)

// startPostgres launches a disposable Postgres and returns DSN + stop func
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func openStore(t *testing.T, dsn string) *store.Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	st, err := store.Open(ctx, store.Config{
		AppName: "salesdw-warehouse-integration",
		PG: store.PGConfig{
			Enabled:        true,
			URL:            dsn,
			MaxConns:       2,
			ConnectRetries: 30,
		},
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestStarSchemaRoundTrip_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	st := openStore(t, dsn)
	ctx := context.Background()
	r := NewPG().Bind(st.PG)

	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// idempotency
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema second run: %v", err)
	}

	jan2 := time.Date(2015, time.January, 2, 0, 0, 0, 0, time.UTC)
	jan3 := time.Date(2015, time.January, 3, 0, 0, 0, 0, time.UTC)
	dates := []domain.DateDim{
		{OrderDate: jan2, Year: 2015, Month: 1},
		{OrderDate: jan3, Year: 2015, Month: 1},
	}
	countries := []domain.CountryDim{{Region: "Asia", Country: "India"}}

	// double load: the second pass must not duplicate any dimension row
	for i := 0; i < 2; i++ {
		if err := r.InsertDimDates(ctx, dates); err != nil {
			t.Fatalf("InsertDimDates pass %d: %v", i, err)
		}
		if err := r.InsertDimCountries(ctx, countries); err != nil {
			t.Fatalf("InsertDimCountries pass %d: %v", i, err)
		}
		if err := r.InsertDimItems(ctx, []string{"Fruits", "Meat"}); err != nil {
			t.Fatalf("InsertDimItems pass %d: %v", i, err)
		}
		if err := r.InsertDimChannels(ctx, []string{"Online"}); err != nil {
			t.Fatalf("InsertDimChannels pass %d: %v", i, err)
		}
	}

	dateKeys, err := r.DateKeys(ctx)
	if err != nil {
		t.Fatalf("DateKeys: %v", err)
	}
	if len(dateKeys) != 2 {
		t.Fatalf("dim_date rows = %d, want 2 after double load", len(dateKeys))
	}
	countryKeys, err := r.CountryKeys(ctx)
	if err != nil {
		t.Fatalf("CountryKeys: %v", err)
	}
	if len(countryKeys) != 1 {
		t.Fatalf("dim_country rows = %d, want 1 after double load", len(countryKeys))
	}
	itemKeys, err := r.ItemKeys(ctx)
	if err != nil {
		t.Fatalf("ItemKeys: %v", err)
	}
	channelKeys, err := r.ChannelKeys(ctx)
	if err != nil {
		t.Fatalf("ChannelKeys: %v", err)
	}

	cols := []string{"order_id", "date_id", "country_id", "item_id", "channel_id", "units_sold", "total_revenue", "total_profit", "shipping_days"}
	rows := [][]any{
		{int64(1), dateKeys[DateKey(jan2)], countryKeys[CountryKey("Asia", "India")], itemKeys["Fruits"], channelKeys["Online"], 5.0, 50.0, 20.0, 3},
		// null surrogates load fine
		{int64(2), nil, nil, nil, nil, 7.0, 70.0, 28.0, -2},
	}
	n, err := r.InsertFacts(ctx, cols, rows)
	if err != nil {
		t.Fatalf("InsertFacts: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}
	factCount, err := store.Scalar[int64](ctx, st.PG, `SELECT COUNT(*) FROM fact_sales`)
	if err != nil {
		t.Fatalf("count fact_sales: %v", err)
	}
	if factCount != 2 {
		t.Fatalf("fact_sales rows = %d, want 2", factCount)
	}

	if err := r.InsertRun(ctx, domain.RunRecord{
		ID:          "0d1cf76a-1b2c-4bd2-9c05-60a02a5a4a6f",
		StartedAt:   time.Now().UTC().Add(-time.Minute),
		FinishedAt:  time.Now().UTC(),
		SourceRows:  2,
		RowsDropped: 0,
		FactRows:    2,
		Status:      "complete",
	}); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	results, err := r.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("verification queries = %d, want 8", len(results))
	}
	if results[0].Name != "q1_total_revenue_all" || len(results[0].Rows) != 1 {
		t.Fatalf("q1 shape unexpected: %+v", results[0])
	}

	if err := r.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	empty, err := r.DateKeys(ctx)
	if err != nil {
		t.Fatalf("DateKeys after reset: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("dim_date rows after reset = %d, want 0", len(empty))
	}
	factCount, err = store.Scalar[int64](ctx, st.PG, `SELECT COUNT(*) FROM fact_sales`)
	if err != nil {
		t.Fatalf("count fact_sales after reset: %v", err)
	}
	if factCount != 0 {
		t.Fatalf("fact_sales rows after reset = %d, want 0", factCount)
	}
}
