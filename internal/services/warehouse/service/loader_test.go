package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"salesdw/internal/modkit/repokit"
	"salesdw/internal/platform/store"
	"salesdw/internal/platform/tabular"
	"salesdw/internal/services/warehouse/domain"
	"salesdw/internal/services/warehouse/repo"
)

// fakeQ satisfies repokit.Queryer; the fake storage never touches it
type fakeQ struct{}

func (fakeQ) Exec(context.Context, string, ...any) (store.CommandTag, error) {
	var z store.CommandTag
	return z, nil
}
func (fakeQ) Query(context.Context, string, ...any) (store.Rows, error) {
	var z store.Rows
	return z, nil
}
func (fakeQ) QueryRow(context.Context, string, ...any) store.Row {
	var z store.Row
	return z
}

type fakeTx struct{ txCalls int }

func (f *fakeTx) Tx(_ context.Context, fn func(q repokit.Queryer) error) error {
	f.txCalls++
	return fn(fakeQ{})
}
func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (store.CommandTag, error) {
	return fakeQ{}.Exec(ctx, sql, args...)
}
func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (store.Rows, error) {
	return fakeQ{}.Query(ctx, sql, args...)
}
func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) store.Row {
	return fakeQ{}.QueryRow(ctx, sql, args...)
}

// fakeStorage records the loader's calls in order
type fakeStorage struct {
	calls []string

	dates     []domain.DateDim
	countries []domain.CountryDim
	items     []string
	channels  []string

	factCols  []string
	factRows  [][]any
	factCalls int

	run domain.RunRecord

	failOn string
}

type fakeBinder struct{ s *fakeStorage }

func (b fakeBinder) Bind(repokit.Queryer) repo.Storage { return b.s }

func (f *fakeStorage) hit(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return errors.New(name + " boom")
	}
	return nil
}

func (f *fakeStorage) EnsureSchema(context.Context) error { return f.hit("EnsureSchema") }
func (f *fakeStorage) Reset(context.Context) error        { return f.hit("Reset") }

func (f *fakeStorage) InsertDimDates(_ context.Context, rows []domain.DateDim) error {
	f.dates = rows
	return f.hit("InsertDimDates")
}

func (f *fakeStorage) DateKeys(context.Context) (map[string]int64, error) {
	if err := f.hit("DateKeys"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(f.dates))
	for i, d := range f.dates {
		out[repo.DateKey(d.OrderDate)] = int64(i + 1)
	}
	return out, nil
}

func (f *fakeStorage) InsertDimCountries(_ context.Context, rows []domain.CountryDim) error {
	f.countries = rows
	return f.hit("InsertDimCountries")
}

func (f *fakeStorage) CountryKeys(context.Context) (map[string]int64, error) {
	if err := f.hit("CountryKeys"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(f.countries))
	for i, c := range f.countries {
		out[repo.CountryKey(c.Region, c.Country)] = int64(i + 1)
	}
	return out, nil
}

func (f *fakeStorage) InsertDimItems(_ context.Context, items []string) error {
	f.items = items
	return f.hit("InsertDimItems")
}

func (f *fakeStorage) ItemKeys(context.Context) (map[string]int64, error) {
	if err := f.hit("ItemKeys"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(f.items))
	for i, s := range f.items {
		out[s] = int64(i + 1)
	}
	return out, nil
}

func (f *fakeStorage) InsertDimChannels(_ context.Context, channels []string) error {
	f.channels = channels
	return f.hit("InsertDimChannels")
}

func (f *fakeStorage) ChannelKeys(context.Context) (map[string]int64, error) {
	if err := f.hit("ChannelKeys"); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(f.channels))
	for i, s := range f.channels {
		out[s] = int64(i + 1)
	}
	return out, nil
}

func (f *fakeStorage) InsertFacts(_ context.Context, cols []string, rows [][]any) (int, error) {
	f.factCols = cols
	f.factRows = append(f.factRows, rows...)
	f.factCalls++
	if err := f.hit("InsertFacts"); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (f *fakeStorage) InsertRun(_ context.Context, run domain.RunRecord) error {
	f.run = run
	return f.hit("InsertRun")
}

func (f *fakeStorage) Analytics(context.Context) ([]domain.AnalyticsResult, error) {
	if err := f.hit("Analytics"); err != nil {
		return nil, err
	}
	return []domain.AnalyticsResult{{Name: "q1_total_revenue_all"}}, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// loadTable builds a transformed table with n fact rows over two dates
func loadTable(t *testing.T, n int) *tabular.Table {
	t.Helper()
	var (
		ids, regions, countries, itemTypes, channels []tabular.Value
		dates, years, months, units, revenue         []tabular.Value
	)
	for i := 0; i < n; i++ {
		ids = append(ids, tabular.Float(float64(i+1)))
		regions = append(regions, tabular.String("Asia"))
		countries = append(countries, tabular.String("India"))
		itemTypes = append(itemTypes, tabular.String("Fruits"))
		channels = append(channels, tabular.String("Online"))
		d := date(2015, time.January, 2+i%2)
		dates = append(dates, tabular.Date(d))
		years = append(years, tabular.Float(2015))
		months = append(months, tabular.Float(1))
		units = append(units, tabular.Float(float64(i+1)))
		revenue = append(revenue, tabular.Float(float64((i+1)*10)))
	}
	tb, err := tabular.New(
		tabular.Column{Name: "order_id", Kind: tabular.KindFloat, Vals: ids},
		tabular.Column{Name: "region", Kind: tabular.KindString, Vals: regions},
		tabular.Column{Name: "country", Kind: tabular.KindString, Vals: countries},
		tabular.Column{Name: "item_type", Kind: tabular.KindString, Vals: itemTypes},
		tabular.Column{Name: "sales_channel", Kind: tabular.KindString, Vals: channels},
		tabular.Column{Name: "order_date", Kind: tabular.KindDate, Vals: dates},
		tabular.Column{Name: "order_year", Kind: tabular.KindFloat, Vals: years},
		tabular.Column{Name: "order_month", Kind: tabular.KindFloat, Vals: months},
		tabular.Column{Name: "units_sold", Kind: tabular.KindFloat, Vals: units},
		tabular.Column{Name: "total_revenue", Kind: tabular.KindFloat, Vals: revenue},
	)
	if err != nil {
		t.Fatalf("loadTable: %v", err)
	}
	return tb
}

func newLoader(t *testing.T, fs *fakeStorage, batch int) (*Svc, *fakeTx) {
	t.Helper()
	tx := &fakeTx{}
	svc, err := New(tx, fakeBinder{s: fs}, domain.Config{BatchSize: batch, Reset: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc, tx
}

func TestLoadSequenceAndState(t *testing.T) {
	t.Parallel()

	fs := &fakeStorage{}
	svc, tx := newLoader(t, fs, 100)

	res, err := svc.Load(context.Background(), loadTable(t, 4), domain.RunRecord{ID: "run-1"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tx.txCalls != 1 {
		t.Fatalf("expected one transaction, got %d", tx.txCalls)
	}
	if svc.State() != domain.StateComplete || res.State != domain.StateComplete {
		t.Fatalf("state = %v/%v, want complete", svc.State(), res.State)
	}
	if res.FactRows != 4 {
		t.Fatalf("fact rows = %d, want 4", res.FactRows)
	}
	if res.DimDates != 2 || res.DimCountries != 1 || res.DimItems != 1 || res.DimChannels != 1 {
		t.Fatalf("dim counts = %+v", res)
	}
	if fs.run.Status != "complete" || fs.run.FactRows != 4 {
		t.Fatalf("run record = %+v", fs.run)
	}

	// schema first, then reset, then both dimension phases before facts
	idx := func(name string) int {
		for i, c := range fs.calls {
			if c == name {
				return i
			}
		}
		t.Fatalf("call %s never happened: %v", name, fs.calls)
		return -1
	}
	if !(idx("EnsureSchema") < idx("Reset") &&
		idx("Reset") < idx("InsertDimDates") &&
		idx("InsertDimDates") < idx("DateKeys") &&
		idx("ChannelKeys") < idx("InsertFacts") &&
		idx("InsertFacts") < idx("InsertRun") &&
		idx("InsertRun") < idx("Analytics")) {
		t.Fatalf("bad call order: %v", fs.calls)
	}
}

func TestLoadDistinctDimensionTuples(t *testing.T) {
	t.Parallel()

	fs := &fakeStorage{}
	svc, _ := newLoader(t, fs, 100)

	if _, err := svc.Load(context.Background(), loadTable(t, 6), domain.RunRecord{ID: "run-2"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(fs.dates) != 2 {
		t.Fatalf("distinct dates = %d, want 2", len(fs.dates))
	}
	if !fs.dates[0].OrderDate.Before(fs.dates[1].OrderDate) {
		t.Fatalf("dates not sorted")
	}
	if len(fs.countries) != 1 || len(fs.items) != 1 || len(fs.channels) != 1 {
		t.Fatalf("distinct tuples = %d/%d/%d", len(fs.countries), len(fs.items), len(fs.channels))
	}
}

func TestLoadBatchesFactInserts(t *testing.T) {
	t.Parallel()

	fs := &fakeStorage{}
	svc, _ := newLoader(t, fs, 2)

	res, err := svc.Load(context.Background(), loadTable(t, 5), domain.RunRecord{ID: "run-3"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if fs.factCalls != 3 {
		t.Fatalf("insert batches = %d, want 3", fs.factCalls)
	}
	if res.FactRows != 5 || len(fs.factRows) != 5 {
		t.Fatalf("fact rows = %d/%d, want 5", res.FactRows, len(fs.factRows))
	}
}

func TestLoadWithoutResetSkipsDelete(t *testing.T) {
	t.Parallel()

	fs := &fakeStorage{}
	svc, err := New(&fakeTx{}, fakeBinder{s: fs}, domain.Config{BatchSize: 100, Reset: false}, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	res, err := svc.Load(context.Background(), loadTable(t, 2), domain.RunRecord{ID: "run-5"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, c := range fs.calls {
		if c == "Reset" {
			t.Fatalf("reset ran despite being disabled: %v", fs.calls)
		}
	}
	if res.State != domain.StateComplete || res.FactRows != 2 {
		t.Fatalf("result = %+v", res)
	}
}

func TestLoadFailureStopsBeforeRunRecord(t *testing.T) {
	t.Parallel()

	fs := &fakeStorage{failOn: "InsertFacts"}
	svc, _ := newLoader(t, fs, 100)

	_, err := svc.Load(context.Background(), loadTable(t, 2), domain.RunRecord{ID: "run-4"})
	if err == nil {
		t.Fatalf("expected load failure")
	}
	for _, c := range fs.calls {
		if c == "InsertRun" {
			t.Fatalf("run record written despite failure")
		}
	}
	if svc.State() == domain.StateComplete {
		t.Fatalf("state should not reach complete")
	}
}

func TestResolveFactsNullSurrogateForUnmatchedKey(t *testing.T) {
	t.Parallel()

	tb := loadTable(t, 2)
	keys := dimKeys{
		dates:     map[string]int64{repo.DateKey(date(2015, time.January, 2)): 7},
		countries: map[string]int64{repo.CountryKey("Asia", "India"): 3},
		items:     map[string]int64{},
		channels:  map[string]int64{"Online": 9},
	}

	cols, rows, unmatched := resolveFacts(tb, keys)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (unmatched rows still load)", len(rows))
	}
	// both rows miss item_id; row 2 (Jan 3) also misses date_id
	if unmatched != 2 {
		t.Fatalf("unmatched = %d, want 2", unmatched)
	}

	col := func(name string) int {
		for i, c := range cols {
			if c == name {
				return i
			}
		}
		t.Fatalf("column %s missing from %v", name, cols)
		return -1
	}
	if rows[0][col("item_id")] != nil {
		t.Fatalf("unmatched item should be null surrogate")
	}
	if rows[1][col("date_id")] != nil {
		t.Fatalf("unmatched date should be null surrogate")
	}
	if rows[0][col("date_id")] != int64(7) {
		t.Fatalf("matched date key = %v, want 7", rows[0][col("date_id")])
	}
	if rows[0][col("order_id")] != int64(1) {
		t.Fatalf("order id = %v, want 1", rows[0][col("order_id")])
	}
}

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(&fakeTx{}, fakeBinder{s: &fakeStorage{}}, domain.Config{BatchSize: 0}, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected config validation error")
	}
}
