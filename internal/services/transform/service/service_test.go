package service

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"salesdw/internal/platform/tabular"
	"salesdw/internal/services/transform/domain"
)

func newSvc(t *testing.T) *Svc {
	t.Helper()
	s, err := New(domain.Default(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

// rawTable builds a table of raw string columns the way ingest produces
// them; "" marks a missing cell
func rawTable(t *testing.T, headers []string, rows [][]string) *tabular.Table {
	t.Helper()
	cols := make([]tabular.Column, len(headers))
	for i, h := range headers {
		vals := make([]tabular.Value, len(rows))
		for j, row := range rows {
			if row[i] == "" {
				vals[j] = tabular.Null(tabular.KindString)
			} else {
				vals[j] = tabular.String(row[i])
			}
		}
		cols[i] = tabular.Column{Name: h, Kind: tabular.KindString, Vals: vals}
	}
	tb, err := tabular.New(cols...)
	if err != nil {
		t.Fatalf("rawTable: %v", err)
	}
	return tb
}

var feedHeaders = []string{
	"Order ID", "Region", "Country", "Item Type", "Sales Channel", "Order Priority",
	"Order Date", "Ship Date",
	"Units Sold", "Unit Price", "Unit Cost", "Total Revenue", "Total Cost", "Total Profit",
}

func feedRow(id, country, itemType, priority, orderDate, shipDate, units, revenue, profit string) []string {
	return []string{
		id, "Asia", country, itemType, "Online", priority,
		orderDate, shipDate,
		units, "10", "6", revenue, "60", profit,
	}
}

func TestStandardizeNameIdempotent(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Order ID":      "order_id",
		"  Total Cost ": "total_cost",
		"order_id":      "order_id",
		"Sales Channel": "sales_channel",
	}
	for in, want := range cases {
		got := StandardizeName(in)
		if got != want {
			t.Fatalf("StandardizeName(%q) = %q, want %q", in, got, want)
		}
		if again := StandardizeName(got); again != got {
			t.Fatalf("not idempotent: %q -> %q", got, again)
		}
	}
}

func TestDedupeByPKKeepsAllNullKeys(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	tb := rawTable(t, []string{"order_id", "country"}, [][]string{
		{"100", "India"},
		{"", "Japan"},
		{"100", "China"},
		{"", "Kenya"},
	})

	out := s.dedupeByPK(tb, "order_id")
	if out.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", out.NumRows())
	}
	countries := out.Col("country")
	want := []string{"India", "Japan", "Kenya"}
	for i, w := range want {
		got, _ := countries.Vals[i].Str()
		if got != w {
			t.Fatalf("country[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestRunDedupKeepsFirstOccurrence(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	a := rawTable(t, feedHeaders, [][]string{
		feedRow("100", "India", "Fruits", "H", "1/2/2015", "1/5/2015", "5", "50", "20"),
		feedRow("101", "Japan", "Meat", "L", "1/3/2015", "1/6/2015", "6", "60", "24"),
	})
	b := rawTable(t, feedHeaders, [][]string{
		// same order id as the first row of a, different country
		feedRow("100", "China", "Fruits", "H", "2/2/2015", "2/5/2015", "9", "90", "36"),
	})

	out, _, err := s.Run(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2 after dedup", out.NumRows())
	}
	countries := out.Col("country")
	for _, v := range countries.Vals {
		if str, _ := v.Str(); str == "China" {
			t.Fatalf("dedup kept the later occurrence")
		}
	}
}

func TestRunSkipsDedupWithoutPK(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	headers := []string{"Region", "Country", "Units Sold"}
	a := rawTable(t, headers, [][]string{
		{"Asia", "India", "5"},
		{"Asia", "India", "5"},
	})

	out, rep, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows should be untouched without a pk, got %d", out.NumRows())
	}
	found := false
	for _, sk := range rep.SkippedSteps {
		if sk.Step == "dedupe" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected dedupe skip in report, got %+v", rep.SkippedSteps)
	}
}

func TestMedianImputationMatchesPreImputationMedian(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	a := rawTable(t, feedHeaders, [][]string{
		feedRow("1", "India", "Fruits", "H", "1/2/2015", "1/5/2015", "2", "20", "8"),
		feedRow("2", "India", "Fruits", "H", "1/3/2015", "1/6/2015", "4", "40", "16"),
		feedRow("3", "India", "Fruits", "H", "1/4/2015", "1/7/2015", "6", "60", "24"),
		feedRow("4", "India", "Fruits", "H", "1/5/2015", "1/8/2015", "", "80", "32"),
	})

	out, rep, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	units := out.Col("units_sold")
	if units == nil || units.Kind != tabular.KindFloat {
		t.Fatalf("units_sold missing or not numeric")
	}
	if units.NullCount() != 0 {
		t.Fatalf("imputation left %d nulls", units.NullCount())
	}
	// median of {2, 4, 6} is 4
	if f, _ := units.Vals[3].Float(); f != 4 {
		t.Fatalf("imputed value = %v, want 4", f)
	}
	if rep.NullCounts["units_sold"] != 0 {
		t.Fatalf("post-imputation null count should be 0")
	}
}

func TestClipBoundsFromPreClipQuartiles(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	units := []string{"1", "2", "3", "100"}
	rows := make([][]string, len(units))
	for i, u := range units {
		rows[i] = feedRow("r"+u, "India", "Fruits", "H", "1/2/2015", "1/5/2015", u, "50", "20")
	}
	a := rawTable(t, feedHeaders, rows)

	out, _, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// quartiles of {1,2,3,100}: q1=1.75, q3=27.25, iqr=25.5, hi fence=65.5
	hi := 27.25 + 1.5*25.5
	c := out.Col("units_sold")
	maxSeen := math.Inf(-1)
	for _, v := range c.Vals {
		if f, ok := v.Float(); ok && f > maxSeen {
			maxSeen = f
		}
	}
	if math.Abs(maxSeen-hi) > 1e-9 {
		t.Fatalf("max after clip = %v, want fence %v", maxSeen, hi)
	}
}

func TestZeroDenominatorRatiosAreNull(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	a := rawTable(t, feedHeaders, [][]string{
		feedRow("1", "India", "Fruits", "H", "1/2/2015", "1/5/2015", "0", "0", "10"),
		feedRow("2", "India", "Fruits", "H", "1/3/2015", "1/6/2015", "5", "50", "20"),
	})

	out, _, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	ppu := out.Col("profit_per_unit")
	pmr := out.Col("profit_margin_ratio")
	if ppu == nil || pmr == nil {
		t.Fatalf("ratio columns missing")
	}
	if !ppu.Vals[0].IsNull() {
		t.Fatalf("profit_per_unit with zero units should be null")
	}
	if !pmr.Vals[0].IsNull() {
		t.Fatalf("profit_margin_ratio with zero revenue should be null")
	}
	if ppu.Vals[1].IsNull() || pmr.Vals[1].IsNull() {
		t.Fatalf("valid denominators should produce values")
	}
	for _, v := range ppu.Vals {
		if f, ok := v.Float(); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
			t.Fatalf("ratio produced non-finite value %v", f)
		}
	}
}

func TestBadOrderDatesDropRowsAndReportCount(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	a := rawTable(t, feedHeaders, [][]string{
		feedRow("1", "India", "Fruits", "H", "1/2/2015", "1/5/2015", "5", "50", "20"),
		feedRow("2", "India", "Fruits", "H", "not a date", "1/6/2015", "5", "50", "20"),
		feedRow("3", "India", "Fruits", "H", "1/4/2015", "1/7/2015", "5", "50", "20"),
		feedRow("4", "India", "Fruits", "H", "13/45/2015", "1/8/2015", "5", "50", "20"),
		feedRow("5", "India", "Fruits", "H", "1/6/2015", "1/9/2015", "5", "50", "20"),
	})

	out, rep, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3 valid", out.NumRows())
	}
	if rep.RowsDroppedBadOrderDate != 2 {
		t.Fatalf("dropped = %d, want 2", rep.RowsDroppedBadOrderDate)
	}
	// ship date failures must NOT drop rows
	b := rawTable(t, feedHeaders, [][]string{
		feedRow("1", "India", "Fruits", "H", "1/2/2015", "garbage", "5", "50", "20"),
	})
	out2, rep2, err := s.Run(context.Background(), b)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out2.NumRows() != 1 || rep2.RowsDroppedBadOrderDate != 0 {
		t.Fatalf("bad ship date should not drop rows")
	}
	if !out2.Col("ship_date").Vals[0].IsNull() {
		t.Fatalf("bad ship date should coerce to null")
	}
}

func TestRunEndToEnd(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	a := rawTable(t, feedHeaders, [][]string{
		feedRow("1", "India", "Fruits", "H", "1/2/2015", "1/5/2015", "2", "20", "8"),
		feedRow("2", "Japan", "Meat", "M", "1/3/2015", "1/6/2015", "4", "40", "16"),
		feedRow("3", "China", "Fruits", "L", "1/4/2015", "1/7/2015", "6", "60", "24"),
		feedRow("4", "India", "Cereal", "H", "1/5/2015", "1/8/2015", "8", "80", "32"),
		feedRow("5", "Japan", "Meat", "C", "1/6/2015", "1/9/2015", "10", "100", "40"),
	})
	b := rawTable(t, feedHeaders, [][]string{
		feedRow("4", "India", "Cereal", "H", "1/5/2015", "1/8/2015", "8", "80", "32"),
		feedRow("5", "Japan", "Meat", "C", "1/6/2015", "1/9/2015", "10", "100", "40"),
		// ship before order: negative shipping_days must pass through
		feedRow("6", "China", "Fruits", "M", "1/10/2015", "1/8/2015", "3", "30", "12"),
		feedRow("7", "India", "Cereal", "L", "1/11/2015", "1/14/2015", "5", "50", "20"),
		feedRow("8", "Japan", "Meat", "H", "1/12/2015", "1/15/2015", "7", "70", "28"),
	})

	out, rep, err := s.Run(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.NumRows() != 8 {
		t.Fatalf("rows = %d, want 8 unique", out.NumRows())
	}

	// derived columns exist
	for _, name := range []string{
		"profit_per_unit", "revenue_per_unit", "profit_margin_ratio",
		"shipping_days", "order_year", "order_month",
		"units_sold_norm", "total_revenue_norm",
	} {
		if !out.Has(name) {
			t.Fatalf("missing derived column %s (have %v)", name, out.Names())
		}
	}

	// one-hot encoded order_priority: original gone, indicators derived
	// from sorted levels {C,H,L,M} minus the first
	if out.Has("order_priority") {
		t.Fatalf("order_priority should be dropped after encoding")
	}
	for _, name := range []string{"order_priority_h", "order_priority_l", "order_priority_m"} {
		c := out.Col(name)
		if c == nil || c.Kind != tabular.KindBool {
			t.Fatalf("indicator %s missing or wrong kind", name)
		}
	}
	if out.Has("order_priority_c") {
		t.Fatalf("first level should be dropped")
	}

	// dimension categoricals stay plain strings
	for _, name := range []string{"region", "country", "item_type", "sales_channel"} {
		c := out.Col(name)
		if c == nil || c.Kind != tabular.KindString {
			t.Fatalf("dimension column %s should remain a string", name)
		}
	}

	// negative shipping days flow through unchanged
	ship := out.Col("shipping_days")
	negSeen := false
	for _, v := range ship.Vals {
		if f, ok := v.Float(); ok && f < 0 {
			negSeen = true
		}
	}
	if !negSeen {
		t.Fatalf("expected a negative shipping_days value")
	}

	// report populated
	if rep.DTypes["order_date"] != "date" {
		t.Fatalf("order_date dtype = %q, want date", rep.DTypes["order_date"])
	}
	if rep.DTypes["units_sold"] != "float64" {
		t.Fatalf("units_sold dtype = %q, want float64", rep.DTypes["units_sold"])
	}
	if rep.PKDuplicates != 0 {
		t.Fatalf("post-dedup duplicates = %d, want 0", rep.PKDuplicates)
	}
	if _, ok := rep.NumericDescribe["units_sold"]; !ok {
		t.Fatalf("describe missing units_sold")
	}
	if rep.NumericDescribe["units_sold"].Count != 8 {
		t.Fatalf("describe count = %d, want 8", rep.NumericDescribe["units_sold"].Count)
	}
}

func TestNormalizeConstantColumnIsZero(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	a := rawTable(t, feedHeaders, [][]string{
		feedRow("1", "India", "Fruits", "H", "1/2/2015", "1/5/2015", "5", "50", "20"),
		feedRow("2", "India", "Fruits", "H", "1/3/2015", "1/6/2015", "5", "50", "20"),
	})
	out, _, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	c := out.Col("units_sold_norm")
	for _, v := range c.Vals {
		if f, _ := v.Float(); f != 0 {
			t.Fatalf("constant column norm = %v, want 0", f)
		}
	}
}

func TestTrimCategoricalsPreservesCase(t *testing.T) {
	t.Parallel()
	s := newSvc(t)

	row := feedRow("1", "  India​ ", "Fruits", "H", "1/2/2015", "1/5/2015", "5", "50", "20")
	a := rawTable(t, feedHeaders, [][]string{row})

	out, _, err := s.Run(context.Background(), a)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := out.Col("country").Vals[0].Str()
	if got != "India" {
		t.Fatalf("country = %q, want trimmed %q", got, "India")
	}
}
