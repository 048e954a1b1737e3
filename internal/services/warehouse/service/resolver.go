package service

import (
	"sort"
	"strconv"
	"strings"

	"salesdw/internal/platform/tabular"
	"salesdw/internal/services/warehouse/domain"
	"salesdw/internal/services/warehouse/repo"
)

// dimKeys holds the surrogate key lookups selected back after phase one.
// A nil map means that dimension was not loaded (source columns absent)
type dimKeys struct {
	dates     map[string]int64
	countries map[string]int64
	items     map[string]int64
	channels  map[string]int64
}

// distinctDates extracts the distinct order-date tuples, sorted by date.
// Requires order_date, order_year and order_month; otherwise nil
func distinctDates(t *tabular.Table) []domain.DateDim {
	dc, yc, mc := t.Col("order_date"), t.Col("order_year"), t.Col("order_month")
	if dc == nil || yc == nil || mc == nil || dc.Kind != tabular.KindDate {
		return nil
	}
	seen := make(map[string]domain.DateDim)
	for i, v := range dc.Vals {
		d, ok := v.Date()
		if !ok {
			continue
		}
		key := repo.DateKey(d)
		if _, dup := seen[key]; dup {
			continue
		}
		dim := domain.DateDim{OrderDate: d}
		if y, ok := yc.Vals[i].Float(); ok {
			dim.Year = int(y)
		}
		if m, ok := mc.Vals[i].Float(); ok {
			dim.Month = int(m)
		}
		seen[key] = dim
	}
	out := make([]domain.DateDim, 0, len(seen))
	for _, dim := range seen {
		out = append(out, dim)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.Before(out[j].OrderDate) })
	return out
}

// distinctCountries extracts distinct non-null (region, country) tuples
func distinctCountries(t *tabular.Table) []domain.CountryDim {
	rc, cc := t.Col("region"), t.Col("country")
	if rc == nil || cc == nil {
		return nil
	}
	seen := make(map[string]bool)
	out := []domain.CountryDim{}
	for i := range rc.Vals {
		r, rok := rc.Vals[i].Str()
		c, cok := cc.Vals[i].Str()
		if !rok || !cok {
			continue
		}
		key := repo.CountryKey(r, c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, domain.CountryDim{Region: r, Country: c})
	}
	return out
}

// distinctStrings extracts distinct non-null values of one column in row order
func distinctStrings(t *tabular.Table, name string) []string {
	c := t.Col(name)
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, v := range c.Vals {
		s, ok := v.Str()
		if !ok || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// factColumns is the canonical fact_sales column order; absent source
// columns are simply omitted from the insert
var factColumns = []string{
	"order_id",
	"date_id", "country_id", "item_id", "channel_id",
	"units_sold", "unit_price", "unit_cost",
	"total_revenue", "total_cost", "total_profit",
	"profit_per_unit", "revenue_per_unit", "profit_margin_ratio",
	"shipping_days",
}

// resolveFacts left-joins the table against the dimension lookups and
// materializes insertable fact rows. A natural key that resolves no
// surrogate yields a null foreign key; the row is still produced.
// unmatched counts rows with at least one such miss
func resolveFacts(t *tabular.Table, keys dimKeys) (cols []string, rows [][]any, unmatched int) {
	n := t.NumRows()

	type producer func(row int) (val any, miss bool)
	var producers []producer

	add := func(name string, p producer) {
		cols = append(cols, name)
		producers = append(producers, p)
	}

	if c := t.Col("order_id"); c != nil {
		add("order_id", func(row int) (any, bool) { return orderIDValue(c.Vals[row]), false })
	}
	if keys.dates != nil {
		c := t.Col("order_date")
		add("date_id", func(row int) (any, bool) {
			d, ok := c.Vals[row].Date()
			if !ok {
				return nil, true
			}
			if id, hit := keys.dates[repo.DateKey(d)]; hit {
				return id, false
			}
			return nil, true
		})
	}
	if keys.countries != nil {
		rc, cc := t.Col("region"), t.Col("country")
		add("country_id", func(row int) (any, bool) {
			r, rok := rc.Vals[row].Str()
			co, cok := cc.Vals[row].Str()
			if !rok || !cok {
				return nil, true
			}
			if id, hit := keys.countries[repo.CountryKey(r, co)]; hit {
				return id, false
			}
			return nil, true
		})
	}
	if keys.items != nil {
		c := t.Col("item_type")
		add("item_id", func(row int) (any, bool) { return lookupString(c, row, keys.items) })
	}
	if keys.channels != nil {
		c := t.Col("sales_channel")
		add("channel_id", func(row int) (any, bool) { return lookupString(c, row, keys.channels) })
	}

	for _, name := range factColumns[5:] {
		c := t.Col(name)
		if c == nil || c.Kind != tabular.KindFloat {
			continue
		}
		col := c
		if name == "shipping_days" {
			add(name, func(row int) (any, bool) {
				if f, ok := col.Vals[row].Float(); ok {
					return int(f), false
				}
				return nil, false
			})
			continue
		}
		add(name, func(row int) (any, bool) {
			if f, ok := col.Vals[row].Float(); ok {
				return f, false
			}
			return nil, false
		})
	}

	rows = make([][]any, 0, n)
	for i := 0; i < n; i++ {
		vals := make([]any, len(producers))
		miss := false
		for j, p := range producers {
			v, m := p(i)
			vals[j] = v
			miss = miss || m
		}
		if miss {
			unmatched++
		}
		rows = append(rows, vals)
	}
	return cols, rows, unmatched
}

func lookupString(c *tabular.Column, row int, keys map[string]int64) (any, bool) {
	s, ok := c.Vals[row].Str()
	if !ok {
		return nil, true
	}
	if id, hit := keys[s]; hit {
		return id, false
	}
	return nil, true
}

// orderIDValue maps the source key to the BIGINT fact column; non-numeric
// or missing keys become null
func orderIDValue(v tabular.Value) any {
	if f, ok := v.Float(); ok {
		return int64(f)
	}
	if s, ok := v.Str(); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return id
		}
	}
	return nil
}
