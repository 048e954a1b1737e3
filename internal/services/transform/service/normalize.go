package service

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"salesdw/internal/platform/tabular"
)

// StandardizeName maps a raw header to its canonical snake form.
// Applying it twice yields the same result
func StandardizeName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.ReplaceAll(s, " ", "_")
}

// dateLayouts are tried in order when coercing date columns
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"1/2/06",
	"Jan 2, 2006",
	"2-Jan-2006",
}

// invisible strips control and format runes that sneak into exported CSVs
var invisible = runes.Remove(runes.Predicate(func(r rune) bool {
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
}))

// sanitizeCategorical trims whitespace and drops invisible runes, case preserved
func sanitizeCategorical(s string) string {
	out, _, err := transform.String(invisible, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// standardizeColumns renames every column of t with StandardizeName
func (s *Svc) standardizeColumns(t *tabular.Table) error {
	return t.Rename(StandardizeName)
}

// trimCategoricals sanitizes the dimension columns in place; absent columns are ignored
func (s *Svc) trimCategoricals(t *tabular.Table) {
	for _, name := range s.dimensionCols {
		c := t.Col(name)
		if c == nil || c.Kind != tabular.KindString {
			continue
		}
		for i, v := range c.Vals {
			if str, ok := v.Str(); ok {
				c.Vals[i] = tabular.String(sanitizeCategorical(str))
			}
		}
	}
}

// pkColumn returns the standardized primary key column name present on t,
// preferring the configured column over the fallback. ok is false when
// neither exists
func (s *Svc) pkColumn(t *tabular.Table) (string, bool) {
	if t.Has(s.idCol) {
		return s.idCol, true
	}
	if t.Has(s.cfg.FallbackIDColumn) {
		return s.cfg.FallbackIDColumn, true
	}
	return "", false
}

// dedupeByPK keeps the first occurrence of each primary key value in row
// order. Null keys are all kept
func (s *Svc) dedupeByPK(t *tabular.Table, pk string) *tabular.Table {
	c := t.Col(pk)
	seen := make(map[string]bool, t.NumRows())
	return t.Filter(func(row int) bool {
		v := c.Vals[row]
		if v.IsNull() {
			return true
		}
		key, ok := v.Str()
		if !ok {
			if f, fok := v.Float(); fok {
				key = strconv.FormatFloat(f, 'g', -1, 64)
			}
		}
		if seen[key] {
			return false
		}
		seen[key] = true
		return true
	})
}

// inferKinds assigns each raw string column its Kind exactly once: Float
// when every non-null value parses as a number, otherwise String. Date
// columns are handled later by coerceDates. All-null columns stay String
func (s *Svc) inferKinds(t *tabular.Table) {
	for _, c := range t.Cols() {
		if c.Kind != tabular.KindString {
			continue
		}
		numeric := false
		allNumeric := true
		for _, v := range c.Vals {
			str, ok := v.Str()
			if !ok {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err != nil {
				allNumeric = false
				break
			}
			numeric = true
		}
		if !numeric || !allNumeric {
			continue
		}
		c.Kind = tabular.KindFloat
		for i, v := range c.Vals {
			if str, ok := v.Str(); ok {
				f, _ := strconv.ParseFloat(strings.TrimSpace(str), 64)
				c.Vals[i] = tabular.Float(f)
			} else {
				c.Vals[i] = tabular.Null(tabular.KindFloat)
			}
		}
	}
}

// imputeMissing fills numeric nulls with the column median and string
// nulls with the sentinel. Date columns keep their nulls so coercion can
// report them honestly
func (s *Svc) imputeMissing(t *tabular.Table) {
	dateCols := map[string]bool{s.orderDateCol: true, s.shipDateCol: true}
	for _, c := range t.Cols() {
		if dateCols[c.Name] {
			continue
		}
		switch c.Kind {
		case tabular.KindFloat:
			vals := c.Floats()
			if len(vals) == 0 {
				continue
			}
			med := tabular.Median(vals)
			for i, v := range c.Vals {
				if v.IsNull() {
					c.Vals[i] = tabular.Float(med)
				}
			}
		case tabular.KindString:
			for i, v := range c.Vals {
				if v.IsNull() {
					c.Vals[i] = tabular.String(s.cfg.Sentinel)
				}
			}
		}
	}
}

// coerceDate converts a string column to KindDate in place; values that
// match no layout become null. Missing column is a no-op
func coerceDate(t *tabular.Table, name string) {
	c := t.Col(name)
	if c == nil || c.Kind == tabular.KindDate {
		return
	}
	c.Kind = tabular.KindDate
	for i, v := range c.Vals {
		str, ok := v.Str()
		if !ok {
			c.Vals[i] = tabular.Null(tabular.KindDate)
			continue
		}
		c.Vals[i] = parseDate(str)
	}
}

func parseDate(s string) tabular.Value {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return tabular.Date(ts)
		}
	}
	return tabular.Null(tabular.KindDate)
}

// dropBadOrderDates removes rows whose order date is null after coercion
// and returns the dropped count
func (s *Svc) dropBadOrderDates(t *tabular.Table) (*tabular.Table, int) {
	c := t.Col(s.orderDateCol)
	if c == nil {
		return t, 0
	}
	before := t.NumRows()
	out := t.Filter(func(row int) bool { return !c.Vals[row].IsNull() })
	return out, before - out.NumRows()
}

// clipOutliers caps each configured numeric column to the IQR fence
// [q1 - 1.5*iqr, q3 + 1.5*iqr]; quartiles come from the pre-clip values
func (s *Svc) clipOutliers(t *tabular.Table, rep reporter) {
	for _, name := range s.numericCols {
		c := t.Col(name)
		if c == nil {
			rep.Skip("clip_outliers", "column "+name+" not present")
			continue
		}
		if c.Kind != tabular.KindFloat {
			rep.Skip("clip_outliers", "column "+name+" is not numeric")
			continue
		}
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		q1 := tabular.Quantile(vals, 0.25)
		q3 := tabular.Quantile(vals, 0.75)
		iqr := q3 - q1
		lo, hi := q1-1.5*iqr, q3+1.5*iqr
		for i, v := range c.Vals {
			f, ok := v.Float()
			if !ok {
				continue
			}
			switch {
			case f < lo:
				c.Vals[i] = tabular.Float(lo)
			case f > hi:
				c.Vals[i] = tabular.Float(hi)
			}
		}
	}
}
