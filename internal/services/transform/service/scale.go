package service

import (
	"sort"

	"salesdw/internal/platform/tabular"
)

// minMaxNormalize adds a "<col>_norm" sibling scaled into [0, 1] for each
// configured column. A constant column normalizes to 0.0; nulls stay null
func (s *Svc) minMaxNormalize(t *tabular.Table, rep reporter) {
	for _, name := range s.normalizeCols {
		c := t.Col(name)
		if c == nil || c.Kind != tabular.KindFloat {
			rep.Skip("min_max_normalize", "column "+name+" not present or not numeric")
			continue
		}
		vals := c.Floats()
		if len(vals) == 0 {
			continue
		}
		lo, hi := vals[0], vals[0]
		for _, f := range vals[1:] {
			if f < lo {
				lo = f
			}
			if f > hi {
				hi = f
			}
		}
		span := hi - lo

		out := make([]tabular.Value, len(c.Vals))
		for i, v := range c.Vals {
			f, ok := v.Float()
			if !ok {
				out[i] = tabular.Null(tabular.KindFloat)
				continue
			}
			if span == 0 {
				out[i] = tabular.Float(0.0)
				continue
			}
			out[i] = tabular.Float((f - lo) / span)
		}
		if err := t.AddCol(tabular.Column{Name: name + "_norm", Kind: tabular.KindFloat, Vals: out}); err != nil {
			rep.Skip("min_max_normalize", err.Error())
		}
	}
}

// oneHotEncode expands each categorical column that is not a dimension
// into sorted-level indicator columns, dropping the first level and the
// original column
func (s *Svc) oneHotEncode(t *tabular.Table, rep reporter) {
	dim := make(map[string]bool, len(s.dimensionCols))
	for _, d := range s.dimensionCols {
		dim[d] = true
	}

	for _, name := range s.categoricalCols {
		if dim[name] {
			continue
		}
		c := t.Col(name)
		if c == nil {
			rep.Skip("one_hot_encode", "column "+name+" not present")
			continue
		}
		if c.Kind != tabular.KindString {
			rep.Skip("one_hot_encode", "column "+name+" is not categorical")
			continue
		}

		levels := make(map[string]bool)
		for _, v := range c.Vals {
			if str, ok := v.Str(); ok {
				levels[str] = true
			}
		}
		sorted := make([]string, 0, len(levels))
		for lv := range levels {
			sorted = append(sorted, lv)
		}
		sort.Strings(sorted)
		if len(sorted) > 0 {
			// first level is implied by all indicators being false
			sorted = sorted[1:]
		}

		for _, lv := range sorted {
			vals := make([]tabular.Value, len(c.Vals))
			for i, v := range c.Vals {
				str, ok := v.Str()
				if !ok {
					vals[i] = tabular.Null(tabular.KindBool)
					continue
				}
				vals[i] = tabular.Bool(str == lv)
			}
			col := tabular.Column{
				Name: name + "_" + StandardizeName(lv),
				Kind: tabular.KindBool,
				Vals: vals,
			}
			if err := t.AddCol(col); err != nil {
				rep.Skip("one_hot_encode", err.Error())
			}
		}
		t.DropCol(name)
	}
}

// recoerce re-applies the numeric and date coercions so downstream
// consumers see settled kinds even if an earlier step was skipped
func (s *Svc) recoerce(t *tabular.Table) {
	s.inferKinds(t)
	coerceDate(t, s.orderDateCol)
	coerceDate(t, s.shipDateCol)
}
