package service

import (
	"salesdw/internal/platform/tabular"
	"salesdw/internal/services/transform/domain"
)

// checkQuality fills the read-only sections of the report. It never
// mutates the table and never fails on a finding
func (s *Svc) checkQuality(t *tabular.Table, rep *domain.Report) {
	rep.NullCounts = make(map[string]int, t.NumCols())
	rep.DTypes = make(map[string]string, t.NumCols())
	rep.NegativeValues = make(map[string]int, len(s.numericCols))
	rep.NumericDescribe = make(map[string]tabular.Summary, len(s.numericCols))

	for _, c := range t.Cols() {
		rep.NullCounts[c.Name] = c.NullCount()
		rep.DTypes[c.Name] = c.Kind.String()
	}

	for _, name := range s.numericCols {
		c := t.Col(name)
		if c == nil || c.Kind != tabular.KindFloat {
			continue
		}
		neg := 0
		for _, v := range c.Vals {
			if f, ok := v.Float(); ok && f < 0 {
				neg++
			}
		}
		rep.NegativeValues[name] = neg
		rep.NumericDescribe[name] = tabular.Describe(c.Floats())
	}

	if pk, ok := s.pkColumn(t); ok {
		c := t.Col(pk)
		seen := make(map[string]int, t.NumRows())
		dups, nulls := 0, 0
		for _, v := range c.Vals {
			if v.IsNull() {
				nulls++
				continue
			}
			key := pkKey(v)
			seen[key]++
			if seen[key] > 1 {
				dups++
			}
		}
		rep.PKDuplicates = dups
		rep.PKNulls = nulls
	}
}

func pkKey(v tabular.Value) string {
	if str, ok := v.Str(); ok {
		return str
	}
	// numeric keys stringify through Any
	if a := v.Any(); a != nil {
		if f, ok := a.(float64); ok {
			return formatFloatKey(f)
		}
	}
	return ""
}
