package service

import (
	"salesdw/internal/platform/tabular"
)

// enrich appends derived metric columns. It never removes rows; a derived
// column whose inputs are absent is skipped set-wide and recorded
func (s *Svc) enrich(t *tabular.Table, rep reporter) {
	s.addRatio(t, rep, "profit_per_unit", "total_profit", "units_sold")
	s.addRatio(t, rep, "revenue_per_unit", "total_revenue", "units_sold")
	s.addRatio(t, rep, "profit_margin_ratio", "total_profit", "total_revenue")
	s.addShippingDays(t, rep)
	s.addDateParts(t, rep)
}

// addRatio appends num/den with a zero and null guard: a zero or missing
// denominator yields null, never Inf or NaN
func (s *Svc) addRatio(t *tabular.Table, rep reporter, name, num, den string) {
	nc, dc := t.Col(num), t.Col(den)
	if nc == nil || dc == nil || nc.Kind != tabular.KindFloat || dc.Kind != tabular.KindFloat {
		rep.Skip("enrich_"+name, "requires numeric columns "+num+" and "+den)
		return
	}
	vals := make([]tabular.Value, len(nc.Vals))
	for i := range nc.Vals {
		n, nok := nc.Vals[i].Float()
		d, dok := dc.Vals[i].Float()
		if !nok || !dok || d == 0 {
			vals[i] = tabular.Null(tabular.KindFloat)
			continue
		}
		vals[i] = tabular.Float(n / d)
	}
	if err := t.AddCol(tabular.Column{Name: name, Kind: tabular.KindFloat, Vals: vals}); err != nil {
		rep.Skip("enrich_"+name, err.Error())
	}
}

// addShippingDays appends the whole-day difference between ship and order
// dates. Either side null yields null; negative differences are kept as-is
// and flow to the warehouse
func (s *Svc) addShippingDays(t *tabular.Table, rep reporter) {
	oc, sc := t.Col(s.orderDateCol), t.Col(s.shipDateCol)
	if oc == nil || sc == nil || oc.Kind != tabular.KindDate || sc.Kind != tabular.KindDate {
		rep.Skip("enrich_shipping_days", "requires date columns "+s.orderDateCol+" and "+s.shipDateCol)
		return
	}
	vals := make([]tabular.Value, len(oc.Vals))
	for i := range oc.Vals {
		od, ook := oc.Vals[i].Date()
		sd, sok := sc.Vals[i].Date()
		if !ook || !sok {
			vals[i] = tabular.Null(tabular.KindFloat)
			continue
		}
		days := sd.Sub(od).Hours() / 24
		vals[i] = tabular.Float(float64(int(days)))
	}
	if err := t.AddCol(tabular.Column{Name: "shipping_days", Kind: tabular.KindFloat, Vals: vals}); err != nil {
		rep.Skip("enrich_shipping_days", err.Error())
	}
}

// addDateParts appends order_year and order_month from the order date
func (s *Svc) addDateParts(t *tabular.Table, rep reporter) {
	oc := t.Col(s.orderDateCol)
	if oc == nil || oc.Kind != tabular.KindDate {
		rep.Skip("enrich_date_parts", "requires date column "+s.orderDateCol)
		return
	}
	years := make([]tabular.Value, len(oc.Vals))
	months := make([]tabular.Value, len(oc.Vals))
	for i, v := range oc.Vals {
		d, ok := v.Date()
		if !ok {
			years[i] = tabular.Null(tabular.KindFloat)
			months[i] = tabular.Null(tabular.KindFloat)
			continue
		}
		years[i] = tabular.Float(float64(d.Year()))
		months[i] = tabular.Float(float64(int(d.Month())))
	}
	if err := t.AddCol(tabular.Column{Name: "order_year", Kind: tabular.KindFloat, Vals: years}); err != nil {
		rep.Skip("enrich_date_parts", err.Error())
		return
	}
	if err := t.AddCol(tabular.Column{Name: "order_month", Kind: tabular.KindFloat, Vals: months}); err != nil {
		rep.Skip("enrich_date_parts", err.Error())
	}
}
