// Package domain holds read API types and ports
package domain

import "time"

// RunInfo is one pipeline audit row as served to the dashboard
type RunInfo struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	SourceRows  int       `json:"source_rows"`
	RowsDropped int       `json:"rows_dropped"`
	FactRows    int       `json:"fact_rows"`
	Status      string    `json:"status"`
}

// SalesFilter narrows the flattened sales listing
type SalesFilter struct {
	Year         int    `json:"year"`
	Region       string `json:"region"`
	Country      string `json:"country"`
	ItemType     string `json:"item_type"`
	SalesChannel string `json:"sales_channel"`
	Limit        int    `json:"limit" validate:"min=0,max=10000"`
}

// SalesRow is one fact row flattened against all four dimensions
type SalesRow struct {
	OrderID           *int64   `json:"order_id"`
	OrderDate         *string  `json:"order_date"`
	OrderYear         *int     `json:"order_year"`
	OrderMonth        *int     `json:"order_month"`
	Region            *string  `json:"region"`
	Country           *string  `json:"country"`
	ItemType          *string  `json:"item_type"`
	SalesChannel      *string  `json:"sales_channel"`
	UnitsSold         *float64 `json:"units_sold"`
	UnitPrice         *float64 `json:"unit_price"`
	UnitCost          *float64 `json:"unit_cost"`
	TotalRevenue      *float64 `json:"total_revenue"`
	TotalCost         *float64 `json:"total_cost"`
	TotalProfit       *float64 `json:"total_profit"`
	ProfitPerUnit     *float64 `json:"profit_per_unit"`
	RevenuePerUnit    *float64 `json:"revenue_per_unit"`
	ProfitMarginRatio *float64 `json:"profit_margin_ratio"`
	ShippingDays      *int     `json:"shipping_days"`
}
