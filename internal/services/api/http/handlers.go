// Package http exposes the read API endpoints
package http

import (
	stdhttp "net/http"
	"strconv"

	perr "salesdw/internal/platform/errors"
	phttp "salesdw/internal/platform/net/http"
	"salesdw/internal/services/api/domain"
)

// Register mounts the read endpoints on r
func Register(r phttp.Router, svc domain.ServicePort) {
	r.Get("/sales", handleSales(svc))
	r.Get("/analytics", handleAnalytics(svc))
	r.Get("/runs/latest", handleLatestRun(svc))
}

func handleSales(svc domain.ServicePort) phttp.Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		f, err := parseSalesFilter(r)
		if err != nil {
			phttp.RespondErr(w, r, err)
			return
		}
		rows, err := svc.Sales(r.Context(), f)
		if err != nil {
			phttp.RespondErr(w, r, err)
			return
		}
		phttp.RespondOK(w, r, map[string]any{"rows": rows, "count": len(rows)})
	}
}

func handleAnalytics(svc domain.ServicePort) phttp.Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		results, err := svc.Analytics(r.Context())
		if err != nil {
			phttp.RespondErr(w, r, err)
			return
		}
		phttp.RespondOK(w, r, map[string]any{"queries": results})
	}
}

func handleLatestRun(svc domain.ServicePort) phttp.Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		run, err := svc.LatestRun(r.Context())
		if err != nil {
			phttp.RespondErr(w, r, err)
			return
		}
		phttp.RespondOK(w, r, run)
	}
}

func parseSalesFilter(r *stdhttp.Request) (domain.SalesFilter, error) {
	q := r.URL.Query()
	f := domain.SalesFilter{
		Region:       q.Get("region"),
		Country:      q.Get("country"),
		ItemType:     q.Get("item_type"),
		SalesChannel: q.Get("sales_channel"),
	}
	if v := q.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return f, perr.InvalidArgf("year must be an integer, got %q", v)
		}
		f.Year = y
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, perr.InvalidArgf("limit must be an integer, got %q", v)
		}
		f.Limit = n
	}
	return f, nil
}
