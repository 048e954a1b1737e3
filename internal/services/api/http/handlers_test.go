package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	perr "salesdw/internal/platform/errors"
	phttp "salesdw/internal/platform/net/http"
	"salesdw/internal/services/api/domain"
	whdomain "salesdw/internal/services/warehouse/domain"
)

type fakeSvc struct {
	lastFilter domain.SalesFilter
	rows       []domain.SalesRow
	run        domain.RunInfo
	err        error
}

func (f *fakeSvc) Sales(_ context.Context, filter domain.SalesFilter) ([]domain.SalesRow, error) {
	f.lastFilter = filter
	return f.rows, f.err
}

func (f *fakeSvc) LatestRun(context.Context) (domain.RunInfo, error) {
	return f.run, f.err
}

func (f *fakeSvc) Analytics(context.Context) ([]whdomain.AnalyticsResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []whdomain.AnalyticsResult{{Name: "q1_total_revenue_all"}}, nil
}

func newTestRouter(svc domain.ServicePort) *chi.Mux {
	m := chi.NewRouter()
	Register(phttp.AdaptChi(m), svc)
	return m
}

func TestSalesParsesFilters(t *testing.T) {
	t.Parallel()

	svc := &fakeSvc{rows: []domain.SalesRow{{}}}
	m := newTestRouter(svc)

	req := httptest.NewRequest("GET", "/sales?year=2015&region=Asia&country=India&item_type=Fruits&sales_channel=Online&limit=10", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	want := domain.SalesFilter{
		Year: 2015, Region: "Asia", Country: "India",
		ItemType: "Fruits", SalesChannel: "Online", Limit: 10,
	}
	if svc.lastFilter != want {
		t.Fatalf("filter = %+v, want %+v", svc.lastFilter, want)
	}

	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if env.StatusCode != 200 || env.Status != "OK" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestSalesRejectsBadYear(t *testing.T) {
	t.Parallel()

	m := newTestRouter(&fakeSvc{})
	req := httptest.NewRequest("GET", "/sales?year=abc", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != 422 {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestSalesSurfacesValidationError(t *testing.T) {
	t.Parallel()

	m := newTestRouter(&fakeSvc{err: perr.Validationf("limit out of range")})
	req := httptest.NewRequest("GET", "/sales?limit=999999", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != 400 {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLatestRunEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestRouter(&fakeSvc{run: domain.RunInfo{RunID: "r-1", Status: "complete", FactRows: 8}})
	req := httptest.NewRequest("GET", "/runs/latest", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data shape: %T", env.Data)
	}
	if data["run_id"] != "r-1" || data["status"] != "complete" {
		t.Fatalf("run payload = %v", data)
	}
}

func TestLatestRunNotFound(t *testing.T) {
	t.Parallel()

	m := newTestRouter(&fakeSvc{err: perr.ErrNotFound})
	req := httptest.NewRequest("GET", "/runs/latest", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestAnalyticsEndpoint(t *testing.T) {
	t.Parallel()

	m := newTestRouter(&fakeSvc{})
	req := httptest.NewRequest("GET", "/analytics", nil)
	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("data shape: %T", env.Data)
	}
	if _, ok := data["queries"]; !ok {
		t.Fatalf("queries missing in %v", data)
	}
}
