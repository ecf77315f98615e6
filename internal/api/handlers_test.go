package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/analytics"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/app"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/billing"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

type stubBilling struct {
	invoice  *domain.Invoice
	err      error
	identity string
	req      app.BillingRequest
}

func (s *stubBilling) Calculate(_ context.Context, identity string, req app.BillingRequest) (*domain.Invoice, error) {
	s.identity = identity
	s.req = req
	return s.invoice, s.err
}

type stubAnalytics struct {
	result *app.AnalyticsResult
	err    error
	query  analytics.Query
}

func (s *stubAnalytics) Run(_ context.Context, q analytics.Query) (*app.AnalyticsResult, error) {
	s.query = q
	if s.result != nil {
		s.result.Metric = q.Metric
	}
	return s.result, s.err
}

type stubRotations struct {
	airportID *string
	deadline  time.Time
	result    *app.PairingResult
}

func (s *stubRotations) PairRotations(ctx context.Context, airportID *string) (*app.PairingResult, error) {
	s.airportID = airportID
	s.deadline, _ = ctx.Deadline()
	return s.result, nil
}

func fakeAuth(identity string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type testEnvelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func newTestRouter(b BillingCalculator, a AnalyticsRunner, r RotationPairer) http.Handler {
	return NewRouter(NewHandler(b, a, r), fakeAuth("user_1"), "internal-key")
}

func TestCalculateBilling_Success(t *testing.T) {
	billingStub := &stubBilling{invoice: &domain.Invoice{
		AirportID: "apt-1",
		Currency:  "XOF",
		LineItems: []domain.LineItem{{MovementID: "m1", MovementType: domain.DirectionArrival, Total: decimal.NewFromInt(15000)}},
		Subtotal:  decimal.NewFromInt(15000),
		Tax:       decimal.Zero,
		Total:     decimal.NewFromInt(15000),
	}}
	router := newTestRouter(billingStub, &stubAnalytics{}, &stubRotations{})

	body := `{"movement_ids":["m1"],"airport_id":"apt-1","tax_percent":18}`
	req := httptest.NewRequest(http.MethodPost, "/billing/calculate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.OK {
		t.Fatalf("expected ok envelope")
	}
	var inv domain.Invoice
	if err := json.Unmarshal(env.Data, &inv); err != nil {
		t.Fatalf("failed to decode invoice: %v", err)
	}
	if !inv.Total.Equal(decimal.NewFromInt(15000)) || inv.Currency != "XOF" {
		t.Fatalf("unexpected invoice: %+v", inv)
	}
	if billingStub.identity != "user_1" || billingStub.req.TaxPercent == nil || !billingStub.req.TaxPercent.Equal(decimal.NewFromInt(18)) {
		t.Fatalf("request not forwarded correctly: %q %+v", billingStub.identity, billingStub.req)
	}
}

func TestCalculateBilling_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unrecognized", errors.New("boom"), http.StatusInternalServerError, codeInternal},
		{"validation", fmt.Errorf("%w: airport_id is required", app.ErrValidation), http.StatusBadRequest, codeValidation},
		{"classification", &billing.MovementError{MovementID: "m1", Err: billing.ErrClassificationMissing}, http.StatusBadRequest, codeClassificationMissing},
		{"invalid input", &billing.MovementError{MovementID: "m1", Err: billing.ErrInvalidInput}, http.StatusBadRequest, codeInvalidInput},
		{"unauthorized", app.ErrUnauthorized, http.StatusUnauthorized, codeUnauthorized},
		{"rate not found", billing.ErrRateNotFound, http.StatusNotFound, codeRateNotFound},
		{"movement not found", &app.NotFoundError{IDs: []string{"ghost"}}, http.StatusNotFound, codeNotFound},
		{"rate limited", &app.RateLimitError{RetryAfter: 30 * time.Second}, http.StatusTooManyRequests, codeRateLimited},
		{"data access", app.ErrDataAccess, http.StatusInternalServerError, codeDataAccess},
		{"ambiguous tariff", billing.ErrAmbiguousTariff, http.StatusInternalServerError, codeDataAccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubBilling{err: tt.err}, &stubAnalytics{}, &stubRotations{})
			req := httptest.NewRequest(http.MethodPost, "/billing/calculate", strings.NewReader(`{"movement_ids":["m1"],"airport_id":"apt-1"}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.OK || env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("expected error code %s, got %s", tt.code, rec.Body.String())
			}
			if tt.status == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "30" {
				t.Fatalf("expected Retry-After 30, got %q", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestCalculateBilling_RejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubBilling{}, &stubAnalytics{}, &stubRotations{})
	for _, body := range []string{`{`, `{"movement_ids":["m1"],"airport_id":"apt-1","currency":"EUR"}`} {
		req := httptest.NewRequest(http.MethodPost, "/billing/calculate", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", body, rec.Code)
		}
	}
}

func TestAnalytics_ParsesQuery(t *testing.T) {
	stub := &stubAnalytics{result: &app.AnalyticsResult{Data: []domain.RankedCount{{Key: "A320", Count: 3}}}}
	router := newTestRouter(&stubBilling{}, stub, &stubRotations{})

	req := httptest.NewRequest(http.MethodGet, "/analytics/top_routes?start=2025-04-01T00:00:00Z&end=2025-04-30T23:59:59Z&airport_id=apt-1&limit=5&paid_only=true", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	q := stub.query
	if q.Metric != analytics.MetricTopRoutes || q.Limit != 5 || !q.PaidOnly || q.Filter.AirportID != "apt-1" {
		t.Fatalf("unexpected query: %+v", q)
	}
	if !q.Filter.End.Equal(time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("unexpected end: %s", q.Filter.End)
	}
}

func TestAnalytics_CSVExport(t *testing.T) {
	stub := &stubAnalytics{result: &app.AnalyticsResult{
		Start: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		Data: []domain.DailyMovementCount{
			{Date: "2025-04-01", Arrivals: 3, Departures: 2, Total: 5},
		},
	}}
	router := newTestRouter(&stubBilling{}, stub, &stubRotations{})

	req := httptest.NewRequest(http.MethodGet, "/analytics/movements_daily?start=2025-04-01T00:00:00Z&end=2025-04-02T00:00:00Z&format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected csv content type, got %q", ct)
	}
	want := "date,arr,dep,total\n2025-04-01,3,2,5\n"
	if rec.Body.String() != want {
		t.Fatalf("unexpected csv:\n%s", rec.Body.String())
	}
}

func TestAnalytics_CSVSingleAggregate(t *testing.T) {
	stub := &stubAnalytics{result: &app.AnalyticsResult{Data: app.CountResult{Count: 7}}}
	router := newTestRouter(&stubBilling{}, stub, &stubRotations{})

	req := httptest.NewRequest(http.MethodGet, "/analytics/movements_count?start=2025-04-01T00:00:00Z&end=2025-04-02T00:00:00Z&format=csv", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Body.String() != "count\n7\n" {
		t.Fatalf("unexpected csv:\n%s", rec.Body.String())
	}
}

func TestAnalytics_BadParameters(t *testing.T) {
	router := newTestRouter(&stubBilling{}, &stubAnalytics{}, &stubRotations{})
	for _, target := range []string{
		"/analytics/movements_daily?end=2025-04-02T00:00:00Z",
		"/analytics/movements_daily?start=yesterday&end=2025-04-02T00:00:00Z",
		"/analytics/movements_daily?start=2025-04-01T00:00:00Z&end=2025-04-02T00:00:00Z&limit=ten",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", target, rec.Code)
		}
	}
}

func TestPairRotations_RequiresInternalKey(t *testing.T) {
	stub := &stubRotations{result: &app.PairingResult{Airports: []app.AirportPairingResult{}}}
	router := newTestRouter(&stubBilling{}, &stubAnalytics{}, stub)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/rotations/pair", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/internal/rotations/pair?airport_id=apt-9", bytes.NewReader(nil))
	req.Header.Set("X-Internal-API-Key", "internal-key")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.airportID == nil || *stub.airportID != "apt-9" {
		t.Fatalf("expected airport filter apt-9, got %v", stub.airportID)
	}
}

func TestPairRotations_OutlastsRequestTimeout(t *testing.T) {
	stub := &stubRotations{result: &app.PairingResult{
		Airports:    []app.AirportPairingResult{{AirportID: "apt-1", RotationsCreated: 2, MovementsUpdated: 3}},
		Total:       app.PairingTotals{RotationsCreated: 2, MovementsUpdated: 3},
		Interrupted: true,
		Remaining:   4,
	}}
	router := newTestRouter(&stubBilling{}, &stubAnalytics{}, stub)

	req := httptest.NewRequest(http.MethodPost, "/internal/rotations/pair", nil)
	req.Header.Set("X-Internal-API-Key", "internal-key")
	rec := httptest.NewRecorder()
	started := time.Now()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.deadline.IsZero() || stub.deadline.Sub(started) <= requestTimeout {
		t.Fatalf("expected pairing deadline beyond %s, got %s", requestTimeout, stub.deadline.Sub(started))
	}

	var data app.PairingResult
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if !data.Interrupted || data.Remaining != 4 || data.Total.RotationsCreated != 2 {
		t.Fatalf("expected partial counts in response, got %+v", data)
	}
}
