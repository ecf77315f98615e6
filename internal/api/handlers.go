/**
 * @description
 * HTTP handlers for billing computation, analytics queries and the internal
 * rotation pairing trigger.
 */
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/analytics"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/app"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxRequestBodyBytes = 1 << 20

// BillingCalculator computes invoices.
type BillingCalculator interface {
	Calculate(ctx context.Context, identity string, req app.BillingRequest) (*domain.Invoice, error)
}

// AnalyticsRunner executes analytics queries.
type AnalyticsRunner interface {
	Run(ctx context.Context, q analytics.Query) (*app.AnalyticsResult, error)
}

// RotationPairer runs the rotation pairing batch.
type RotationPairer interface {
	PairRotations(ctx context.Context, airportID *string) (*app.PairingResult, error)
}

// Handler holds the application services that handlers will interact with.
type Handler struct {
	billing   BillingCalculator
	analytics AnalyticsRunner
	rotations RotationPairer
}

// NewHandler creates a new Handler with the given services.
func NewHandler(billing BillingCalculator, analytics AnalyticsRunner, rotations RotationPairer) *Handler {
	return &Handler{billing: billing, analytics: analytics, rotations: rotations}
}

func (h *Handler) handleCalculateBilling(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, codeUnauthorized, "Unauthorized", nil)
		return
	}

	var req app.BillingRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, codeValidation, "Invalid request body", nil)
		return
	}

	invoice, err := h.billing.Calculate(r.Context(), identity, req)
	if err != nil {
		respondWithServiceError(w, "billing.calculate", err)
		return
	}

	respondWithJSON(w, http.StatusOK, invoice)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	q, err := parseAnalyticsQuery(chi.URLParam(r, "metric"), r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
		return
	}

	result, err := h.analytics.Run(r.Context(), q)
	if err != nil {
		respondWithServiceError(w, "analytics."+string(q.Metric), err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "csv") {
		filename := fmt.Sprintf("%s_%s_%s.csv", result.Metric, result.Start.Format("20060102"), result.End.Format("20060102"))
		if err := respondWithCSV(w, filename, result.Data); err != nil {
			respondWithServiceError(w, "analytics.csv", err)
		}
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func parseAnalyticsQuery(metric string, r *http.Request) (analytics.Query, error) {
	values := r.URL.Query()
	q := analytics.Query{
		Metric: analytics.Metric(metric),
		Filter: analytics.Filter{AirportID: strings.TrimSpace(values.Get("airport_id"))},
	}

	start, err := time.Parse(time.RFC3339, values.Get("start"))
	if err != nil {
		return q, fmt.Errorf("start must be an RFC3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, values.Get("end"))
	if err != nil {
		return q, fmt.Errorf("end must be an RFC3339 timestamp")
	}
	q.Filter.Start = start.UTC()
	q.Filter.End = end.UTC()

	if raw := values.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("limit must be an integer")
		}
		q.Limit = limit
	}
	if raw := values.Get("paid_only"); raw != "" {
		paidOnly, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("paid_only must be a boolean")
		}
		q.PaidOnly = paidOnly
	}
	return q, nil
}

func (h *Handler) handlePairRotations(w http.ResponseWriter, r *http.Request) {
	var airportID *string
	if raw, ok := r.URL.Query()["airport_id"]; ok && len(raw) > 0 {
		id := raw[0]
		airportID = &id
	}

	result, err := h.rotations.PairRotations(r.Context(), airportID)
	if err != nil {
		respondWithServiceError(w, "rotations.pair", err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
