package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/Rahim01baba/GEST-AERO-sub001/internal/app"
	"github.com/Rahim01baba/GEST-AERO-sub001/internal/billing"
)

const (
	codeValidation            = "VALIDATION_ERROR"
	codeClassificationMissing = "CLASSIFICATION_MISSING"
	codeInvalidInput          = "INVALID_INPUT"
	codeUnauthorized          = "UNAUTHORIZED"
	codeRateNotFound          = "RATE_NOT_FOUND"
	codeNotFound              = "NOT_FOUND"
	codeRateLimited           = "RATE_LIMITED"
	codeDataAccess            = "DATA_ACCESS_ERROR"
	codeInternal              = "INTERNAL_ERROR"
)

type envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *errorBody  `json:"error,omitempty"`
}

type errorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	writeEnvelope(w, code, envelope{OK: true, Data: payload})
}

func respondWithError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeEnvelope(w, status, envelope{OK: false, Error: &errorBody{Code: code, Message: message, Details: details}})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	response, err := json.Marshal(body)
	if err != nil {
		log.Printf("level=error component=api msg=\"failed to encode response\" err=%v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// respondWithServiceError maps service and billing errors onto the HTTP error envelope.
func respondWithServiceError(w http.ResponseWriter, op string, err error) {
	var (
		rateErr     *app.RateLimitError
		notFoundErr *app.NotFoundError
		movementErr *billing.MovementError
	)

	var details interface{}
	if errors.As(err, &movementErr) {
		details = map[string]string{"movement_id": movementErr.MovementID}
	}

	switch {
	case errors.As(err, &rateErr):
		w.Header().Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds()))
		respondWithError(w, http.StatusTooManyRequests, codeRateLimited, "Too many requests", map[string]int{"retry_after_seconds": rateErr.RetryAfterSeconds()})
	case errors.Is(err, app.ErrValidation):
		respondWithError(w, http.StatusBadRequest, codeValidation, err.Error(), nil)
	case errors.Is(err, billing.ErrClassificationMissing):
		respondWithError(w, http.StatusBadRequest, codeClassificationMissing, err.Error(), details)
	case errors.Is(err, billing.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, codeInvalidInput, err.Error(), details)
	case errors.Is(err, app.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, billing.ErrRateNotFound):
		respondWithError(w, http.StatusNotFound, codeRateNotFound, err.Error(), details)
	case errors.As(err, &notFoundErr):
		respondWithError(w, http.StatusNotFound, codeNotFound, "Movement not found", map[string][]string{"ids": notFoundErr.IDs})
	case errors.Is(err, app.ErrDataAccess), errors.Is(err, billing.ErrAmbiguousTariff):
		log.Printf("level=error component=api op=%s err=%v", op, err)
		respondWithError(w, http.StatusInternalServerError, codeDataAccess, "Data access failed", nil)
	default:
		log.Printf("level=error component=api op=%s err=%v", op, err)
		respondWithError(w, http.StatusInternalServerError, codeInternal, "Internal server error", nil)
	}
}
