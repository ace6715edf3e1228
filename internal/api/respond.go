package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/leadgrid/leadgen/internal/auth"
	"github.com/leadgrid/leadgen/internal/normalize"
	"github.com/leadgrid/leadgen/internal/query"
	"github.com/leadgrid/leadgen/internal/search"
	"github.com/leadgrid/leadgen/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("api: encode response", zap.Error(err))
	}
}

// writeError maps service sentinels onto HTTP statuses. Unrecognized errors
// become opaque 500s; the detail stays in the log, not the response.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := "internal server error"

	switch {
	case eris.Is(err, search.ErrValidation), eris.Is(err, normalize.ErrInvalidPayload):
		status = http.StatusBadRequest
		detail = rootMessage(err)
	case eris.Is(err, search.ErrAddressNotFound), eris.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
		detail = rootMessage(err)
	case eris.Is(err, query.ErrParse), eris.Is(err, query.ErrIntent),
		eris.Is(err, query.ErrFetch), eris.Is(err, query.ErrGeneration):
		status = http.StatusUnprocessableEntity
		detail = rootMessage(err)
	case eris.Is(err, auth.ErrNoToken), eris.Is(err, auth.ErrInvalidToken):
		status = http.StatusUnauthorized
		detail = "not authenticated"
	case eris.Is(err, store.ErrInsufficientCredits):
		status = http.StatusPaymentRequired
		detail = rootMessage(err)
	case eris.Is(err, search.ErrUpstreamProvider):
		status = http.StatusBadGateway
		detail = rootMessage(err)
	case eris.Is(err, search.ErrConfiguration), eris.Is(err, query.ErrUnconfigured):
		status = http.StatusServiceUnavailable
		detail = rootMessage(err)
	}

	if status == http.StatusInternalServerError {
		zap.L().Error("api: unhandled error", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

func rootMessage(err error) string {
	return err.Error()
}

func logStoreError(action string, err error) {
	zap.L().Warn("api: store "+action+" failed", zap.Error(err))
}
