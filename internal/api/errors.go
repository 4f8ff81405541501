package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/ryanbastic/go-contentstore/internal/circuitbreaker"
	"github.com/ryanbastic/go-contentstore/internal/content"
	"github.com/ryanbastic/go-contentstore/internal/field"
	"github.com/ryanbastic/go-contentstore/internal/search"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// toHumaError maps content store errors onto HTTP problems. Unknown errors
// are logged and reported as 500 without leaking their text.
func toHumaError(logger *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, content.ErrContentNotFound):
		return huma.Error404NotFound("content not found")
	case errors.Is(err, content.ErrUnsavedElement):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, field.ErrInvalidValue):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return huma.Error503ServiceUnavailable("search index unavailable")
	case errors.Is(err, search.ErrSearchUnsupported):
		return huma.Error501NotImplemented(err.Error())
	default:
		logger.Error(op+" failed", "error", err)
		return huma.Error500InternalServerError("internal server error")
	}
}
