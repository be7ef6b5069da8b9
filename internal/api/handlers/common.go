package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	api "fleetsync/internal/api/application"
	authdomain "fleetsync/internal/auth/domain"
	fleetdomain "fleetsync/internal/fleet/domain"
	sharedlogger "fleetsync/internal/shared/logger"
	"fleetsync/internal/shared/validation"
	simdomain "fleetsync/internal/simulation/domain"
)

// retryAfterSeconds is sent with 503 responses for transient store failures.
const retryAfterSeconds = "1"

// getLogger extracts the logger from the request context
// Falls back to slog.Default() if not found
func getLogger(r *http.Request) *slog.Logger {
	return sharedlogger.FromContext(r.Context())
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondJSONError sends a JSON error response
func respondJSONError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, api.ErrorResponse{Error: message})
}

// respondError maps a service error to a status code and logs it.
func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := getLogger(r)

	var valErr *validation.ValidationError
	switch {
	case errors.As(err, &valErr):
		logger.Debug("Rejected invalid request", "op", op, "err", err)
		respondJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, fleetdomain.ErrNotFound):
		logger.Debug("Entity not found", "op", op)
		respondJSONError(w, http.StatusNotFound, "Entity not found")
	case errors.Is(err, authdomain.ErrInvalidCredentials), errors.Is(err, authdomain.ErrUnauthorized):
		respondJSONError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, fleetdomain.ErrTransientStore):
		logger.Error("Store unavailable", "op", op, "err", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		respondJSONError(w, http.StatusServiceUnavailable, "Store temporarily unavailable, retry later")
	case errors.Is(err, simdomain.ErrShutdown):
		respondJSONError(w, http.StatusServiceUnavailable, "Server is shutting down")
	default:
		logger.Error("Request failed", "op", op, "err", err)
		respondJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON decodes an optional request body into dst. An empty body leaves
// dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// entityID parses the {id} URL parameter.
func entityID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.NewValidationError(map[string]string{"id": "must be a positive integer"}, "entity")
	}
	return id, nil
}
