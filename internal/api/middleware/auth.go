package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	api "fleetsync/internal/api/application"
	authdomain "fleetsync/internal/auth/domain"
	sharedlogger "fleetsync/internal/shared/logger"
)

// BearerAuth middleware validates the Authorization: Bearer header
func BearerAuth(gate authdomain.Gate) func(http.Handler) http.Handler {
	return authenticate(gate, bearerToken)
}

// BearerOrQueryAuth also accepts ?token=, for websocket clients that cannot
// set headers on the upgrade request
func BearerOrQueryAuth(gate authdomain.Gate) func(http.Handler) http.Handler {
	return authenticate(gate, func(r *http.Request) string {
		if token := bearerToken(r); token != "" {
			return token
		}
		return r.URL.Query().Get("token")
	})
}

func authenticate(gate authdomain.Gate, extract func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extract(r)
			if token == "" {
				respondJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			identity, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				sharedlogger.FromContext(r.Context()).Debug("Rejected bearer token", "err", err)
				respondJSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(authdomain.WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// respondJSONError sends a JSON error response
func respondJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response := api.ErrorResponse{Error: message}
	json.NewEncoder(w).Encode(response)
}
