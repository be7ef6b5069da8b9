package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	authdomain "fleetsync/internal/auth/domain"
	sharedlogger "fleetsync/internal/shared/logger"
)

// mockGate accepts exactly one token
type mockGate struct {
	valid string
}

func (m mockGate) Authenticate(ctx context.Context, credential string) (authdomain.Identity, error) {
	if credential != m.valid {
		return authdomain.Identity{}, authdomain.ErrUnauthorized
	}
	return authdomain.Identity{UserID: 1, Email: "admin@test.com"}, nil
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		query          string
		queryAllowed   bool
		expectedStatus int
	}{
		{name: "valid bearer token", header: "Bearer good", expectedStatus: http.StatusOK},
		{name: "lowercase scheme", header: "bearer good", expectedStatus: http.StatusOK},
		{name: "missing header", expectedStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", expectedStatus: http.StatusUnauthorized},
		{name: "query token ignored", query: "good", expectedStatus: http.StatusUnauthorized},
		{name: "query token allowed", query: "good", queryAllowed: true, expectedStatus: http.StatusOK},
		{name: "invalid query token", query: "bad", queryAllowed: true, expectedStatus: http.StatusUnauthorized},
		{name: "header wins over query", header: "Bearer good", query: "bad", queryAllowed: true, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotIdentity authdomain.Identity
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotIdentity, _ = authdomain.IdentityFrom(r.Context())
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			})

			gate := mockGate{valid: "good"}
			var handler http.Handler
			if tt.queryAllowed {
				handler = BearerOrQueryAuth(gate)(nextHandler)
			} else {
				handler = BearerAuth(gate)(nextHandler)
			}

			target := "/api/v1/test"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusOK && gotIdentity.UserID != 1 {
				t.Errorf("expected identity in context, got %+v", gotIdentity)
			}
			if tt.expectedStatus == http.StatusUnauthorized {
				if !strings.Contains(w.Body.String(), "Unauthorized") {
					t.Errorf("expected error body, got %q", w.Body.String())
				}
				if ct := w.Header().Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected JSON content type, got %q", ct)
				}
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))

	var got *slog.Logger
	handler := middleware.RequestID(RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = sharedlogger.FromContext(r.Context())
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || got == slog.Default() {
		t.Fatal("expected a request-scoped logger")
	}
}
