package handlers

import (
	"context"
	"net/http"

	api "fleetsync/internal/api/application"
	authapp "fleetsync/internal/auth/application"
)

// Authenticator issues tokens for valid credentials
type Authenticator interface {
	Login(ctx context.Context, email, password string) (authapp.Token, error)
}

// AuthHandler handles login
type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login handles POST /api/v1/auth/login
// @Summary      Log in
// @Description  Exchange email and password for a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      application.LoginRequest  true  "Credentials"
// @Success      200          {object}  application.LoginResponse
// @Failure      400          {object}  application.ErrorResponse
// @Failure      401          {object}  application.ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, "login", err)
		return
	}

	respondJSON(w, http.StatusOK, api.LoginResponse{Token: token.Token, ExpiresAt: token.ExpiresAt})
}
