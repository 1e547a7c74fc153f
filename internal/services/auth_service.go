package services

import (
	"context"
	"net/http"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/ledgerbank/backend/internal/logger"
)

// Authenticator is the identity provider used by the auth endpoints.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Token, auth.Principal, error)
	Logout(ctx context.Context, session auth.Session) error
}

type AuthService struct {
	authn     Authenticator
	validator *ValidationHelper
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required" example:"password123"`
}

// TokenResponse represents a bearer token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

func NewAuthService(authn Authenticator, validator *ValidationHelper) *AuthService {
	return &AuthService{authn: authn, validator: validator}
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate user with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} TokenResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.Component(logger.FromContext(r.Context()), "auth")

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Debug().Err(err).Msg("login failed - invalid request")
		writeError(w, r, err)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		writeError(w, r, err)
		return
	}

	token, p, err := s.authn.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Info().Err(err).Str("remote_addr", r.RemoteAddr).Msg("login rejected")
		writeError(w, r, err)
		return
	}

	log.Info().Int64("user_id", p.Ident().UserID).Str("role", string(p.Role())).Msg("login successful")
	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(token.ExpiresIn.Seconds()),
	})
}

// Logout handles user logout
// @Summary Logout user
// @Description Logout user and blacklist token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, r, errUnauthenticated)
		return
	}

	if err := s.authn.Logout(r.Context(), session); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "Logout successful"})
}
