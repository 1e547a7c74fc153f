package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ledgerbank/backend/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (auth.Token, auth.Principal, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.Get(0).(auth.Token), nil, args.Error(2)
	}
	return args.Get(0).(auth.Token), args.Get(1).(auth.Principal), args.Error(2)
}

func (m *MockAuthenticator) Logout(ctx context.Context, session auth.Session) error {
	return m.Called(ctx, session).Error(0)
}

func TestAuthService_Login(t *testing.T) {
	h := newHarness(t)
	h.addCredential(t, ada, "correct-horse")

	t.Run("successful login", func(t *testing.T) {
		w := h.do(http.MethodPost, "/auth/login", "", `{"email": "Ada@Example.com", "password": "correct-horse"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decode[TokenResponse](t, w)
		assert.Equal(t, "bearer", resp.TokenType)
		assert.Equal(t, int64(3600), resp.ExpiresIn)
		require.NotEmpty(t, resp.AccessToken)

		w = h.do(http.MethodGet, "/accounts/balance", resp.AccessToken, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(7), decode[BalanceResponse](t, w).AccountID)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := h.do(http.MethodPost, "/auth/login", "", `{"email": "ada@example.com", "password": "nope"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Invalid credentials", decode[ErrorResponse](t, w).Error)
	})

	t.Run("unknown email", func(t *testing.T) {
		w := h.do(http.MethodPost, "/auth/login", "", `{"email": "ghost@example.com", "password": "x"}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := h.do(http.MethodPost, "/auth/login", "", `{"email": "not-an-email", "password": "x"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Details, "email")
	})

	t.Run("missing password", func(t *testing.T) {
		w := h.do(http.MethodPost, "/auth/login", "", `{"email": "ada@example.com"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[ErrorResponse](t, w).Details, "password")
	})
}

func TestAuthService_LoginLockout(t *testing.T) {
	h := newHarness(t)
	h.addCredential(t, ada, "correct-horse")

	for i := 0; i < 3; i++ {
		w := h.do(http.MethodPost, "/auth/login", "", `{"email": "ada@example.com", "password": "wrong"}`)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := h.do(http.MethodPost, "/auth/login", "", `{"email": "ada@example.com", "password": "correct-horse"}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "Too many failed login attempts")
}

func TestAuthService_Logout(t *testing.T) {
	h := newHarness(t)
	token := h.token(t, ada)

	w := h.do(http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/accounts/balance", token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthService_WithMockAuthenticator(t *testing.T) {
	t.Run("store failure is a 500", func(t *testing.T) {
		authn := new(MockAuthenticator)
		authn.On("Login", mock.Anything, "ada@example.com", "pw").
			Return(auth.Token{}, nil, errors.New("connection refused"))

		s := NewAuthService(authn, NewValidationHelper())
		req := httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email": "ada@example.com", "password": "pw"}`))
		w := httptest.NewRecorder()
		s.Login(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal server error", decode[ErrorResponse](t, w).Error)
		authn.AssertExpectations(t)
	})

	t.Run("logout without session", func(t *testing.T) {
		authn := new(MockAuthenticator)
		s := NewAuthService(authn, NewValidationHelper())

		w := httptest.NewRecorder()
		s.Logout(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		authn.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		session := auth.Session{Principal: ada, TokenID: "jti-1"}
		authn := new(MockAuthenticator)
		authn.On("Logout", mock.Anything, session).Return(nil)

		s := NewAuthService(authn, NewValidationHelper())
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req = req.WithContext(auth.WithSession(req.Context(), session))
		w := httptest.NewRecorder()
		s.Logout(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		authn.AssertExpectations(t)
	})
}
