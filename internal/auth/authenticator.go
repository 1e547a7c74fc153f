package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/rs/zerolog"
)

// Authenticator verifies credentials and bearer tokens.
type Authenticator struct {
	creds    storage.CredentialStore
	hasher   *PasswordHasher
	tokens   *TokenIssuer
	sessions SessionStore
	cfg      config.AuthConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewAuthenticator(
	creds storage.CredentialStore,
	hasher *PasswordHasher,
	tokens *TokenIssuer,
	sessions SessionStore,
	cfg config.AuthConfig,
	log zerolog.Logger,
) *Authenticator {
	if sessions == nil {
		sessions = NopSessionStore{}
	}
	return &Authenticator{
		creds:    creds,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		cfg:      cfg,
		log:      log.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
}

// Login authenticates email and password and issues a token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (Token, Principal, error) {
	p, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return Token{}, nil, err
	}
	token, err := a.tokens.Issue(p)
	if err != nil {
		return Token{}, nil, err
	}
	return token, p, nil
}

// Authenticate checks email and password against the credential store.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if a.cfg.MaxFailedLogins > 0 {
		n, err := a.sessions.Failures(ctx, email)
		if err != nil {
			a.log.Warn().Err(err).Msg("login throttle unavailable")
		} else if n >= int64(a.cfg.MaxFailedLogins) {
			a.log.Warn().Str("email", email).Int64("failures", n).Msg("login locked out")
			return nil, ErrTooManyAttempts
		}
	}

	cred, err := a.creds.CredentialByEmail(ctx, email)
	if errors.Is(err, storage.ErrCredentialNotFound) {
		a.recordFailure(ctx, email)
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credential: %w", err)
	}

	if cred.DisabledAt != nil || !a.hasher.Verify(password, cred.PasswordHash) {
		a.recordFailure(ctx, email)
		return nil, ErrInvalidCredential
	}

	p, err := PrincipalFromCredential(cred)
	if err != nil {
		return nil, err
	}

	if a.cfg.MaxFailedLogins > 0 {
		if err := a.sessions.ResetFailures(ctx, email); err != nil {
			a.log.Warn().Err(err).Msg("failed to reset login failures")
		}
	}
	return p, nil
}

func (a *Authenticator) recordFailure(ctx context.Context, email string) {
	if a.cfg.MaxFailedLogins <= 0 {
		return
	}
	if _, err := a.sessions.RecordFailure(ctx, email, a.cfg.LockoutWindow); err != nil {
		a.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

// ValidateBearer validates a token and rejects revoked ones.
func (a *Authenticator) ValidateBearer(ctx context.Context, token string) (Session, error) {
	session, err := a.tokens.Validate(token)
	if err != nil {
		return Session{}, err
	}

	revoked, err := a.sessions.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, fmt.Errorf("%w: token revoked", ErrInvalidCredential)
	}
	return session, nil
}

// Logout revokes the session's token for the rest of its lifetime.
func (a *Authenticator) Logout(ctx context.Context, session Session) error {
	return a.sessions.Revoke(ctx, session.TokenID, session.ExpiresAt.Sub(a.now()))
}

// HashPassword exposes the configured hasher to provisioning code.
func (a *Authenticator) HashPassword(password string) (string, error) {
	return a.hasher.Hash(password)
}

type sessionKey struct{}

func WithSession(ctx context.Context, s Session) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, s)
	return WithPrincipal(ctx, s.Principal)
}

func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
