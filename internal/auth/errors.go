package auth

import "errors"

var (
	// ErrInvalidCredential covers unknown users, wrong passwords, disabled
	// credentials and malformed, expired or revoked tokens.
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrTooManyAttempts   = errors.New("too many failed login attempts")
	ErrSessionStore      = errors.New("session store unavailable")
)
