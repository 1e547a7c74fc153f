package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/models"
)

// Claims is the JWT payload. Subject carries the email.
type Claims struct {
	Role       models.Role `json:"role"`
	UserID     int64       `json:"user_id"`
	CustomerID *int64      `json:"customer_id,omitempty"`
	AccountID  *int64      `json:"account_id,omitempty"`
	EmployeeID *int64      `json:"employee_id,omitempty"`
	jwt.RegisteredClaims
}

// Token is an issued bearer credential.
type Token struct {
	AccessToken string
	ID          string
	ExpiresAt   time.Time
	ExpiresIn   time.Duration
}

// Session is a validated token.
type Session struct {
	Principal Principal
	TokenID   string
	ExpiresAt time.Time
}

type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		ttl:    cfg.Expiry,
		now:    time.Now,
	}
}

// Issue signs a token for p valid for the configured expiry.
func (t *TokenIssuer) Issue(p Principal) (Token, error) {
	return t.IssueWithTTL(p, t.ttl)
}

func (t *TokenIssuer) IssueWithTTL(p Principal, ttl time.Duration) (Token, error) {
	now := t.now()
	id := p.Ident()
	claims := Claims{
		Role:   p.Role(),
		UserID: id.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.Email,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	switch p := p.(type) {
	case Customer:
		claims.CustomerID = models.Int64Ptr(p.CustomerID)
		claims.AccountID = models.Int64Ptr(p.AccountID)
	case Employee:
		claims.EmployeeID = models.Int64Ptr(p.EmployeeID)
	case Admin:
		claims.EmployeeID = models.Int64Ptr(p.EmployeeID)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{
		AccessToken: signed,
		ID:          claims.ID,
		ExpiresAt:   claims.ExpiresAt.Time,
		ExpiresIn:   ttl,
	}, nil
}

// Validate checks signature, algorithm and expiry and returns the session the
// token describes. Every failure is ErrInvalidCredential.
func (t *TokenIssuer) Validate(tokenString string) (Session, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	var claims Claims
	parser := jwt.NewParser(opts...)
	token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Session{}, errors.Join(ErrInvalidCredential, err)
	}

	p, err := claims.principal()
	if err != nil {
		return Session{}, err
	}
	return Session{Principal: p, TokenID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (c Claims) principal() (Principal, error) {
	return PrincipalFromCredential(models.Credential{
		UserID:     c.UserID,
		Email:      c.Subject,
		Role:       c.Role,
		CustomerID: c.CustomerID,
		AccountID:  c.AccountID,
		EmployeeID: c.EmployeeID,
	})
}
