package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/models"
	"github.com/ledgerbank/backend/internal/storage"
	"github.com/ledgerbank/backend/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testArgon2 = config.Argon2Config{Time: 1, Memory: 64, Threads: 1, KeyLength: 16, SaltLength: 8}

func testIssuer() *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{SecretKey: "test-secret", Expiry: time.Hour, Issuer: "ledgerbank"})
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(testArgon2)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"))
	assert.True(t, h.Verify("s3cret-pass", hash))
	assert.False(t, h.Verify("wrong", hash))

	other, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")

	// a hasher with different parameters still verifies old hashes
	stronger := NewPasswordHasher(config.Argon2Config{Time: 2, Memory: 128, Threads: 2, KeyLength: 32, SaltLength: 16})
	assert.True(t, stronger.Verify("s3cret-pass", hash))

	for _, bad := range []string{"", "plaintext", "$argon2i$v=19$m=64,t=1,p=1$c2FsdA$a2V5", "$argon2id$v=19$m=64,t=1,p=1$!!$a2V5"} {
		assert.False(t, h.Verify("s3cret-pass", bad), bad)
	}
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer()

	principals := []Principal{
		Customer{Identity: Identity{UserID: 1, Email: "c@bank.test"}, AccountID: 7, CustomerID: 3},
		Employee{Identity: Identity{UserID: 2, Email: "e@bank.test"}, EmployeeID: 11},
		Admin{Identity: Identity{UserID: 3, Email: "a@bank.test"}, EmployeeID: 12},
	}
	for _, p := range principals {
		token, err := issuer.Issue(p)
		require.NoError(t, err)
		assert.NotEmpty(t, token.ID)
		assert.Equal(t, time.Hour, token.ExpiresIn)

		session, err := issuer.Validate(token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, p, session.Principal)
		assert.Equal(t, token.ID, session.TokenID)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := testIssuer()
	p := Customer{Identity: Identity{UserID: 1, Email: "c@bank.test"}, AccountID: 7, CustomerID: 3}

	expired, err := issuer.IssueWithTTL(p, -time.Minute)
	require.NoError(t, err)
	_, err = issuer.Validate(expired.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	foreign := NewTokenIssuer(config.JWTConfig{SecretKey: "other-secret", Expiry: time.Hour, Issuer: "ledgerbank"})
	forged, err := foreign.Issue(p)
	require.NoError(t, err)
	_, err = issuer.Validate(forged.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "c@bank.test", "role": "admin", "user_id": 1, "employee_id": 1,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Validate(none)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = issuer.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	noAccount, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "c@bank.test", "role": "customer", "user_id": 1, "iss": "ledgerbank",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = issuer.Validate(noAccount)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestPrincipalFromCredential(t *testing.T) {
	p, err := PrincipalFromCredential(models.Credential{
		UserID: 4, Email: "x@bank.test", Role: models.RoleAdmin, EmployeeID: models.Int64Ptr(9),
	})
	require.NoError(t, err)
	assert.Equal(t, Admin{Identity: Identity{UserID: 4, Email: "x@bank.test"}, EmployeeID: 9}, p)
	assert.True(t, IsStaff(p))
	assert.Equal(t, int64(4), ActorID(p))

	_, err = PrincipalFromCredential(models.Credential{Role: models.RoleEmployee})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = PrincipalFromCredential(models.Credential{Role: "root"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	assert.False(t, IsStaff(Customer{}))
}

func TestRedisSessionStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisSessionStore(db)
	ctx := context.Background()

	mock.ExpectSet("blacklist:abc", "1", 30*time.Minute).SetVal("OK")
	require.NoError(t, store.Revoke(ctx, "abc", 30*time.Minute))
	require.NoError(t, store.Revoke(ctx, "expired", -time.Second))

	mock.ExpectExists("blacklist:abc").SetVal(1)
	revoked, err := store.IsRevoked(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, revoked)

	mock.ExpectExists("blacklist:def").SetErr(errors.New("connection refused"))
	_, err = store.IsRevoked(ctx, "def")
	assert.ErrorIs(t, err, ErrSessionStore)

	mock.ExpectIncr("login_failures:a@bank.test").SetVal(1)
	mock.ExpectExpire("login_failures:a@bank.test", 15*time.Minute).SetVal(true)
	n, err := store.RecordFailure(ctx, "a@bank.test", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	mock.ExpectIncr("login_failures:a@bank.test").SetVal(2)
	n, err = store.RecordFailure(ctx, "a@bank.test", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectGet("login_failures:a@bank.test").SetVal("2")
	n, err = store.Failures(ctx, "a@bank.test")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectGet("login_failures:b@bank.test").RedisNil()
	n, err = store.Failures(ctx, "b@bank.test")
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectDel("login_failures:a@bank.test").SetVal(1)
	require.NoError(t, store.ResetFailures(ctx, "a@bank.test"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func newTestAuthenticator(t *testing.T, sessions SessionStore) (*Authenticator, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	hasher := NewPasswordHasher(testArgon2)
	a := NewAuthenticator(store, hasher, testIssuer(), sessions,
		config.AuthConfig{MaxFailedLogins: 3, LockoutWindow: 15 * time.Minute}, zerolog.Nop())

	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)
	_, err = store.CreateCustomer(context.Background(), models.NewCustomer{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@bank.test", PasswordHash: hash,
	})
	require.NoError(t, err)
	return a, store
}

func TestAuthenticator_Login(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a, _ := newTestAuthenticator(t, NewRedisSessionStore(db))
	ctx := context.Background()

	mock.ExpectGet("login_failures:ada@bank.test").RedisNil()
	mock.ExpectDel("login_failures:ada@bank.test").SetVal(0)

	token, p, err := a.Login(ctx, " ADA@bank.test ", "correct-horse")
	require.NoError(t, err)
	customer, ok := p.(Customer)
	require.True(t, ok)
	assert.NotZero(t, customer.AccountID)

	mock.ExpectExists("blacklist:" + token.ID).SetVal(0)
	session, err := a.ValidateBearer(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, p, session.Principal)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticator_WrongPasswordCountsFailure(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a, _ := newTestAuthenticator(t, NewRedisSessionStore(db))

	mock.ExpectGet("login_failures:ada@bank.test").SetVal("1")
	mock.ExpectIncr("login_failures:ada@bank.test").SetVal(2)

	_, err := a.Authenticate(context.Background(), "ada@bank.test", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	mock.ExpectGet("login_failures:ghost@bank.test").RedisNil()
	mock.ExpectIncr("login_failures:ghost@bank.test").SetVal(1)
	mock.ExpectExpire("login_failures:ghost@bank.test", 15*time.Minute).SetVal(true)

	_, err = a.Authenticate(context.Background(), "ghost@bank.test", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticator_LockedOut(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a, _ := newTestAuthenticator(t, NewRedisSessionStore(db))

	mock.ExpectGet("login_failures:ada@bank.test").SetVal("3")
	_, err := a.Authenticate(context.Background(), "ada@bank.test", "correct-horse")
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticator_DisabledCredential(t *testing.T) {
	a, store := newTestAuthenticator(t, NopSessionStore{})
	cred, err := store.CredentialByEmail(context.Background(), "ada@bank.test")
	require.NoError(t, err)
	require.NoError(t, store.DeleteCustomer(context.Background(), *cred.CustomerID))

	_, err = a.Authenticate(context.Background(), "ada@bank.test", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthenticator_Logout(t *testing.T) {
	db, mock := redismock.NewClientMock()
	a, _ := newTestAuthenticator(t, NewRedisSessionStore(db))
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	session := Session{TokenID: "tok-1", ExpiresAt: now.Add(20 * time.Minute)}
	mock.ExpectSet("blacklist:tok-1", "1", 20*time.Minute).SetVal("OK")
	require.NoError(t, a.Logout(context.Background(), session))

	token, err := a.tokens.Issue(Employee{Identity: Identity{UserID: 9, Email: "e@bank.test"}, EmployeeID: 2})
	require.NoError(t, err)
	mock.ExpectExists("blacklist:" + token.ID).SetVal(1)
	_, err = a.ValidateBearer(context.Background(), token.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredential)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContextHelpers(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	p := Admin{Identity: Identity{UserID: 1}, EmployeeID: 1}
	ctx := WithSession(context.Background(), Session{Principal: p, TokenID: "x"})
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)

	s, ok := SessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x", s.TokenID)
}

func TestProvisionStaff(t *testing.T) {
	store := memory.NewStore()
	hasher := NewPasswordHasher(testArgon2)
	ctx := context.Background()

	cred, err := ProvisionStaff(ctx, store, hasher, models.NewStaff{
		FirstName: "Root",
		LastName:  "Admin",
		Email:     "Root@Bank.test",
		Position:  "Administrator",
		Role:      models.RoleAdmin,
	}, "change-me-now")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, cred.Role)
	require.NotNil(t, cred.EmployeeID)
	assert.True(t, hasher.Verify("change-me-now", cred.PasswordHash))

	a := NewAuthenticator(store, hasher, testIssuer(), nil, config.AuthConfig{}, zerolog.Nop())
	p, err := a.Authenticate(ctx, "root@bank.test", "change-me-now")
	require.NoError(t, err)
	assert.IsType(t, Admin{}, p)

	_, err = ProvisionStaff(ctx, store, hasher, models.NewStaff{Email: "root@bank.test", Role: models.RoleAdmin}, "change-me-now")
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	_, err = ProvisionStaff(ctx, store, hasher, models.NewStaff{Email: "x@bank.test", Role: models.RoleCustomer}, "change-me-now")
	assert.Error(t, err)

	_, err = ProvisionStaff(ctx, store, hasher, models.NewStaff{Email: "y@bank.test", Role: models.RoleEmployee}, "short")
	assert.Error(t, err)
}
