package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/adamkcs/TaskPlannerAPI/database"
)

const testSecret = "test-secret-key-with-enough-length"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService(testSecret, "TaskPlannerAPI", "TaskPlannerAPIUsers", time.Hour)
	require.NoError(t, err)
	return ts
}

func newTestAuthService(t *testing.T) (*AuthService, *TokenService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	store, err := database.InitDB(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	pm := NewPasswordManager()
	pm.cost = bcrypt.MinCost
	tokens := newTestTokenService(t)
	auth, err := NewAuthService(store, tokens, pm)
	require.NoError(t, err)
	return auth, tokens
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService("", "iss", "aud", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSigningKey)
}

func TestTokenService_IssueAndValidate(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue("user-1", "alice")
	require.NoError(t, err)

	identity, err := ts.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "alice", identity.Username)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UniqueName)
	assert.Equal(t, "TaskPlannerAPI", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"TaskPlannerAPIUsers"}, claims.Audience)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenService_Expiry(t *testing.T) {
	ts := newTestTokenService(t)
	issuedAt := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return issuedAt }

	token, err := ts.Issue("user-1", "alice")
	require.NoError(t, err)

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"just issued", issuedAt, false},
		{"one second before expiry", issuedAt.Add(time.Hour - time.Second), false},
		{"one second after expiry", issuedAt.Add(time.Hour + time.Second), true},
		{"a day later", issuedAt.Add(24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			ts.now = func() time.Time { return at }
			_, err := ts.Validate(token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	ts := newTestTokenService(t)

	otherKey, err := NewTokenService("another-secret-key", "TaskPlannerAPI", "TaskPlannerAPIUsers", time.Hour)
	require.NoError(t, err)
	otherIssuer, err := NewTokenService(testSecret, "SomeoneElse", "TaskPlannerAPIUsers", time.Hour)
	require.NoError(t, err)
	otherAudience, err := NewTokenService(testSecret, "TaskPlannerAPI", "Elsewhere", time.Hour)
	require.NoError(t, err)

	noExpiry := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "user-1",
			Issuer:   "TaskPlannerAPI",
			Audience: jwt.ClaimStrings{"TaskPlannerAPIUsers"},
		},
	})
	noExpiryToken, err := noExpiry.SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		issuer *TokenService
		token  string
	}{
		{"different key", otherKey, ""},
		{"different issuer", otherIssuer, ""},
		{"different audience", otherAudience, ""},
		{"no expiry", nil, noExpiryToken},
		{"garbage", nil, "not.a.token"},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if tt.issuer != nil {
				issued, err := tt.issuer.Issue("user-1", "alice")
				require.NoError(t, err)
				token = issued
			}
			_, err := ts.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestAuthService_RegisterLoginValidate(t *testing.T) {
	auth, tokens := newTestAuthService(t)
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice", "alice@example.com", "Secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Secret123")))

	token, err := auth.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	identity, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)
}

func TestAuthService_Register(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	_, err := auth.Register(ctx, "taken", "", "Secret123")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{"duplicate username", "taken", "", "Secret123", ErrDuplicateUsername},
		{"short username", "ab", "", "Secret123", ErrInvalidUsername},
		{"bad username characters", "bad name!", "", "Secret123", ErrInvalidUsername},
		{"bad email", "bob", "not-an-email", "Secret123", ErrInvalidEmail},
		{"short password", "bob", "", "Se1", ErrWeakPassword},
		{"no uppercase", "bob", "", "secret123", ErrWeakPassword},
		{"no digit", "bob", "", "SecretPass", ErrWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Register(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	auth, _ := newTestAuthService(t)
	ctx := context.Background()
	_, err := auth.Register(ctx, "alice", "", "Secret123")
	require.NoError(t, err)

	_, wrongPassword := auth.Login(ctx, "alice", "Wrong1234")
	_, unknownUser := auth.Login(ctx, "mallory", "Secret123")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}
