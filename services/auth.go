package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/adamkcs/TaskPlannerAPI/database"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrMissingSigningKey  = errors.New("jwt signing key is not configured")
)

// DefaultTokenDuration is how long an issued token stays valid
const DefaultTokenDuration = time.Hour

// Identity is the caller recovered from a valid token
type Identity struct {
	UserID   string
	Username string
}

// Claims carries the user id in sub and the display name in unique_name
type Claims struct {
	UniqueName string `json:"unique_name"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	duration time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service. An empty secret is rejected.
func NewTokenService(secret, issuer, audience string, duration time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSigningKey
	}
	if duration <= 0 {
		duration = DefaultTokenDuration
	}
	return &TokenService{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		duration: duration,
		now:      time.Now,
	}, nil
}

// Issue creates a signed token for the user
func (s *TokenService) Issue(userID, username string) (string, error) {
	now := s.now()
	claims := Claims{
		UniqueName: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks signature, issuer, audience and expiry with no clock skew allowance.
// Every failure wraps ErrInvalidToken.
func (s *TokenService) Validate(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: subject claim missing", ErrInvalidToken)
	}

	return &Identity{UserID: claims.Subject, Username: claims.UniqueName}, nil
}

// UserStore is the subset of the identity store the auth service needs
type UserStore interface {
	CreateUser(ctx context.Context, u *database.User) error
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
}

// AuthService registers users and exchanges credentials for tokens
type AuthService struct {
	users     UserStore
	tokens    *TokenService
	passwords *PasswordManager
	dummyHash []byte
}

func NewAuthService(users UserStore, tokens *TokenService, passwords *PasswordManager) (*AuthService, error) {
	if passwords == nil {
		passwords = NewPasswordManager()
	}
	// compared against when the username is unknown so both login failures cost one bcrypt run
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), passwords.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare auth service: %w", err)
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		dummyHash: dummy,
	}, nil
}

// Register validates the credentials and stores a new user with a hashed password
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*database.User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	if email != "" {
		if err := ValidateEmail(email); err != nil {
			return nil, err
		}
	}

	hashed, err := s.passwords.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &database.User{Username: username, Email: email, PasswordHash: hashed}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrConflict) {
			return nil, ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login verifies the credentials and issues a token. Unknown users and wrong passwords
// both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return "", fmt.Errorf("failed to look up user: %w", err)
		}
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}

	if err := s.passwords.ComparePassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return token, nil
}
