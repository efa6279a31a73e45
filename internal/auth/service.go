package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
)

// Verifier resolves a bearer token to the id of the user it was issued to
type Verifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Service provides authentication functionality
type Service struct {
	users    *UserModel
	logger   *core.Logger
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// NewService creates a new authentication service
func NewService(store *docstore.Store, logger *core.Logger, config core.AuthConfig) *Service {
	return &Service{
		users:    NewUserModel(store, logger),
		logger:   logger,
		secret:   []byte(config.JWTSecret),
		tokenTTL: config.TokenTTL,
		now:      time.Now,
	}
}

// Register creates the login and the users/{uid} profile document
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*User, error) {
	var pw Password
	if err := pw.Set(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.NewString()
	now := docstore.Timestamp(s.now())
	email = normalizeEmail(email)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}

	user := &User{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
		UserID:      id,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.Insert(ctx, user, &pw); err != nil {
		return nil, err
	}

	s.logger.Info("Created user profile", "user_id", id)
	return user, nil
}

// AuthenticateUser checks an email and password pair
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	userID, pw, err := s.users.GetCredentials(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := pw.Matches(password)
	if err != nil {
		return nil, err
	}
	if !match {
		return nil, ErrInvalidCredentials
	}

	return s.users.GetByID(ctx, userID)
}

// CreateAuthenticationToken signs a bearer token for user
func (s *Service) CreateAuthenticationToken(user *User) (*Token, error) {
	now := s.now()
	exp := now.Add(s.tokenTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: user.Email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign jwt: %w", err)
	}

	return &Token{Plaintext: signed, Expiry: exp}, nil
}

// VerifyToken validates a bearer token and returns its subject
func (s *Service) VerifyToken(ctx context.Context, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// GetUser returns the profile for userID
func (s *Service) GetUser(ctx context.Context, userID string) (*User, error) {
	return s.users.GetByID(ctx, userID)
}

// SetClock overrides the clock used for token and profile timestamps
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
