package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore/docstoretest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := docstoretest.New(t)
	return NewService(store, core.NewLogger(), core.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
}

func TestRegisterCreatesProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "  Reader@Example.com ", "correct horse", "")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if user.ID == "" || user.UserID != user.ID {
		t.Errorf("Expected id and userId to match, got %q / %q", user.ID, user.UserID)
	}
	if user.Email != "reader@example.com" {
		t.Errorf("Expected normalized email, got %q", user.Email)
	}
	if user.DisplayName != "reader" {
		t.Errorf("Expected display name derived from email, got %q", user.DisplayName)
	}
	if user.CreatedAt == "" || user.CreatedAt != user.UpdatedAt {
		t.Errorf("Expected matching timestamps, got %q / %q", user.CreatedAt, user.UpdatedAt)
	}

	stored, err := svc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if *stored != *user {
		t.Errorf("Stored profile differs: %+v vs %+v", stored, user)
	}

	if _, err := svc.Register(ctx, "reader@example.com", "another pass", "Other"); !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "reader@example.com", "correct horse", "Reader")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := svc.AuthenticateUser(ctx, "READER@example.com", "correct horse")
	if err != nil {
		t.Fatalf("AuthenticateUser failed: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("Expected user %s, got %s", registered.ID, user.ID)
	}

	if _, err := svc.AuthenticateUser(ctx, "reader@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if _, err := svc.AuthenticateUser(ctx, "nobody@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	user := &User{ID: "user-1", Email: "reader@example.com"}

	token, err := svc.CreateAuthenticationToken(user)
	if err != nil {
		t.Fatalf("CreateAuthenticationToken failed: %v", err)
	}

	userID, err := svc.VerifyToken(ctx, token.Plaintext)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("Expected subject user-1, got %s", userID)
	}

	other := NewService(docstoretest.New(t), core.NewLogger(), core.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour})
	if _, err := other.VerifyToken(ctx, token.Plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for foreign secret, got %v", err)
	}

	if _, err := svc.VerifyToken(ctx, "not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestService(t)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return issued })

	token, err := svc.CreateAuthenticationToken(&User{ID: "user-1"})
	if err != nil {
		t.Fatalf("CreateAuthenticationToken failed: %v", err)
	}

	svc.SetClock(func() time.Time { return issued.Add(2 * time.Hour) })
	if _, err := svc.VerifyToken(context.Background(), token.Plaintext); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected expired token to be rejected, got %v", err)
	}
}
