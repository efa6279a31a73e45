package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsmarker/internal/core"
	"newsmarker/internal/docstore"
)

const (
	usersCollection       = "users"
	credentialsCollection = "credentials"
)

// UserModel persists profiles and credentials in the docstore
type UserModel struct {
	store  *docstore.Store
	logger *core.Logger
}

// NewUserModel creates a new user model
func NewUserModel(store *docstore.Store, logger *core.Logger) *UserModel {
	return &UserModel{
		store:  store,
		logger: logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Insert claims the email and writes the profile in one batch
func (m *UserModel) Insert(ctx context.Context, user *User, password *Password) error {
	email := normalizeEmail(user.Email)
	credRef := m.store.Collection(credentialsCollection).Doc(email)

	// The credential doc is keyed by email so Create doubles as the
	// uniqueness check.
	err := credRef.Create(ctx, credential{
		Email:        email,
		UserID:       user.ID,
		PasswordHash: string(password.hash),
		CreatedAt:    user.CreatedAt,
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	if err := m.store.Collection(usersCollection).Doc(user.ID).Set(ctx, user, docstore.Merge()); err != nil {
		// Release the email so the user can retry
		if delErr := credRef.Delete(ctx); delErr != nil {
			m.logger.Error("Failed to release credential after profile write failure", "email", email, "error", delErr)
		}
		return fmt.Errorf("failed to store profile: %w", err)
	}

	return nil
}

// GetCredentials returns the stored password for an email
func (m *UserModel) GetCredentials(ctx context.Context, email string) (string, *Password, error) {
	snap, err := m.store.Collection(credentialsCollection).Doc(normalizeEmail(email)).Get(ctx)
	if err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, err
	}
	if !snap.Exists() {
		return "", nil, ErrUserNotFound
	}

	var cred credential
	if err := snap.DataTo(&cred); err != nil {
		return "", nil, fmt.Errorf("failed to decode credentials: %w", err)
	}

	return cred.UserID, &Password{hash: []byte(cred.PasswordHash)}, nil
}

// GetByID loads a profile document
func (m *UserModel) GetByID(ctx context.Context, userID string) (*User, error) {
	snap, err := m.store.Collection(usersCollection).Doc(userID).Get(ctx)
	if err != nil {
		if errors.Is(err, docstore.ErrInvalidPath) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !snap.Exists() {
		return nil, ErrUserNotFound
	}

	var user User
	if err := snap.DataTo(&user); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &user, nil
}
