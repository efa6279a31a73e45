package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// User is the profile document stored at users/{id}
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	UserID      string `json:"userId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// credential is the login record stored at credentials/{email}
type credential struct {
	Email        string `json:"email"`
	UserID       string `json:"userId"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    string `json:"createdAt"`
}

// Password represents a hashed password
type Password struct {
	plaintext *string
	hash      []byte
}

// Set hashes and stores a plaintext password
func (p *Password) Set(plaintextPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), 12)
	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash
	return nil
}

// Matches checks if a plaintext password matches the hash
func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}

// Token is a signed bearer token handed to clients
type Token struct {
	Plaintext string    `json:"token"`
	Expiry    time.Time `json:"expiry"`
}

// Claims are the JWT claims carried by a bearer token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"max=100"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *User  `json:"user"`
	Token *Token `json:"token"`
}

// Common authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired authentication token")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrUserNotFound       = errors.New("user not found")
)
