package auth

import (
	"context"
	"time"
)

// LoginPath is the one mutating route reachable without a token.
const LoginPath = "/api/auth/login"

// Service defines the interface for operator authentication.
type Service interface {
	Login(ctx context.Context, email, password string) (*Token, error)
	// Verify checks a signed token and returns its subject.
	Verify(token string) (string, error)
}

// Operator is the single account allowed to change inventory.
type Operator struct {
	Email        string
	PasswordHash string
}

// Token is a signed bearer token and the moment it stops being accepted.
type Token struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
