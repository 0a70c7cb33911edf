package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Get(ctx context.Context, id snowflake.ID) (*User, error)
	SetCustomerProfileRef(ctx context.Context, id snowflake.ID, ref string) error
}

var (
	ErrNotFound        = errors.New("user_not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrEmailTaken      = errors.New("email_taken")
)
