package ports

import (
	"context"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// LoginInput carries a login attempt. Either Username+Password or, for demo
// flows, Role alone. RemoteAddr is recorded in the audit trail only.
type LoginInput struct {
	Username   string
	Password   string
	Role       domain.Role
	RemoteAddr string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	User    *domain.User
	Session *domain.Session
	// Landing is the role's default route.
	Landing string
}

// RegisterInput carries a self-service registration. Every field is required;
// the label tag is the name reported back in a MissingFieldError.
type RegisterInput struct {
	Username   string `validate:"required" label:"username"`
	Password   string `validate:"required" label:"password"`
	Role       string `validate:"required" label:"role"`
	Name       string `validate:"required" label:"name"`
	Email      string `validate:"required" label:"email"`
	Phone      string `validate:"required" label:"phone"`
	Department string `validate:"required" label:"department"`
	EmployeeID string `validate:"required" label:"employeeId"`
	RemoteAddr string `validate:"-"`
}

// AuthService defines the authentication use cases.
type AuthService interface {
	VerifyCredentials(ctx context.Context, identifier, secret string) (*domain.User, error)
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	// ResolveSession returns the user behind token or domain.ErrUnauthenticated.
	ResolveSession(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token, remoteAddr string) error
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}
