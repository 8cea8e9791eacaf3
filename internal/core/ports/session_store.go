package ports

import (
	"context"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// SessionStore owns the token → user mapping.
type SessionStore interface {
	// Create issues a token unique among live sessions for userID.
	Create(ctx context.Context, userID int64) (*domain.Session, error)
	// Resolve looks token up. Unknown, empty or expired tokens yield ok=false
	// with a nil error; err is reserved for backend failures.
	Resolve(ctx context.Context, token string) (session *domain.Session, ok bool, err error)
	// Destroy removes token. Destroying an unknown token is a no-op.
	Destroy(ctx context.Context, token string) error
}
