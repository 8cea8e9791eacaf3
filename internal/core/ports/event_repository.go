package ports

import (
	"context"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// AuditRepository persists the auth audit trail.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
	// RecentEvents returns up to limit events, newest first.
	RecentEvents(ctx context.Context, limit int) ([]*domain.AuthEvent, error)
}
