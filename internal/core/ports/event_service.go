package ports

import (
	"context"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// AuditService records auth events.
type AuditService interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditSink accepts events without blocking the caller.
type AuditSink interface {
	Enqueue(event domain.AuthEvent)
}
