package memory

import (
	"context"
	"sync"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

const defaultAuditCapacity = 1000

// AuditRepository keeps the most recent auth events in a ring.
type AuditRepository struct {
	mu     sync.Mutex
	events []*domain.AuthEvent
	limit  int
}

var _ ports.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository keeps at most capacity events; older ones are discarded.
func NewAuditRepository(capacity int) *AuditRepository {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &AuditRepository{limit: capacity}
}

func (r *AuditRepository) InsertEvent(_ context.Context, event *domain.AuthEvent) error {
	ev := *event

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, &ev)
	if over := len(r.events) - r.limit; over > 0 {
		r.events = append(r.events[:0:0], r.events[over:]...)
	}
	return nil
}

func (r *AuditRepository) RecentEvents(_ context.Context, limit int) ([]*domain.AuthEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.events) {
		limit = len(r.events)
	}
	out := make([]*domain.AuthEvent, 0, limit)
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		ev := *r.events[i]
		out = append(out, &ev)
	}
	return out, nil
}
