package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

var errIncompleteEvent = errors.New("audit event missing kind or timestamp")

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService writing to repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record validates and persists a single auth event.
func (s *auditService) Record(ctx context.Context, ev domain.AuthEvent) error {
	if ev.Kind == "" || ev.Timestamp.IsZero() {
		return fmt.Errorf("record audit event: %w", errIncompleteEvent)
	}

	if err := s.repo.InsertEvent(ctx, &ev); err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}

	s.log.Debug().
		Str("kind", string(ev.Kind)).
		Str("username", ev.Username).
		Msg("audit event recorded")
	return nil
}
