package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

const (
	defaultSessionTTL = 24 * time.Hour
	maxTokenAttempts  = 4
)

var errTokenSpace = errors.New("could not allocate a unique session token")

// SessionOptions configures a SessionStore.
type SessionOptions struct {
	// TTL is the absolute lifetime of a session. Zero means 24h.
	TTL time.Duration
	// IdleTimeout expires sessions not resolved for this long. Zero disables it.
	IdleTimeout time.Duration
	// OnPurge is called with the number of sessions removed by each janitor sweep.
	OnPurge func(n int)
}

// SessionStore keeps sessions in a process-local map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	opts     SessionOptions
	log      zerolog.Logger
	now      func() time.Time
	newToken func() string
}

var _ ports.SessionStore = (*SessionStore)(nil)

func NewSessionStore(opts SessionOptions, log zerolog.Logger) *SessionStore {
	if opts.TTL <= 0 {
		opts.TTL = defaultSessionTTL
	}
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
		opts:     opts,
		log:      log,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (s *SessionStore) Create(_ context.Context, userID int64) (*domain.Session, error) {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < maxTokenAttempts; i++ {
		token := s.newToken()
		if _, taken := s.sessions[token]; taken {
			continue
		}
		sess := &domain.Session{
			Token:      token,
			UserID:     userID,
			CreatedAt:  now,
			ExpiresAt:  now.Add(s.opts.TTL),
			LastSeenAt: now,
		}
		s.sessions[token] = sess
		out := *sess
		return &out, nil
	}
	return nil, errTokenSpace
}

func (s *SessionStore) Resolve(_ context.Context, token string) (*domain.Session, bool, error) {
	if token == "" {
		return nil, false, nil
	}
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, false, nil
	}
	if sess.Expired(now, s.opts.IdleTimeout) {
		delete(s.sessions, token)
		return nil, false, nil
	}
	sess.LastSeenAt = now
	out := *sess
	return &out, true, nil
}

func (s *SessionStore) Destroy(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PurgeExpired removes every expired session and returns how many were dropped.
func (s *SessionStore) PurgeExpired() int {
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for token, sess := range s.sessions {
		if sess.Expired(now, s.opts.IdleTimeout) {
			delete(s.sessions, token)
			n++
		}
	}
	return n
}

// StartJanitor purges expired sessions every interval until ctx is cancelled.
func (s *SessionStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n := s.PurgeExpired()
				if n == 0 {
					continue
				}
				s.log.Debug().Int("purged", n).Msg("expired sessions removed")
				if s.opts.OnPurge != nil {
					s.opts.OnPurge(n)
				}
			}
		}
	}()
}
