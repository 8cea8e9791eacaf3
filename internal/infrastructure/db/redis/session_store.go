package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

const (
	defaultSessionTTL = 24 * time.Hour
	maxTokenAttempts  = 4
)

var errTokenSpace = errors.New("could not allocate a unique session token")

// SessionStore keeps sessions in Redis under session:<token>, expiring with
// the key TTL.
type SessionStore struct {
	client redis.UniversalClient
	ttl    time.Duration
	idle   time.Duration
	now    func() time.Time
}

var _ ports.SessionStore = (*SessionStore)(nil)

// NewSessionStore creates a SessionStore. A positive idle enables sliding
// expiry: each successful Resolve pushes the key TTL out to min(idle, time left).
func NewSessionStore(client redis.UniversalClient, ttl, idle time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionStore{client: client, ttl: ttl, idle: idle, now: time.Now}
}

type sessionRecord struct {
	UserID     int64 `json:"uid"`
	CreatedAt  int64 `json:"iat"`
	ExpiresAt  int64 `json:"exp"`
	LastSeenAt int64 `json:"seen"`
}

func (s *SessionStore) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	now := s.now().UTC()
	sess := &domain.Session{
		UserID:     userID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
		LastSeenAt: now,
	}
	payload, err := json.Marshal(toRecord(sess))
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	for i := 0; i < maxTokenAttempts; i++ {
		token := uuid.NewString()
		ok, err := s.client.SetNX(ctx, s.key(token), payload, s.keyTTL(sess, now)).Result()
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		if ok {
			sess.Token = token
			return sess, nil
		}
	}
	return nil, errTokenSpace
}

func (s *SessionStore) Resolve(ctx context.Context, token string) (*domain.Session, bool, error) {
	if token == "" {
		return nil, false, nil
	}

	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolve session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		// unreadable entries are treated as absent and removed
		_ = s.client.Del(ctx, s.key(token)).Err()
		return nil, false, nil
	}

	sess := rec.toSession(token)
	now := s.now().UTC()
	if sess.Expired(now, s.idle) {
		_ = s.client.Del(ctx, s.key(token)).Err()
		return nil, false, nil
	}

	if s.idle > 0 {
		sess.LastSeenAt = now
		payload, err := json.Marshal(toRecord(sess))
		if err != nil {
			return nil, false, fmt.Errorf("encode session: %w", err)
		}
		if err := s.client.SetXX(ctx, s.key(token), payload, s.keyTTL(sess, now)).Err(); err != nil {
			return nil, false, fmt.Errorf("renew session: %w", err)
		}
	}
	return sess, true, nil
}

func (s *SessionStore) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *SessionStore) keyTTL(sess *domain.Session, now time.Time) time.Duration {
	left := sess.ExpiresAt.Sub(now)
	if s.idle > 0 && s.idle < left {
		return s.idle
	}
	return left
}

func (s *SessionStore) key(token string) string {
	return "session:" + token
}

func toRecord(sess *domain.Session) sessionRecord {
	return sessionRecord{
		UserID:     sess.UserID,
		CreatedAt:  sess.CreatedAt.Unix(),
		ExpiresAt:  sess.ExpiresAt.Unix(),
		LastSeenAt: sess.LastSeenAt.Unix(),
	}
}

func (r sessionRecord) toSession(token string) *domain.Session {
	return &domain.Session{
		Token:      token,
		UserID:     r.UserID,
		CreatedAt:  time.Unix(r.CreatedAt, 0).UTC(),
		ExpiresAt:  time.Unix(r.ExpiresAt, 0).UTC(),
		LastSeenAt: time.Unix(r.LastSeenAt, 0).UTC(),
	}
}
