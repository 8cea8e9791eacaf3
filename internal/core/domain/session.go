package domain

import "time"

// Session binds an opaque token to a user for a bounded lifetime.
// The token is only ever presented back by the client; it carries no meaning.
type Session struct {
	Token      string    `json:"token"`
	UserID     int64     `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Expired reports whether the session is no longer usable at now.
// idle is the sliding inactivity window; zero disables it.
func (s *Session) Expired(now time.Time, idle time.Duration) bool {
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return true
	}
	if idle > 0 && !s.LastSeenAt.IsZero() && now.Sub(s.LastSeenAt) >= idle {
		return true
	}
	return false
}
