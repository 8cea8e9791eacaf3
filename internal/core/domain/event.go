package domain

import "time"

// AuthEventKind names an auth transition worth keeping in the audit trail.
type AuthEventKind string

const (
	EventLoginSucceeded AuthEventKind = "login_succeeded"
	EventLoginFailed    AuthEventKind = "login_failed"
	EventLogout         AuthEventKind = "logout"
	EventRegistered     AuthEventKind = "registered"
)

// AuthEvent is a single audit trail entry.
type AuthEvent struct {
	Kind       AuthEventKind `json:"kind" bson:"kind"`
	Username   string        `json:"username" bson:"username"`
	Role       Role          `json:"role,omitempty" bson:"role,omitempty"`
	RemoteAddr string        `json:"remote_addr,omitempty" bson:"remote_addr,omitempty"`
	Timestamp  time.Time     `json:"timestamp" bson:"timestamp"`
}
