// Package guard decides whether a page may render for the current user.
//
// Decisions are advisory: they drive navigation in a UI shell. Data endpoints
// enforce roles on the server regardless of what the guard said.
package guard

import "github.com/squadron/asset-verification/internal/core/domain"

// Kind is the outcome of a guard check.
type Kind int

const (
	// Loading means the current user is not known yet; show a placeholder.
	Loading Kind = iota
	Render
	Redirect
	// NotFound means no route matches the path.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON responses.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Decision is what a route should do. Path is set only for Redirect.
type Decision struct {
	Kind Kind   `json:"kind"`
	Path string `json:"path,omitempty"`
}

// Authorize is the guard contract for a single protected page. While the user
// is loading nothing else is considered; an anonymous user and a user whose
// role is not in allowed are both sent to the entry route.
func Authorize(user *domain.User, isLoading bool, allowed []domain.Role) Decision {
	if isLoading {
		return Decision{Kind: Loading}
	}
	if user == nil || !user.HasRole(allowed...) {
		return Decision{Kind: Redirect, Path: domain.EntryRoute}
	}
	return Decision{Kind: Render}
}
