package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/squadron/asset-verification/internal/core/domain"
)

const probeKey = "me"

// CurrentUser returns the session state, probing /api/auth/me on first use.
// Concurrent callers share one probe. After a failed probe the next call
// re-probes once the retry interval has passed.
func (c *Client) CurrentUser(ctx context.Context) Snapshot {
	c.mu.Lock()
	snap := c.snap
	stale := snap.State == StateUnknown ||
		(snap.State == StateProbeFailed && c.now().Sub(c.probedAt) >= c.retry)
	c.mu.Unlock()

	if !stale {
		return snap
	}
	return c.probe(ctx)
}

// Refresh probes the server regardless of the cached state.
func (c *Client) Refresh(ctx context.Context) Snapshot {
	return c.probe(ctx)
}

func (c *Client) probe(ctx context.Context) Snapshot {
	// the shared probe must outlive any single caller's context
	shared := context.WithoutCancel(ctx)
	ch := c.probes.DoChan(probeKey, func() (any, error) {
		return c.runProbe(shared), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Snapshot)
	case <-ctx.Done():
		return c.Snapshot()
	}
}

func (c *Client) runProbe(ctx context.Context) Snapshot {
	c.mu.Lock()
	start := c.ticket
	c.mu.Unlock()

	user, err := c.fetchMe(ctx)

	c.mu.Lock()
	if c.ticket != start {
		// a login or logout started meanwhile and owns the state
		snap := c.snap
		c.mu.Unlock()
		return snap
	}
	c.probedAt = c.now()

	var next Snapshot
	switch {
	case err == nil:
		next = Snapshot{State: StateAuthenticated, User: user}
	case errors.Is(err, errUnauthorized):
		next = Snapshot{State: StateAnonymous}
	default:
		next = Snapshot{State: StateProbeFailed, Err: err}
	}
	subs := c.setLocked(next)
	c.mu.Unlock()

	if next.State == StateProbeFailed {
		c.log.Warn().Err(err).Msg("session probe failed")
	}
	publish(subs, next)
	return next
}

func (c *Client) fetchMe(ctx context.Context) (*domain.User, error) {
	status, data, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return decodeUser(data)
	case http.StatusUnauthorized:
		return nil, errUnauthorized
	default:
		return nil, unexpected(status, data)
	}
}
