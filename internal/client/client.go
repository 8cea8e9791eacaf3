// Package client is a Go consumer of the auth HTTP API. It keeps the signed-in
// user, moves through the Unknown/Authenticated/Anonymous/ProbeFailed states
// and tells a UI shell where to navigate after login and logout.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/squadron/asset-verification/internal/core/domain"
)

const (
	defaultTimeout            = 10 * time.Second
	defaultProbeRetryInterval = 5 * time.Second
)

// State is the client's view of the session.
type State int

const (
	// StateUnknown means no probe has completed yet. UIs show a loading view.
	StateUnknown State = iota
	StateAuthenticated
	StateAnonymous
	// StateProbeFailed means the last /me probe failed for a reason other
	// than 401. It is not the same as being signed out.
	StateProbeFailed
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	case StateProbeFailed:
		return "probe_failed"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of the client state.
type Snapshot struct {
	State State
	User  *domain.User
	// Err is the probe failure while State is StateProbeFailed.
	Err error
}

// Loading reports whether the session is still being determined.
func (s Snapshot) Loading() bool { return s.State == StateUnknown }

// Level classifies a Notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is a user-facing message, typically rendered as a toast.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Navigator moves the UI to a route.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type Options struct {
	// BaseURL is the server origin, e.g. http://localhost:5000.
	BaseURL string
	// HTTPClient overrides the default client. A cookie jar is attached when
	// it has none.
	HTTPClient *http.Client
	// Timeout applies per request when HTTPClient is nil.
	Timeout            time.Duration
	Navigator          Navigator
	Notifier           Notifier
	ProbeRetryInterval time.Duration
	Log                zerolog.Logger
}

// Client is safe for concurrent use.
type Client struct {
	base   string
	http   *http.Client
	nav    Navigator
	notify Notifier
	retry  time.Duration
	log    zerolog.Logger
	now    func() time.Time

	probes singleflight.Group

	mu           sync.Mutex
	snap         Snapshot
	probedAt     time.Time
	ticket       uint64
	cancelActive context.CancelFunc
	subs         map[int]func(Snapshot)
	nextSub      int
}

// New returns a client in StateUnknown.
func New(opts Options) (*Client, error) {
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("client: cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	retry := opts.ProbeRetryInterval
	if retry <= 0 {
		retry = defaultProbeRetryInterval
	}
	nav := opts.Navigator
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	notify := opts.Notifier
	if notify == nil {
		notify = NotifierFunc(func(Notification) {})
	}

	return &Client{
		base:   strings.TrimRight(u.String(), "/"),
		http:   hc,
		nav:    nav,
		notify: notify,
		retry:  retry,
		log:    opts.Log,
		now:    time.Now,
		subs:   make(map[int]func(Snapshot)),
	}, nil
}

// Snapshot returns the current state without probing.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers fn for every state change and returns a function that
// removes it. fn runs on the goroutine that caused the change.
func (c *Client) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// setLocked stores s and returns the subscribers to call once mu is released.
func (c *Client) setLocked(s Snapshot) []func(Snapshot) {
	c.snap = s
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(Snapshot), s Snapshot) {
	for _, fn := range subs {
		fn(s)
	}
}

// supersedeLocked cancels the login still in flight, if any, and takes a new
// ticket. Results carrying an older ticket are dropped.
func (c *Client) supersedeLocked() uint64 {
	if c.cancelActive != nil {
		c.cancelActive()
		c.cancelActive = nil
	}
	c.ticket++
	return c.ticket
}

// beginLogin supersedes any login or logout still in flight. The returned
// context is cancelled when a newer login or logout starts or done is called.
func (c *Client) beginLogin(ctx context.Context) (context.Context, uint64, func()) {
	mctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	t := c.supersedeLocked()
	c.cancelActive = cancel
	c.mu.Unlock()

	done := func() {
		c.mu.Lock()
		if c.ticket == t {
			c.cancelActive = nil
		}
		c.mu.Unlock()
		cancel()
	}
	return mctx, t, done
}
