package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/squadron/asset-verification/internal/core/domain"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClockedStore(opts SessionOptions) (*SessionStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
	s := NewSessionStore(opts, zerolog.Nop())
	s.now = clock.now
	return s, clock
}

func TestSessionStore_CreateResolveDestroy(t *testing.T) {
	s, _ := newClockedStore(SessionOptions{})
	ctx := context.Background()

	sess, err := s.Create(ctx, 7)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if sess.Token == "" || sess.UserID != 7 {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != 24*time.Hour {
		t.Fatalf("expected default 24h ttl, got %s", got)
	}

	got, ok, err := s.Resolve(ctx, sess.Token)
	if err != nil || !ok {
		t.Fatalf("Resolve: ok=%v err=%v", ok, err)
	}
	if got.UserID != 7 {
		t.Fatalf("resolved wrong user: %d", got.UserID)
	}

	if err := s.Destroy(ctx, sess.Token); err != nil {
		t.Fatalf("Destroy returned error: %v", err)
	}
	if _, ok, _ := s.Resolve(ctx, sess.Token); ok {
		t.Fatalf("token still resolves after Destroy")
	}
	if err := s.Destroy(ctx, sess.Token); err != nil {
		t.Fatalf("second Destroy returned error: %v", err)
	}
}

func TestSessionStore_UnknownAndEmptyToken(t *testing.T) {
	s, _ := newClockedStore(SessionOptions{})
	for _, token := range []string{"", "not-a-token"} {
		sess, ok, err := s.Resolve(context.Background(), token)
		if err != nil || ok || sess != nil {
			t.Fatalf("token %q: got sess=%v ok=%v err=%v", token, sess, ok, err)
		}
	}
}

func TestSessionStore_AbsoluteExpiry(t *testing.T) {
	s, clock := newClockedStore(SessionOptions{TTL: time.Hour})
	sess, _ := s.Create(context.Background(), 1)

	clock.advance(59 * time.Minute)
	if _, ok, _ := s.Resolve(context.Background(), sess.Token); !ok {
		t.Fatalf("session expired early")
	}

	clock.advance(time.Minute)
	if _, ok, _ := s.Resolve(context.Background(), sess.Token); ok {
		t.Fatalf("session outlived its ttl")
	}
	if s.Len() != 0 {
		t.Fatalf("expired session should be removed on resolve")
	}
}

func TestSessionStore_IdleTimeout(t *testing.T) {
	s, clock := newClockedStore(SessionOptions{TTL: 24 * time.Hour, IdleTimeout: 10 * time.Minute})
	sess, _ := s.Create(context.Background(), 1)

	for i := 0; i < 3; i++ {
		clock.advance(9 * time.Minute)
		if _, ok, _ := s.Resolve(context.Background(), sess.Token); !ok {
			t.Fatalf("activity should keep the session alive (step %d)", i)
		}
	}

	clock.advance(10 * time.Minute)
	if _, ok, _ := s.Resolve(context.Background(), sess.Token); ok {
		t.Fatalf("idle session should expire")
	}
}

func TestSessionStore_PurgeExpired(t *testing.T) {
	var purged int
	s, clock := newClockedStore(SessionOptions{TTL: time.Hour, OnPurge: func(n int) { purged += n }})
	ctx := context.Background()

	_, _ = s.Create(ctx, 1)
	_, _ = s.Create(ctx, 2)
	clock.advance(30 * time.Minute)
	live, _ := s.Create(ctx, 3)
	clock.advance(45 * time.Minute)

	if n := s.PurgeExpired(); n != 2 {
		t.Fatalf("expected 2 purged, got %d", n)
	}
	if _, ok, _ := s.Resolve(ctx, live.Token); !ok {
		t.Fatalf("live session was purged")
	}
	if purged != 0 {
		t.Fatalf("OnPurge is reserved for the janitor, got %d", purged)
	}
}

func TestSessionStore_DistinctTokensConcurrent(t *testing.T) {
	s := NewSessionStore(SessionOptions{}, zerolog.Nop())

	const n = 200
	tokens := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			sess, err := s.Create(context.Background(), id)
			if err != nil {
				t.Errorf("Create: %v", err)
				return
			}
			tokens <- sess.Token
		}(int64(i))
	}
	wg.Wait()
	close(tokens)

	seen := make(map[string]bool, n)
	for tok := range tokens {
		if seen[tok] {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = true
	}
	if s.Len() != n {
		t.Fatalf("expected %d sessions, got %d", n, s.Len())
	}
}

func TestSessionStore_TokenCollisionsExhausted(t *testing.T) {
	s := NewSessionStore(SessionOptions{}, zerolog.Nop())
	s.newToken = func() string { return "same" }

	if _, err := s.Create(context.Background(), 1); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := s.Create(context.Background(), 2); !errors.Is(err, errTokenSpace) {
		t.Fatalf("expected errTokenSpace, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
}

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &domain.User{Username: "sarah.chen", Email: "Sarah@Example.com", Role: domain.RoleFinance})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("expected id 1, got %d", u.ID)
	}

	if got, err := repo.FindByID(ctx, u.ID); err != nil || got.Username != "sarah.chen" {
		t.Fatalf("FindByID: %v %v", got, err)
	}
	if got, err := repo.FindByEmail(ctx, "sarah@example.com"); err != nil || got.ID != u.ID {
		t.Fatalf("FindByEmail: %v %v", got, err)
	}
	if _, err := repo.FindByUsername(ctx, "nobody"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByEmail(ctx, ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("empty email must not match, got %v", err)
	}

	// mutating the returned copy must not leak into the store
	u.Role = domain.RoleAdminManager
	stored, _ := repo.FindByID(ctx, 1)
	if stored.Role != domain.RoleFinance {
		t.Fatalf("store returned a shared pointer")
	}
}

func TestUserRepository_ConcurrentDuplicate(t *testing.T) {
	repo := NewUserRepository()

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(context.Background(), &domain.User{Username: "dup"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrUserExists):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || conflicts != n-1 {
		t.Fatalf("expected 1 winner and %d conflicts, got %d/%d", n-1, wins, conflicts)
	}
}

func TestUserRepository_ListOrdered(t *testing.T) {
	repo := NewUserRepository()
	for _, name := range []string{"c", "a", "b"} {
		if _, err := repo.Create(context.Background(), &domain.User{Username: name}); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	users, _ := repo.List(context.Background())
	if len(users) != 3 || users[0].Username != "c" || users[2].Username != "b" {
		t.Fatalf("unexpected order: %v", users)
	}
}

func TestAuditRepository_RingAndOrder(t *testing.T) {
	repo := NewAuditRepository(3)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d"} {
		_ = repo.InsertEvent(ctx, &domain.AuthEvent{Kind: domain.EventLogout, Username: name})
	}

	events, err := repo.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("RecentEvents returned error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 retained events, got %d", len(events))
	}
	if events[0].Username != "d" || events[2].Username != "b" {
		t.Fatalf("expected newest first, got %s..%s", events[0].Username, events[2].Username)
	}

	two, _ := repo.RecentEvents(ctx, 2)
	if len(two) != 2 || two[1].Username != "c" {
		t.Fatalf("unexpected limited result: %v", two)
	}
}
