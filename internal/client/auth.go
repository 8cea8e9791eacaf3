package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/squadron/asset-verification/internal/core/domain"
)

// Credentials is a login attempt. Role alone selects a demo account when the
// server allows it; sent together with a username it must match the user.
type Credentials struct {
	Username string      `json:"username,omitempty"`
	Password string      `json:"password,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
}

// Registration is a self-service sign-up. Every field is required.
type Registration struct {
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	Role       domain.Role `json:"role"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Phone      string      `json:"phone"`
	Department string      `json:"department"`
	EmployeeID string      `json:"employeeId"`
}

// Login signs in, caches the user and navigates to the role's landing route.
// A failed login leaves the state as it was.
func (c *Client) Login(ctx context.Context, cred Credentials) (*domain.User, error) {
	mctx, t, done := c.beginLogin(ctx)
	defer done()

	user, err := c.postLogin(mctx, cred)

	c.mu.Lock()
	if c.ticket != t {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		if !errors.Is(err, ErrInvalidCredentials) {
			c.log.Warn().Err(err).Msg("login request failed")
		}
		c.notify.Notify(Notification{Level: LevelError, Title: "Login failed", Message: loginFailureMessage(err)})
		return nil, err
	}
	next := Snapshot{State: StateAuthenticated, User: user}
	subs := c.setLocked(next)
	c.mu.Unlock()

	publish(subs, next)
	c.nav.Navigate(domain.LandingRoute(user.Role))
	c.notify.Notify(Notification{Level: LevelSuccess, Title: "Welcome back!", Message: "Logged in as " + user.Role.String()})
	return user, nil
}

func loginFailureMessage(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return "Invalid username or password."
	}
	return "Login failed. Please try again."
}

func (c *Client) postLogin(ctx context.Context, cred Credentials) (*domain.User, error) {
	status, data, err := c.do(ctx, http.MethodPost, "/api/auth/login", cred)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return decodeUser(data)
	case http.StatusUnauthorized:
		return nil, ErrInvalidCredentials
	default:
		return nil, unexpected(status, data)
	}
}

// Logout ends the session. The cached user is cleared before the request is
// sent, so the client is anonymous even when the request fails; that error is
// still returned. A login started meanwhile does not cancel the request, and
// the navigation to the entry route is skipped because that login owns the UI.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	t := c.supersedeLocked()
	next := Snapshot{State: StateAnonymous}
	subs := c.setLocked(next)
	c.mu.Unlock()
	publish(subs, next)

	err := c.postLogout(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("logout request failed, signed out locally")
	}

	c.mu.Lock()
	latest := c.ticket == t
	c.mu.Unlock()
	if latest {
		c.nav.Navigate(domain.EntryRoute)
	}
	return err
}

func (c *Client) postLogout(ctx context.Context) error {
	status, data, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return unexpected(status, data)
	}
	return nil
}

// Register creates an account. It never signs the caller in.
func (c *Client) Register(ctx context.Context, reg Registration) (*domain.User, error) {
	status, data, err := c.do(ctx, http.MethodPost, "/api/auth/register", reg)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusCreated:
		return decodeUser(data)
	case http.StatusConflict:
		return nil, ErrConflict
	case http.StatusBadRequest:
		eb := decodeError(status, data)
		if eb.Field != "" {
			mf := &domain.MissingFieldError{Field: eb.Field}
			if eb.Message == mf.Error() {
				return nil, mf
			}
			if eb.Field == "role" {
				return nil, ErrInvalidRole
			}
		}
		return nil, &ServerError{Status: status, Message: eb.Message}
	default:
		return nil, unexpected(status, data)
	}
}

func decodeUser(data []byte) (*domain.User, error) {
	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, &ServerError{Status: http.StatusOK, Err: fmt.Errorf("decode user: %w", err)}
	}
	return &u, nil
}
