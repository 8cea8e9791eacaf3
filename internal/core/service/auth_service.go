package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/squadron/asset-verification/internal/core/domain"
	"github.com/squadron/asset-verification/internal/core/ports"
)

// AuthConfig tunes the auth service.
type AuthConfig struct {
	// BcryptCost is used for new password hashes. Out-of-range values fall
	// back to bcrypt.DefaultCost.
	BcryptCost int
	// DemoRoleLogin enables the role-only login used by the demo role picker.
	DemoRoleLogin bool
	// DemoAccounts maps a role to the username a role-only login signs in as.
	DemoAccounts map[domain.Role]string
}

// AuthService implements credential verification, session lifecycle and
// registration.
type AuthService struct {
	users     ports.UserRepository
	sessions  ports.SessionStore
	audit     ports.AuditSink
	cfg       AuthConfig
	validate  *validator.Validate
	dummyHash []byte
	log       zerolog.Logger
	now       func() time.Time
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionStore,
	audit ports.AuditSink,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	cfg.BcryptCost = normalizeCost(cfg.BcryptCost)

	// Compared against when the identifier is unknown so both failure paths
	// take the same time.
	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BcryptCost)
	if err != nil {
		log.Warn().Err(err).Msg("failed to build dummy password hash")
	}

	return &AuthService{
		users:     users,
		sessions:  sessions,
		audit:     audit,
		cfg:       cfg,
		validate:  newRegistrationValidator(),
		dummyHash: dummy,
		log:       log,
		now:       time.Now,
	}
}

// VerifyCredentials matches identifier against usernames first, then emails,
// and compares secret with the stored bcrypt hash.
func (s *AuthService) VerifyCredentials(ctx context.Context, identifier, secret string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(secret))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("verify credentials: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	return s.users.FindByEmail(ctx, identifier)
}

// Login authenticates the attempt and opens a session.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	user, err := s.authenticate(ctx, in)
	if err != nil {
		s.emit(domain.EventLoginFailed, in.Username, in.Role, in.RemoteAddr)
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	sess, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("login: create session: %w", err)
	}

	s.emit(domain.EventLoginSucceeded, user.Username, user.Role, in.RemoteAddr)
	s.log.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("role", user.Role.String()).
		Msg("user logged in")

	return &ports.LoginResult{
		User:    user,
		Session: sess,
		Landing: domain.LandingRoute(user.Role),
	}, nil
}

func (s *AuthService) authenticate(ctx context.Context, in ports.LoginInput) (*domain.User, error) {
	switch {
	case in.Username != "" || in.Password != "":
		user, err := s.VerifyCredentials(ctx, in.Username, in.Password)
		if err != nil {
			return nil, err
		}
		if in.Role != "" && in.Role != user.Role {
			return nil, domain.ErrInvalidCredentials
		}
		return user, nil
	case in.Role != "":
		return s.demoUser(ctx, in.Role)
	default:
		return nil, domain.ErrInvalidCredentials
	}
}

func (s *AuthService) demoUser(ctx context.Context, role domain.Role) (*domain.User, error) {
	if !s.cfg.DemoRoleLogin {
		return nil, domain.ErrInvalidCredentials
	}
	username, ok := s.cfg.DemoAccounts[role]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return user, nil
}

// ResolveSession returns the user owning token.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	sess, ok, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// the account is gone; the session is useless
			if derr := s.sessions.Destroy(ctx, token); derr != nil {
				s.log.Warn().Err(derr).Msg("failed to drop orphaned session")
			}
			return nil, domain.ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return user, nil
}

// Logout destroys the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token, remoteAddr string) error {
	if token == "" {
		return nil
	}

	var username string
	var role domain.Role
	if user, err := s.ResolveSession(ctx, token); err == nil {
		username, role = user.Username, user.Role
	}

	if err := s.sessions.Destroy(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if username != "" {
		s.emit(domain.EventLogout, username, role, remoteAddr)
		s.log.Info().Str("username", username).Msg("user logged out")
	}
	return nil
}

// Register creates a new account. The existing record is never overwritten.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	in = trimRegistration(in)

	if err := s.validate.Struct(in); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return nil, &domain.MissingFieldError{Field: ve[0].Field()}
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	role := domain.Role(in.Role)
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		Name:         in.Name,
		Role:         role,
		Email:        in.Email,
		Phone:        in.Phone,
		Department:   in.Department,
		EmployeeID:   in.EmployeeID,
		Avatar:       initials(in.Name),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	s.emit(domain.EventRegistered, created.Username, created.Role, in.RemoteAddr)
	s.log.Info().Str("username", created.Username).Str("role", created.Role.String()).Msg("user registered")
	return created, nil
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *AuthService) emit(kind domain.AuthEventKind, username string, role domain.Role, remoteAddr string) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(domain.AuthEvent{
		Kind:       kind,
		Username:   username,
		Role:       role,
		RemoteAddr: remoteAddr,
		Timestamp:  s.now().UTC(),
	})
}

func newRegistrationValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get("label"); label != "" {
			return label
		}
		return fld.Name
	})
	return v
}

func trimRegistration(in ports.RegisterInput) ports.RegisterInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Department = strings.TrimSpace(in.Department)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	return in
}

// initials builds the two-letter avatar shown in the sidebar, e.g. "Sarah Chen" → "SC".
func initials(name string) string {
	var b strings.Builder
	n := 0
	for _, part := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(string([]rune(part)[0])))
		if n++; n == 2 {
			break
		}
	}
	return b.String()
}

func normalizeCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return cost
}
