package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"bloodlink/internal/audit"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/middleware"
	dErrors "bloodlink/pkg/domain-errors"
	"bloodlink/pkg/platform/sentinel"
)

// Store is the user persistence surface.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
}

// SessionStore keeps live sessions; deleting one revokes its tokens.
type SessionStore interface {
	Save(ctx context.Context, session Session, ttl time.Duration) error
	Exists(ctx context.Context, sessionID string) (bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Publisher emits audit events without blocking request handling.
type Publisher interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service implements registration, login and logout.
type Service struct {
	store    Store
	sessions SessionStore
	tokens   *TokenManager
	audit    Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService wires the auth service.
func NewService(store Store, sessions SessionStore, tokens *TokenManager, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		sessions: sessions,
		tokens:   tokens,
		audit:    publisher,
		metrics:  m,
		logger:   logger,
	}
}

// Register creates a user account. Emails are unique across all roles.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Role:         params.Role,
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		BloodType:    params.BloodType,
		City:         params.City,
		Phone:        params.Phone,
		Address:      params.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	s.metrics.RecordRegistration(user.Role)
	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionUserRegistered,
		ActorID:   user.ID.String(),
		RequestID: middleware.GetRequestID(ctx),
		Detail:    map[string]string{"role": user.Role},
	})
	return user, nil
}

// Device captures the client metadata recorded on the session at login.
type Device struct {
	UserAgent string
	IP        string
}

// LoginResult pairs the access token with the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *User
}

// Login verifies credentials, records a session with device metadata and
// issues an access token bound to it. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, params LoginParams, device Device) (*LoginResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	now := time.Now().UTC()
	session := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID.String(),
		Role:      user.Role,
		IP:        device.IP,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokens.TTL()),
	}
	if device.UserAgent != "" {
		ua := useragent.New(device.UserAgent)
		browser, version := ua.Browser()
		if version != "" {
			browser += " " + version
		}
		session.Browser = browser
		session.OS = ua.OS()
		session.Mobile = ua.Mobile()
	}
	if err := s.sessions.Save(ctx, session, s.tokens.TTL()); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.Issue(session.UserID, session.Role, session.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:    audit.ActionUserLogin,
		ActorID:   session.UserID,
		RequestID: middleware.GetRequestID(ctx),
		Detail:    map[string]string{"role": session.Role, "browser": session.Browser, "os": session.OS},
	})
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Logout revokes the caller's session; tokens bound to it stop validating
// immediately. Revoking an already dead session succeeds.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	return nil
}
