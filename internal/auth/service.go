package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"agentbook/internal/audit"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/requestcontext"
)

const minPasswordLength = 8

// AuditPublisher records login and password-change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service handles login, password changes and first-run bootstrap.
type Service struct {
	store  Store
	tokens *TokenManager
	logger *slog.Logger
	audit  AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// New constructs a Service.
func New(store Store, tokens *TokenManager, opts ...Option) *Service {
	s := &Service{store: store, tokens: tokens, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bootstrap creates the agent account on first run. It is a no-op when any
// account already exists.
func (s *Service) Bootstrap(ctx context.Context, username, password, agencyName string) error {
	count, err := s.store.Count(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check agent accounts")
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := time.Now()
	settings := &AgentSettings{
		AgentID:      id.AgentID(uuid.New()),
		Username:     username,
		PasswordHash: string(hash),
		AgencyName:   agencyName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, settings); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create agent account")
	}
	s.logger.InfoContext(ctx, "agent account bootstrapped", "username", username)
	return nil
}

// Login verifies the password and issues a session token. The client IP and
// parsed device name from the request context are logged with the attempt.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "username and password are required")
	}

	device := ParseUserAgent(requestcontext.UserAgent(ctx))
	clientIP := requestcontext.ClientIP(ctx)

	settings, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "login failed - unknown username",
				"username", username, "ip", clientIP, "device", device)
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agent account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(settings.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login failed - bad password",
			"username", username, "ip", clientIP, "device", device)
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, expiresAt, err := s.tokens.Generate(settings.AgentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.logger.InfoContext(ctx, "agent logged in",
		"username", username, "ip", clientIP, "device", device)
	s.logAudit(ctx, audit.Event{
		Action:  audit.ActionLogin,
		AgentID: settings.AgentID.String(),
		Detail:  device,
	})
	return &LoginResult{Token: token, ExpiresAt: expiresAt, AgentID: settings.AgentID}, nil
}

// ChangePassword re-hashes after verifying the current password.
func (s *Service) ChangePassword(ctx context.Context, agentID id.AgentID, current, next string) error {
	if len(next) < minPasswordLength {
		return dErrors.New(dErrors.CodeInvalidInput, "new password is too short")
	}

	settings, err := s.store.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "agent account not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agent account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(settings.PasswordHash), []byte(current)); err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := s.store.UpdatePasswordHash(ctx, agentID, string(hash)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}

	s.logAudit(ctx, audit.Event{
		Action:  audit.ActionPasswordChanged,
		AgentID: agentID.String(),
	})
	return nil
}

// Whoami returns the authenticated agent's account, password hash cleared.
func (s *Service) Whoami(ctx context.Context, agentID id.AgentID) (*AgentSettings, error) {
	settings, err := s.store.FindByID(ctx, agentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "agent account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agent account")
	}
	settings.PasswordHash = ""
	return settings, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
