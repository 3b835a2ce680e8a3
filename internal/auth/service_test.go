package auth

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"agentbook/internal/audit"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/requestcontext"
)

type AuthServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *MemoryStore
	audit *audit.MemoryStore
	svc   *Service
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
	s.audit = audit.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokenManager("test-signing-key", time.Hour)
	s.svc = New(s.store, tokens,
		WithLogger(logger),
		WithAuditPublisher(audit.NewPublisher(s.audit, logger)))
	s.Require().NoError(s.svc.Bootstrap(s.ctx, "agent", "correct-horse", "Sunrise Medicare"))
}

func (s *AuthServiceSuite) TestBootstrapIsIdempotent() {
	s.Require().NoError(s.svc.Bootstrap(s.ctx, "someone-else", "other-password", ""))
	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)

	_, err = s.store.FindByUsername(s.ctx, "someone-else")
	s.Error(err)
}

func (s *AuthServiceSuite) TestLoginRoundTrip() {
	ctx := requestcontext.WithClientMetadata(s.ctx, "203.0.113.7",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	result, err := s.svc.Login(ctx, "agent", "correct-horse")
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.True(result.ExpiresAt.After(time.Now()))

	claims, err := s.svc.tokens.ValidateToken(result.Token)
	s.Require().NoError(err)
	s.Equal(result.AgentID, claims.AgentID)

	events := s.audit.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionLogin, events[0].Action)
	s.Contains(events[0].Detail, "Chrome")
}

func (s *AuthServiceSuite) TestLoginRejectsBadPassword() {
	_, err := s.svc.Login(s.ctx, "agent", "wrong")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.svc.Login(s.ctx, "nobody", "correct-horse")
	s.Require().Error(err)
	// Unknown usernames look identical to bad passwords.
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestLoginRequiresCredentials() {
	_, err := s.svc.Login(s.ctx, "", "x")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AuthServiceSuite) TestChangePassword() {
	result, err := s.svc.Login(s.ctx, "agent", "correct-horse")
	s.Require().NoError(err)

	err = s.svc.ChangePassword(s.ctx, result.AgentID, "correct-horse", "battery-staple")
	s.Require().NoError(err)

	_, err = s.svc.Login(s.ctx, "agent", "correct-horse")
	s.Error(err)
	_, err = s.svc.Login(s.ctx, "agent", "battery-staple")
	s.NoError(err)
}

func (s *AuthServiceSuite) TestChangePasswordChecksCurrent() {
	result, err := s.svc.Login(s.ctx, "agent", "correct-horse")
	s.Require().NoError(err)

	err = s.svc.ChangePassword(s.ctx, result.AgentID, "wrong", "battery-staple")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.svc.ChangePassword(s.ctx, result.AgentID, "correct-horse", "short")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AuthServiceSuite) TestExpiredTokenRejected() {
	expired := NewTokenManager("test-signing-key", -time.Minute)
	svc := New(s.store, expired)

	result, err := svc.Login(s.ctx, "agent", "correct-horse")
	s.Require().NoError(err)

	_, err = expired.ValidateToken(result.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *AuthServiceSuite) TestTokenSignedWithOtherKeyRejected() {
	other := NewTokenManager("different-key", time.Hour)
	result, err := s.svc.Login(s.ctx, "agent", "correct-horse")
	s.Require().NoError(err)

	_, err = other.ValidateToken(result.Token)
	s.Require().Error(err)
}

func TestParseUserAgent(t *testing.T) {
	t.Run("empty user agent", func(t *testing.T) {
		if got := ParseUserAgent(""); got != "Unknown Device" {
			t.Errorf("ParseUserAgent(\"\") = %q", got)
		}
	})

	t.Run("chrome on mac", func(t *testing.T) {
		got := ParseUserAgent("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		if !strings.Contains(got, "Chrome") || !strings.Contains(got, " on ") {
			t.Errorf("ParseUserAgent chrome = %q", got)
		}
	})

	t.Run("firefox on linux", func(t *testing.T) {
		got := ParseUserAgent("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		if !strings.Contains(got, "Firefox") || !strings.Contains(got, " on ") {
			t.Errorf("ParseUserAgent firefox = %q", got)
		}
	})
}
