package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"agentbook/internal/platform/middleware"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

const tokenIssuer = "agentbook"

// Claims are the session token claims.
type Claims struct {
	AgentID string `json:"agent_id"`
	jwt.RegisteredClaims
}

// TokenManager creates and validates HS256 session tokens. It implements
// middleware.JWTValidator.
type TokenManager struct {
	signingKey []byte
	ttl        time.Duration
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(signingKey string, ttl time.Duration) *TokenManager {
	return &TokenManager{signingKey: []byte(signingKey), ttl: ttl}
}

// Generate signs a token for the agent, returning the token and its expiry.
func (m *TokenManager) Generate(agentID id.AgentID) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AgentID: agentID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken checks signature, expiry and claims shape.
func (m *TokenManager) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return m.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	agentID, err := id.ParseAgentID(claims.AgentID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &middleware.JWTClaims{AgentID: agentID}, nil
}
