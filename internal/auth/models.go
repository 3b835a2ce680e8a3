// Package auth covers the single-agent login: bcrypt password verification,
// HS256 session tokens, and password changes.
package auth

import (
	"time"

	id "agentbook/pkg/domain"
)

// AgentSettings is the stored agent account.
type AgentSettings struct {
	AgentID      id.AgentID
	Username     string
	PasswordHash string
	AgencyName   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LoginResult is returned from a successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	AgentID   id.AgentID `json:"agent_id"`
}
