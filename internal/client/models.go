// Package client manages the agent's book of Medicare beneficiaries.
package client

import (
	"strings"
	"time"

	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Client is one Medicare beneficiary in the book of business.
type Client struct {
	ID           id.ClientID `json:"id"`
	FirstName    string      `json:"first_name"`
	LastName     string      `json:"last_name"`
	MBI          *string     `json:"mbi,omitempty"`
	DateOfBirth  *time.Time  `json:"date_of_birth,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Email        string      `json:"email,omitempty"`
	Street       string      `json:"street,omitempty"`
	City         string      `json:"city,omitempty"`
	State        string      `json:"state,omitempty"`
	Zip          string      `json:"zip,omitempty"`
	DualEligible bool        `json:"dual_eligible"`
	IsActive     bool        `json:"is_active"`
	Notes        string      `json:"notes,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Validate checks the invariants every stored client satisfies.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "first name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "last name is required")
	}
	return nil
}

// NormalizeMBI uppercases an MBI and strips separators. Empty input stays nil.
func NormalizeMBI(raw string) *string {
	cleaned := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw)))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// Filter narrows the client list. Zero values mean "no constraint".
type Filter struct {
	// Search matches first name, last name or MBI, case-insensitively.
	Search          string
	State           string
	Zip             string
	DualEligible    *bool
	CarrierID       *id.CarrierID
	IncludeInactive bool
	Limit           int
	Offset          int
}

// Page is one page of the client list.
type Page struct {
	Clients []Client `json:"clients"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}
