// Package carrier manages the carriers the agent writes business with.
package carrier

import (
	"strings"
	"time"

	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Carrier is one insurance carrier.
type Carrier struct {
	ID        id.CarrierID `json:"id"`
	Name      string       `json:"name"`
	ShortName string       `json:"short_name,omitempty"`
	PortalKey string       `json:"portal_key,omitempty"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// WithCounts is the list view: a carrier plus its active enrollment count.
type WithCounts struct {
	Carrier
	ActiveEnrollments int `json:"active_enrollments"`
}

// Validate checks creation invariants.
func (c *Carrier) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "carrier name is required")
	}
	return nil
}
