// Package enrollment tracks clients' plan memberships and their lifecycle.
package enrollment

import (
	"strings"
	"time"

	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Status codes for an enrollment's lifecycle.
const (
	StatusPending     = "PENDING"
	StatusActive      = "ACTIVE"
	StatusDisenrolled = "DISENROLLED"
	StatusDeclined    = "DECLINED"
	StatusCancelled   = "CANCELLED"
)

// transitions maps each status to the statuses it may move to directly.
// Terminal states have no exits; Reactivate is the only way back out.
var transitions = map[string][]string{
	StatusPending:     {StatusActive, StatusDeclined, StatusCancelled},
	StatusActive:      {StatusDisenrolled, StatusCancelled},
	StatusDisenrolled: {},
	StatusDeclined:    {},
	StatusCancelled:   {},
}

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// CanTransition reports whether status may move directly to next.
func CanTransition(status, next string) bool {
	for _, allowed := range transitions[status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Enrollment is one client's membership in one plan.
type Enrollment struct {
	ID                  id.EnrollmentID `json:"id"`
	ClientID            id.ClientID     `json:"client_id"`
	CarrierID           id.CarrierID    `json:"carrier_id"`
	PlanName            string          `json:"plan_name"`
	PlanType            string          `json:"plan_type,omitempty"`
	ContractNumber      string          `json:"contract_number,omitempty"`
	PBPNumber           string          `json:"pbp_number,omitempty"`
	EffectiveDate       *time.Time      `json:"effective_date,omitempty"`
	TerminationDate     *time.Time      `json:"termination_date,omitempty"`
	ApplicationDate     *time.Time      `json:"application_date,omitempty"`
	Status              string          `json:"status"`
	EnrollmentPeriod    string          `json:"enrollment_period,omitempty"`
	DisenrollmentReason *string         `json:"disenrollment_reason,omitempty"`
	PremiumCents        int             `json:"premium_cents"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// WithNames is the list view: an enrollment joined to its client and carrier.
type WithNames struct {
	Enrollment
	ClientFirstName string `json:"client_first_name"`
	ClientLastName  string `json:"client_last_name"`
	CarrierName     string `json:"carrier_name"`
}

// Validate checks the invariants every stored enrollment satisfies.
func (e *Enrollment) Validate() error {
	if e.ClientID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "client id is required")
	}
	if e.CarrierID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "carrier id is required")
	}
	if strings.TrimSpace(e.PlanName) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "plan name is required")
	}
	if _, ok := transitions[e.Status]; !ok {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown enrollment status")
	}
	if e.PremiumCents < 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "premium must not be negative")
	}
	return nil
}
