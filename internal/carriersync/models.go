// Package carriersync reconciles local enrollment records against member
// lists pulled from carrier portals. The matcher pairs portal members with
// local enrollments, the engine applies the resulting transitions inside one
// transaction, and the log store keeps an append-only history of runs.
package carriersync

import (
	"time"

	id "agentbook/pkg/domain"
)

// Enrollment status codes the engine reads and writes. The full status
// vocabulary lives in internal/enrollment; these are the three the sync
// path touches.
const (
	StatusPending     = "PENDING"
	StatusActive      = "ACTIVE"
	StatusDisenrolled = "DISENROLLED"
)

// DisenrollmentReason is stamped on every enrollment the engine terminates.
// Downstream reporting filters on this exact string.
const DisenrollmentReason = "Carrier portal sync - not found in portal"

// SyncLogStatusCompleted marks a run that committed.
const SyncLogStatusCompleted = "completed"

// PortalMember is one row scraped from a carrier portal. Portal exports are
// reverse-engineered and inconsistent, so everything beyond the name is
// optional and kept as free-form text. Members are ephemeral: they are never
// persisted, only reconciled against.
type PortalMember struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	MemberID      *string `json:"member_id"`
	DOB           *string `json:"dob"`
	PlanName      *string `json:"plan_name"`
	EffectiveDate *string `json:"effective_date"`
	EndDate       *string `json:"end_date"`
	Status        *string `json:"status"`
	PolicyStatus  *string `json:"policy_status"`
	State         *string `json:"state"`
	City          *string `json:"city"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
}

// LocalEnrollment is the engine's read model: an active-or-pending enrollment
// joined to the fields of its owning client that matching needs.
type LocalEnrollment struct {
	EnrollmentID    id.EnrollmentID
	ClientID        id.ClientID
	Status          string
	PlanName        *string
	ClientFirstName string
	ClientLastName  string
	ClientMBI       *string
}

// SyncDisenrollment summarizes one enrollment the engine terminated during a
// run. It is returned to the caller, not stored.
type SyncDisenrollment struct {
	EnrollmentID id.EnrollmentID `json:"enrollment_id"`
	ClientID     id.ClientID     `json:"client_id"`
	ClientName   string          `json:"client_name"`
	PlanName     *string         `json:"plan_name"`
}

// SyncResult is the outcome of one reconciliation run.
type SyncResult struct {
	CarrierName string              `json:"carrier_name"`
	PortalCount int                 `json:"portal_count"`
	LocalCount  int                 `json:"local_count"`
	Matched     int                 `json:"matched"`
	Disenrolled []SyncDisenrollment `json:"disenrolled"`
	NewInPortal []PortalMember      `json:"new_in_portal"`
}

// SyncLogEntry is one row of the append-only run history.
type SyncLogEntry struct {
	ID          id.SyncRunID `json:"id"`
	CarrierID   id.CarrierID `json:"carrier_id"`
	CarrierName *string      `json:"carrier_name"`
	SyncedAt    time.Time    `json:"synced_at"`
	PortalCount int          `json:"portal_count"`
	Matched     int          `json:"matched"`
	Disenrolled int          `json:"disenrolled"`
	NewFound    int          `json:"new_found"`
	Status      string       `json:"status"`
}

// MatchResult pairs a portal member with at most one local enrollment.
// Ambiguous is set when several locals tied on the name tier; the returned
// enrollment is still the first match in load order.
type MatchResult struct {
	Enrollment *LocalEnrollment
	Ambiguous  bool
}
