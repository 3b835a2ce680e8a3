// Package audit captures structured records of key actions. Events are
// written to an outbox table in the caller's transaction; a background worker
// drains the outbox to Kafka when export is configured.
package audit

import "time"

// Action identifies what happened.
type Action string

const (
	ActionLogin             Action = "agent_login"
	ActionPasswordChanged   Action = "agent_password_changed"
	ActionClientCreated     Action = "client_created"
	ActionClientUpdated     Action = "client_updated"
	ActionClientDeactivated Action = "client_deactivated"
	ActionEnrollmentCreated Action = "enrollment_created"
	ActionEnrollmentUpdated Action = "enrollment_updated"
	ActionSyncCompleted     Action = "carrier_sync_completed"
	ActionSyncDisenrollment Action = "carrier_sync_disenrollment"
)

// Event is emitted from domain logic. Entity fields are string-typed so one
// shape serves every module; empty fields are omitted on export.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	AgentID   string    `json:"agent_id,omitempty"`
	Action    Action    `json:"action"`
	CarrierID string    `json:"carrier_id,omitempty"`
	ClientID  string    `json:"client_id,omitempty"`
	SyncRunID string    `json:"sync_run_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
