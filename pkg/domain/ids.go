// Package domain holds the typed identifiers shared across the application.
//
// Every entity ID is a distinct type over uuid.UUID so the compiler rejects
// cross-entity assignment (an EnrollmentID can never be passed where a
// ClientID is expected). Parse functions enforce the trust-boundary invariant:
// IDs must be valid, non-nil UUIDs.
package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"

	dErrors "agentbook/pkg/domain-errors"
)

type (
	// AgentID identifies the agent account that owns this book of business.
	AgentID uuid.UUID
	// ClientID identifies a client (a Medicare beneficiary in the book).
	ClientID uuid.UUID
	// EnrollmentID identifies a client's membership in one plan.
	EnrollmentID uuid.UUID
	// CarrierID identifies an insurance carrier.
	CarrierID uuid.UUID
	// ConversationID identifies a logged client conversation.
	ConversationID uuid.UUID
	// SyncRunID identifies one completed carrier portal sync run.
	SyncRunID uuid.UUID
)

func (id AgentID) String() string        { return uuid.UUID(id).String() }
func (id ClientID) String() string       { return uuid.UUID(id).String() }
func (id EnrollmentID) String() string   { return uuid.UUID(id).String() }
func (id CarrierID) String() string      { return uuid.UUID(id).String() }
func (id ConversationID) String() string { return uuid.UUID(id).String() }
func (id SyncRunID) String() string      { return uuid.UUID(id).String() }

func (id AgentID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id EnrollmentID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id CarrierID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ConversationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SyncRunID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps typed IDs JSON-encoding as plain UUID strings.
func (id AgentID) MarshalText() ([]byte, error)        { return marshalID(uuid.UUID(id)) }
func (id ClientID) MarshalText() ([]byte, error)       { return marshalID(uuid.UUID(id)) }
func (id EnrollmentID) MarshalText() ([]byte, error)   { return marshalID(uuid.UUID(id)) }
func (id CarrierID) MarshalText() ([]byte, error)      { return marshalID(uuid.UUID(id)) }
func (id ConversationID) MarshalText() ([]byte, error) { return marshalID(uuid.UUID(id)) }
func (id SyncRunID) MarshalText() ([]byte, error)      { return marshalID(uuid.UUID(id)) }

func (id *AgentID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }
func (id *ClientID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}
func (id *EnrollmentID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}
func (id *CarrierID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }
func (id *ConversationID) UnmarshalText(b []byte) error {
	return unmarshalID((*uuid.UUID)(id), b)
}
func (id *SyncRunID) UnmarshalText(b []byte) error { return unmarshalID((*uuid.UUID)(id), b) }

// Scan implements sql.Scanner so typed IDs read directly from uuid columns.
func (id *AgentID) Scan(src any) error        { return (*uuid.UUID)(id).Scan(src) }
func (id *ClientID) Scan(src any) error       { return (*uuid.UUID)(id).Scan(src) }
func (id *EnrollmentID) Scan(src any) error   { return (*uuid.UUID)(id).Scan(src) }
func (id *CarrierID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }
func (id *ConversationID) Scan(src any) error { return (*uuid.UUID)(id).Scan(src) }
func (id *SyncRunID) Scan(src any) error      { return (*uuid.UUID)(id).Scan(src) }

// Value implements driver.Valuer; IDs bind as their canonical string form.
func (id AgentID) Value() (driver.Value, error)        { return uuid.UUID(id).String(), nil }
func (id ClientID) Value() (driver.Value, error)       { return uuid.UUID(id).String(), nil }
func (id EnrollmentID) Value() (driver.Value, error)   { return uuid.UUID(id).String(), nil }
func (id CarrierID) Value() (driver.Value, error)      { return uuid.UUID(id).String(), nil }
func (id ConversationID) Value() (driver.Value, error) { return uuid.UUID(id).String(), nil }
func (id SyncRunID) Value() (driver.Value, error)      { return uuid.UUID(id).String(), nil }

func marshalID(u uuid.UUID) ([]byte, error) {
	return []byte(u.String()), nil
}

func unmarshalID(dst *uuid.UUID, b []byte) error {
	u, err := parseUUID(string(b))
	if err != nil {
		return err
	}
	*dst = u
	return nil
}

// ParseAgentID parses and validates an agent ID from its string form.
func ParseAgentID(s string) (AgentID, error) {
	u, err := parseUUID(s)
	return AgentID(u), err
}

// ParseClientID parses and validates a client ID from its string form.
func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID(s)
	return ClientID(u), err
}

// ParseEnrollmentID parses and validates an enrollment ID from its string form.
func ParseEnrollmentID(s string) (EnrollmentID, error) {
	u, err := parseUUID(s)
	return EnrollmentID(u), err
}

// ParseCarrierID parses and validates a carrier ID from its string form.
func ParseCarrierID(s string) (CarrierID, error) {
	u, err := parseUUID(s)
	return CarrierID(u), err
}

// ParseConversationID parses and validates a conversation ID from its string form.
func ParseConversationID(s string) (ConversationID, error) {
	u, err := parseUUID(s)
	return ConversationID(u), err
}

// ParseSyncRunID parses and validates a sync run ID from its string form.
func ParseSyncRunID(s string) (SyncRunID, error) {
	u, err := parseUUID(s)
	return SyncRunID(u), err
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
