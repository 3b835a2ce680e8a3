// Package conversation logs client touchpoints and builds the client
// activity timeline.
package conversation

import (
	"strings"
	"time"

	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

// Channels a conversation can happen over.
const (
	ChannelPhone    = "phone"
	ChannelEmail    = "email"
	ChannelInPerson = "in-person"
	ChannelSMS      = "sms"
)

var validChannels = map[string]bool{
	ChannelPhone:    true,
	ChannelEmail:    true,
	ChannelInPerson: true,
	ChannelSMS:      true,
}

// Conversation is one logged client touchpoint.
type Conversation struct {
	ID           id.ConversationID `json:"id"`
	ClientID     id.ClientID       `json:"client_id"`
	OccurredAt   time.Time         `json:"occurred_at"`
	Channel      string            `json:"channel"`
	Summary      string            `json:"summary"`
	FollowUpDate *time.Time        `json:"follow_up_date,omitempty"`
	FollowUpDone bool              `json:"follow_up_done"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Validate checks the invariants every stored conversation satisfies.
func (c *Conversation) Validate() error {
	if c.ClientID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "client id is required")
	}
	if !validChannels[c.Channel] {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown conversation channel")
	}
	if strings.TrimSpace(c.Summary) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "summary is required")
	}
	return nil
}

// FollowUp is one pending follow-up in the work queue, joined to the client
// name.
type FollowUp struct {
	Conversation
	ClientFirstName string `json:"client_first_name"`
	ClientLastName  string `json:"client_last_name"`
}

// SystemEvent is a machine-generated entry on a client's timeline, currently
// sourced from disenrollments.
type SystemEvent struct {
	OccurredAt  time.Time `json:"occurred_at"`
	PlanName    string    `json:"plan_name"`
	CarrierName string    `json:"carrier_name"`
	Reason      *string   `json:"reason,omitempty"`
}

// Timeline entry kinds.
const (
	TimelineKindConversation = "conversation"
	TimelineKindSystem       = "system"
)

// TimelineEntry is one row of the merged client timeline, newest first.
type TimelineEntry struct {
	Kind         string        `json:"kind"`
	OccurredAt   time.Time     `json:"occurred_at"`
	Conversation *Conversation `json:"conversation,omitempty"`
	SystemEvent  *SystemEvent  `json:"system_event,omitempty"`
}
