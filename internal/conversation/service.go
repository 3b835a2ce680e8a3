package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/platform/sentinel"
	"agentbook/pkg/requestcontext"
)

// Service manages conversations and the client timeline.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input carries the writable conversation fields. OccurredAt defaults to now;
// FollowUpDate is an ISO date.
type Input struct {
	ClientID     id.ClientID `json:"client_id"`
	OccurredAt   *time.Time  `json:"occurred_at"`
	Channel      string      `json:"channel"`
	Summary      string      `json:"summary"`
	FollowUpDate *string     `json:"follow_up_date"`
	FollowUpDone bool        `json:"follow_up_done"`
}

func (in Input) apply(ctx context.Context, c *Conversation) error {
	c.Channel = strings.ToLower(strings.TrimSpace(in.Channel))
	c.Summary = strings.TrimSpace(in.Summary)
	c.FollowUpDone = in.FollowUpDone

	if in.OccurredAt != nil {
		c.OccurredAt = *in.OccurredAt
	} else if c.OccurredAt.IsZero() {
		c.OccurredAt = requestcontext.Now(ctx)
	}

	c.FollowUpDate = nil
	if in.FollowUpDate != nil && *in.FollowUpDate != "" {
		d, err := time.Parse("2006-01-02", *in.FollowUpDate)
		if err != nil {
			return dErrors.New(dErrors.CodeInvalidInput, "follow_up_date must be YYYY-MM-DD")
		}
		c.FollowUpDate = &d
	}
	return c.Validate()
}

// Create logs a conversation.
func (s *Service) Create(ctx context.Context, input Input) (*Conversation, error) {
	now := requestcontext.Now(ctx)
	c := &Conversation{
		ID:        id.ConversationID(uuid.New()),
		ClientID:  input.ClientID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := input.apply(ctx, c); err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create conversation")
	}
	return c, nil
}

// Update replaces the writable fields of a conversation. The owning client
// never changes.
func (s *Service) Update(ctx context.Context, conversationID id.ConversationID, input Input) (*Conversation, error) {
	c, err := s.store.FindByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "conversation not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}

	if err := input.apply(ctx, c); err != nil {
		return nil, err
	}
	c.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update conversation")
	}
	return c, nil
}

// ListByClient returns a client's conversations, newest first.
func (s *Service) ListByClient(ctx context.Context, clientID id.ClientID) ([]Conversation, error) {
	conversations, err := s.store.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list conversations")
	}
	if conversations == nil {
		conversations = []Conversation{}
	}
	return conversations, nil
}

// PendingFollowUps returns the open follow-up queue, soonest due first.
func (s *Service) PendingFollowUps(ctx context.Context) ([]FollowUp, error) {
	followUps, err := s.store.ListPendingFollowUps(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list follow-ups")
	}
	if followUps == nil {
		followUps = []FollowUp{}
	}
	return followUps, nil
}

// Timeline merges a client's conversations with system events, newest first.
func (s *Service) Timeline(ctx context.Context, clientID id.ClientID) ([]TimelineEntry, error) {
	conversations, err := s.store.ListByClient(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversations")
	}
	systemEvents, err := s.store.ListSystemEvents(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load system events")
	}

	entries := make([]TimelineEntry, 0, len(conversations)+len(systemEvents))
	for i := range conversations {
		c := conversations[i]
		entries = append(entries, TimelineEntry{
			Kind:         TimelineKindConversation,
			OccurredAt:   c.OccurredAt,
			Conversation: &c,
		})
	}
	for i := range systemEvents {
		e := systemEvents[i]
		entries = append(entries, TimelineEntry{
			Kind:        TimelineKindSystem,
			OccurredAt:  e.OccurredAt,
			SystemEvent: &e,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OccurredAt.After(entries[j].OccurredAt)
	})
	return entries, nil
}
