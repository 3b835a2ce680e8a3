package client

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agentbook/internal/audit"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
	"agentbook/pkg/requestcontext"
)

type ClientServiceSuite struct {
	suite.Suite
	ctx   context.Context
	store *MemoryStore
	audit *audit.MemoryStore
	svc   *Service
}

func TestClientServiceSuite(t *testing.T) {
	suite.Run(t, new(ClientServiceSuite))
}

func (s *ClientServiceSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(),
		time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC))
	s.store = NewMemoryStore()
	s.audit = audit.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(s.store,
		WithLogger(logger),
		WithAuditPublisher(audit.NewPublisher(s.audit, logger)))
}

func (s *ClientServiceSuite) create(first, last string, mutate func(*Input)) *Client {
	input := Input{FirstName: first, LastName: last}
	if mutate != nil {
		mutate(&input)
	}
	c, err := s.svc.Create(s.ctx, input)
	s.Require().NoError(err)
	return c
}

func (s *ClientServiceSuite) TestCreateNormalizesMBI() {
	dob := "1948-06-02"
	c := s.create("Mary", "Johnson", func(in *Input) {
		in.MBI = " 1eg4-te5-mk73 "
		in.DateOfBirth = &dob
		in.State = "fl"
	})

	s.Require().NotNil(c.MBI)
	s.Equal("1EG4TE5MK73", *c.MBI)
	s.Equal("FL", c.State)
	s.Require().NotNil(c.DateOfBirth)
	s.Equal(time.Date(1948, 6, 2, 0, 0, 0, 0, time.UTC), *c.DateOfBirth)
	s.True(c.IsActive)

	events := s.audit.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionClientCreated, events[0].Action)
	s.Equal(c.ID.String(), events[0].ClientID)
}

func (s *ClientServiceSuite) TestCreateRequiresNames() {
	_, err := s.svc.Create(s.ctx, Input{FirstName: " ", LastName: "Johnson"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.svc.Create(s.ctx, Input{FirstName: "Mary"})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ClientServiceSuite) TestCreateRejectsBadDate() {
	bad := "06/02/1948"
	_, err := s.svc.Create(s.ctx, Input{FirstName: "Mary", LastName: "Johnson", DateOfBirth: &bad})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ClientServiceSuite) TestUpdate() {
	c := s.create("Mary", "Johnson", nil)

	updated, err := s.svc.Update(s.ctx, c.ID, Input{
		FirstName: "Mary",
		LastName:  "Johnson-Lee",
		Phone:     "555-0101",
	})
	s.Require().NoError(err)
	s.Equal("Johnson-Lee", updated.LastName)
	s.Equal("555-0101", updated.Phone)
	s.Nil(updated.MBI)

	events := s.audit.Events()
	s.Require().Len(events, 2)
	s.Equal(audit.ActionClientUpdated, events[1].Action)
}

func (s *ClientServiceSuite) TestUpdateUnknownClient() {
	_, err := s.svc.Update(s.ctx, id.ClientID(uuid.New()), Input{FirstName: "A", LastName: "B"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ClientServiceSuite) TestDeactivateHidesFromDefaultList() {
	c := s.create("Mary", "Johnson", nil)
	s.create("Robert", "Smith", nil)

	s.Require().NoError(s.svc.Deactivate(s.ctx, c.ID))

	page, err := s.svc.List(s.ctx, Filter{})
	s.Require().NoError(err)
	s.Equal(1, page.Total)
	s.Equal("Smith", page.Clients[0].LastName)

	page, err = s.svc.List(s.ctx, Filter{IncludeInactive: true})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	// Deactivated clients still resolve directly.
	got, err := s.svc.Get(s.ctx, c.ID)
	s.Require().NoError(err)
	s.False(got.IsActive)

	events := s.audit.Events()
	s.Equal(audit.ActionClientDeactivated, events[len(events)-1].Action)
}

func (s *ClientServiceSuite) TestDeactivateUnknownClient() {
	err := s.svc.Deactivate(s.ctx, id.ClientID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ClientServiceSuite) TestListFilters() {
	s.create("Mary", "Johnson", func(in *Input) {
		in.State = "FL"
		in.Zip = "33101"
		in.MBI = "1EG4TE5MK73"
	})
	s.create("Robert", "Smith", func(in *Input) {
		in.State = "TX"
		in.DualEligible = true
	})
	s.create("Maria", "Garcia", func(in *Input) { in.State = "FL" })

	page, err := s.svc.List(s.ctx, Filter{State: "fl"})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	page, err = s.svc.List(s.ctx, Filter{Search: "mar"})
	s.Require().NoError(err)
	s.Equal(2, page.Total)

	page, err = s.svc.List(s.ctx, Filter{Search: "1eg4te5"})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)
	s.Equal("Johnson", page.Clients[0].LastName)

	dual := true
	page, err = s.svc.List(s.ctx, Filter{DualEligible: &dual})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)
	s.Equal("Smith", page.Clients[0].LastName)

	page, err = s.svc.List(s.ctx, Filter{Zip: "33101"})
	s.Require().NoError(err)
	s.Equal(1, page.Total)
}

func (s *ClientServiceSuite) TestListFiltersByCarrier() {
	enrolled := s.create("Mary", "Johnson", nil)
	s.create("Robert", "Smith", nil)
	carrierID := id.CarrierID(uuid.New())
	s.store.LinkCarrier(enrolled.ID, carrierID)

	page, err := s.svc.List(s.ctx, Filter{CarrierID: &carrierID})
	s.Require().NoError(err)
	s.Require().Equal(1, page.Total)
	s.Equal(enrolled.ID, page.Clients[0].ID)
}

func (s *ClientServiceSuite) TestListPaginates() {
	s.create("Ann", "Adams", nil)
	s.create("Bea", "Brown", nil)
	s.create("Cal", "Clark", nil)

	page, err := s.svc.List(s.ctx, Filter{Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, page.Total)
	s.Require().Len(page.Clients, 2)
	s.Equal("Adams", page.Clients[0].LastName)

	page, err = s.svc.List(s.ctx, Filter{Limit: 2, Offset: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Clients, 1)
	s.Equal("Clark", page.Clients[0].LastName)
}

func TestNormalizeMBI(t *testing.T) {
	if got := NormalizeMBI("  "); got != nil {
		t.Errorf("NormalizeMBI(blank) = %v, want nil", got)
	}
	if got := NormalizeMBI("1eg4-te5-mk73"); got == nil || *got != "1EG4TE5MK73" {
		t.Errorf("NormalizeMBI = %v", got)
	}
}
