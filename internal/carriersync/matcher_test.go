package carriersync

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "agentbook/pkg/domain"
)

func strPtr(s string) *string { return &s }

func local(first, last string, mbi *string) LocalEnrollment {
	return LocalEnrollment{
		EnrollmentID:    id.EnrollmentID(uuid.New()),
		ClientID:        id.ClientID(uuid.New()),
		Status:          StatusActive,
		ClientFirstName: first,
		ClientLastName:  last,
		ClientMBI:       mbi,
	}
}

func TestMatchByMemberID(t *testing.T) {
	locals := []LocalEnrollment{
		local("Alice", "Nguyen", strPtr("1EG4-TE5-MK72")),
		local("Bob", "Smith", strPtr("2AB8-CD1-XY34")),
	}

	res := Match(locals, PortalMember{
		FirstName: "Robert",
		LastName:  "Smithson",
		MemberID:  strPtr("2ab8-cd1-xy34"),
	})
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, locals[1].EnrollmentID, res.Enrollment.EnrollmentID)
	assert.False(t, res.Ambiguous)
}

func TestMatchIdentifierBeatsName(t *testing.T) {
	// Member ID points at one local while the name points at another. The
	// identifier tier must win.
	locals := []LocalEnrollment{
		local("Alice", "Nguyen", strPtr("1EG4-TE5-MK72")),
		local("Bob", "Smith", strPtr("2AB8-CD1-XY34")),
	}

	res := Match(locals, PortalMember{
		FirstName: "Bob",
		LastName:  "Smith",
		MemberID:  strPtr("1EG4-TE5-MK72"),
	})
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, locals[0].EnrollmentID, res.Enrollment.EnrollmentID)
}

func TestMatchFallsBackToName(t *testing.T) {
	locals := []LocalEnrollment{
		local("Alice", "Nguyen", nil),
		local("Bob", "Smith", strPtr("2AB8-CD1-XY34")),
	}

	// Identifier present but unknown: the name tier should still be tried.
	res := Match(locals, PortalMember{
		FirstName: "ALICE",
		LastName:  "nguyen",
		MemberID:  strPtr("9ZZ9-ZZ9-ZZ99"),
	})
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, locals[0].EnrollmentID, res.Enrollment.EnrollmentID)
}

func TestMatchNoIdentifierUsesName(t *testing.T) {
	locals := []LocalEnrollment{local("Alice", "Nguyen", strPtr("1EG4-TE5-MK72"))}

	res := Match(locals, PortalMember{FirstName: "alice", LastName: "NGUYEN"})
	require.NotNil(t, res.Enrollment)

	res = Match(locals, PortalMember{FirstName: "Alice", LastName: "Nguyenn"})
	assert.Nil(t, res.Enrollment)
}

func TestMatchEmptyMemberIDIgnored(t *testing.T) {
	locals := []LocalEnrollment{local("Alice", "Nguyen", strPtr(""))}

	// Empty identifiers on either side must not pair with each other.
	res := Match(locals, PortalMember{
		FirstName: "Somebody",
		LastName:  "Else",
		MemberID:  strPtr(""),
	})
	assert.Nil(t, res.Enrollment)
}

func TestMatchFirstWinsOnDuplicateNames(t *testing.T) {
	locals := []LocalEnrollment{
		local("Maria", "Garcia", nil),
		local("Maria", "Garcia", nil),
	}

	res := Match(locals, PortalMember{FirstName: "Maria", LastName: "Garcia"})
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, locals[0].EnrollmentID, res.Enrollment.EnrollmentID)
	assert.True(t, res.Ambiguous)
}

func TestMatchAgainstNoLocals(t *testing.T) {
	res := Match(nil, PortalMember{FirstName: "Alice", LastName: "Nguyen"})
	assert.Nil(t, res.Enrollment)
	assert.False(t, res.Ambiguous)
}
