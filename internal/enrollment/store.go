package enrollment

import (
	"context"

	id "agentbook/pkg/domain"
)

// Store persists enrollments.
type Store interface {
	Create(ctx context.Context, e *Enrollment) error
	Update(ctx context.Context, e *Enrollment) error
	FindByID(ctx context.Context, enrollmentID id.EnrollmentID) (*Enrollment, error)
	// List returns enrollments joined to client and carrier names, newest
	// first. A nil clientID returns the whole book.
	List(ctx context.Context, clientID *id.ClientID) ([]WithNames, error)
}
