package commands

import (
	"context"
	"time"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/domain/booking"
	"schedcore/internal/domain/payment"
	"schedcore/internal/usecase/shared"
)

// Read-side ports consumed by the command usecases. Implemented by the
// pool-backed repositories; reads here do not need the transactional lock.

type EventTypeReader interface {
	FindWithHosts(ctx context.Context, id int64) (*booking.EventType, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id int64) (*shared.User, error)
	FindByEmail(ctx context.Context, email string) (*shared.User, error)
}

type CredentialReader interface {
	FindByID(ctx context.Context, id int64) (*shared.Credential, error)
	FindForUser(ctx context.Context, userID int64, credType string) (*shared.Credential, error)
}

type SelectedCalendarReader interface {
	FindByChannelID(ctx context.Context, channelID string) (*shared.SelectedCalendar, error)
}

type PaymentReader interface {
	FindByExternalID(ctx context.Context, externalID string) (*payment.Payment, error)
}

type RoutingFormReader interface {
	FindResponse(ctx context.Context, responseID int64) (*assignment.FormResponse, error)
	UserAttributes(ctx context.Context, userID, teamID int64) ([]assignment.Attribute, error)
}

// CalendarService is the provider port. Credentials are passed per call
// because every call acts for a specific user's grant.
type CalendarService interface {
	CreateEvent(ctx context.Context, cred *shared.Credential, calendarID string, input shared.CalendarEventInput) (*shared.CalendarReference, error)
	RescheduleEvent(ctx context.Context, cred *shared.Credential, calendarID, externalEventID string, input shared.CalendarEventInput) error
	ListUpdatedEvents(ctx context.Context, cred *shared.Credential, calendarID string, updatedMin time.Time) (*shared.ExternalEventSet, error)
}
