package shared

import (
	"context"
	"time"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/domain/booking"
	"schedcore/internal/domain/payment"
)

// UnitOfWork scopes a set of repository mutations to one transaction.
// Per-booking operations serialize on the booking row: Within combined with
// BookingRepository.FindByIDForUpdate gives a row-level lock, so a second
// concurrent reassignment or settlement blocks instead of overwriting.
type UnitOfWork interface {
	Within(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	Bookings() BookingRepository
	Payments() PaymentRepository
	AssignmentReasons() AssignmentReasonRepository
	Notifications() NotificationRepository
}

// OrganizerUpdate moves the organizer role on a booking. Title changes when
// the event name embeds the host; reason/by are the booking-row copy of the
// audit trail.
type OrganizerUpdate struct {
	UserID         int64
	UserEmail      string
	Title          string
	ReassignReason *string
	ReassignByID   int64
}

// ExternalEventUpdate carries the fields calendar sync may rewrite on an
// externally-owned booking.
type ExternalEventUpdate struct {
	Title            string
	Description      string
	StartTime        time.Time
	EndTime          time.Time
	Location         string
	ICalUID          string
	RecurringEventID *string
	Metadata         booking.Metadata
}

// SettlementUpdate is the booking half of a settlement transaction. Status
// is nil when the booking must stay PENDING (manual confirmation required).
type SettlementUpdate struct {
	Paid   bool
	Status *booking.Status
}

type BookingRepository interface {
	// FindByIDForUpdate loads the aggregate under FOR UPDATE so concurrent
	// mutations of the same booking serialize.
	FindByIDForUpdate(ctx context.Context, id int64) (*booking.Booking, error)
	FindByUID(ctx context.Context, uid string) (*booking.Booking, error)
	Create(ctx context.Context, b *booking.Booking) (int64, error)
	UpdateOrganizer(ctx context.Context, id int64, upd OrganizerUpdate) error
	UpdateAttendee(ctx context.Context, attendeeID int64, a booking.Attendee) error
	ReplaceAttendees(ctx context.Context, bookingID int64, attendees []booking.Attendee) error
	UpdateStatus(ctx context.Context, id int64, status booking.Status) error
	UpdateMetadata(ctx context.Context, id int64, m booking.Metadata) error
	UpdateExternalEvent(ctx context.Context, id int64, upd ExternalEventUpdate) error
	UpdateSettlement(ctx context.Context, id int64, upd SettlementUpdate) error
	AddCalendarReference(ctx context.Context, bookingID int64, ref CalendarReference) error
	FindCalendarReference(ctx context.Context, bookingID int64) (*CalendarReference, error)
	// HasOverlapping reports whether the user already organizes a
	// non-cancelled booking intersecting [start, end), excluding excludeID.
	HasOverlapping(ctx context.Context, userID int64, start, end time.Time, excludeID int64) (bool, error)
}

type PaymentRepository interface {
	FindByIDForUpdate(ctx context.Context, id int64) (*payment.Payment, error)
	MarkSuccess(ctx context.Context, id int64, data []byte) error
}

type AssignmentReasonRepository interface {
	// Create appends one audit row; rows are never updated or deleted.
	Create(ctx context.Context, bookingID int64, enum assignment.ReasonEnum, text string) (int64, error)
}

type NotificationRepository interface {
	CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error
}
