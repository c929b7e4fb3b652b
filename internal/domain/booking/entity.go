package booking

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrTerminalStatus = errors.New("booking is in a terminal state")
	ErrNotAssignable  = errors.New("event type does not allow host reassignment")
	ErrNoOrganizer    = errors.New("booking has no organizer")
)

// Attendee is owned by its booking; replacing the attendee set is
// transactional with the booking update.
type Attendee struct {
	ID          int64
	Name        string
	Email       string
	TimeZone    string
	Locale      string
	PhoneNumber *string
}

// Booking is the aggregate root. The uid is the external-facing opaque
// identifier, stable across reschedules; externally-synced bookings reuse the
// provider's event id as uid.
type Booking struct {
	ID               int64
	UID              string
	Title            string
	Description      string
	StartTime        time.Time
	EndTime          time.Time
	Status           Status
	Paid             bool
	UserID           int64
	UserEmail        string
	EventTypeID      int64
	Location         string
	ICalUID          string
	RecurringEventID *string
	ReassignReason   *string
	ReassignByID     *int64
	Metadata         Metadata
	Attendees        []Attendee
}

// CanReassign enforces the preconditions shared by manual and automatic
// reassignment. Terminal bookings only accumulate audit records.
func (b *Booking) CanReassign(schedulingType SchedulingType) error {
	if b.Status.Terminal() {
		return ErrTerminalStatus
	}
	if !schedulingType.HostAssignable() {
		return ErrNotAssignable
	}
	if b.UserID == 0 {
		return ErrNoOrganizer
	}
	return nil
}

func (b *Booking) AttendeeByEmail(email string) *Attendee {
	for i := range b.Attendees {
		if strings.EqualFold(b.Attendees[i].Email, email) {
			return &b.Attendees[i]
		}
	}
	return nil
}

func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// AttendeeEmailsChanged compares attendee email sets so sync can skip the
// delete-and-recreate of attendee rows when nothing moved.
func AttendeeEmailsChanged(existing, next []Attendee) bool {
	if len(existing) != len(next) {
		return true
	}
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[strings.ToLower(a.Email)] = struct{}{}
	}
	for _, a := range next {
		if _, ok := seen[strings.ToLower(a.Email)]; !ok {
			return true
		}
	}
	return false
}
