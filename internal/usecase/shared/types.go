package shared

import "time"

type User struct {
	ID       int64
	Username string
	Name     string
	Email    string
	TimeZone string
	Locale   string
}

// SelectedCalendar links a user to one third-party calendar, with the sync
// channel registered for it and the credential used for authenticated calls.
type SelectedCalendar struct {
	ID               int64
	UserID           int64
	ExternalID       string
	CredentialID     int64
	ChannelID        string
	ChannelExpiresAt *time.Time
}

// Credential holds one user's OAuth grant for a calendar provider. Token
// refresh is the provider client's job; repositories only persist the result.
type Credential struct {
	ID           int64
	UserID       int64
	Type         string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

type EventPerson struct {
	Name     string
	Email    string
	TimeZone string
}

// CalendarEventInput is the provider-agnostic event payload pushed on
// create/reschedule calls.
type CalendarEventInput struct {
	UID          string
	Title        string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	Location     string
	VideoCallURL string
	Organizer    EventPerson
	Attendees    []EventPerson
}

// CalendarReference correlates a booking with the provider-side event.
type CalendarReference struct {
	ExternalEventID string
	ICalUID         string
	CalendarID      string
}

type ExternalAttendee struct {
	Email       string
	DisplayName string
	Organizer   bool
}

// ExternalEvent is one provider-reported event, normalized off the wire.
type ExternalEvent struct {
	ID          string
	ICalUID     string
	Summary     string
	Description string
	Location    string
	HangoutLink string
	StartTime   time.Time
	EndTime     time.Time
	TimeZone    string
	Recurrence  []string
	Attendees   []ExternalAttendee
}

type ExternalEventSet struct {
	Confirmed []ExternalEvent
	Cancelled []ExternalEvent
}
