package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"schedcore/internal/domain/booking"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/clock"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/pkg/metrics"
	"schedcore/internal/usecase/shared"
)

// updatedLookback bounds how far back a sync pass asks the provider for
// changes. Push channels fire promptly, so this only papers over missed
// notifications.
const updatedLookback = 30 * 24 * time.Hour

type SyncSummary struct {
	Created   int
	Updated   int
	Cancelled int
	Skipped   int
	Failed    int
}

type CalendarSyncCommands interface {
	// SyncByChannel reconciles local bookings with the provider calendar
	// behind a push notification channel.
	SyncByChannel(ctx context.Context, channelID string) (*SyncSummary, error)
}

type calendarSyncUseCaseImpl struct {
	uow               shared.UnitOfWork
	selectedCalendars SelectedCalendarReader
	credentials       CredentialReader
	users             UserReader
	calendar          CalendarService
	metrics           *metrics.Metrics
	clock             clock.Clock
}

func NewCalendarSyncUseCase(
	uow shared.UnitOfWork,
	selectedCalendars SelectedCalendarReader,
	credentials CredentialReader,
	users UserReader,
	calendar CalendarService,
	m *metrics.Metrics,
	clk clock.Clock,
) CalendarSyncCommands {
	return &calendarSyncUseCaseImpl{
		uow:               uow,
		selectedCalendars: selectedCalendars,
		credentials:       credentials,
		users:             users,
		calendar:          calendar,
		metrics:           m,
		clock:             clk,
	}
}

func (c *calendarSyncUseCaseImpl) SyncByChannel(ctx context.Context, channelID string) (*SyncSummary, error) {
	sc, err := c.selectedCalendars.FindByChannelID(ctx, channelID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrSelectedCalendarNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	cred, err := c.credentials.FindByID(ctx, sc.CredentialID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrCredentialNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	owner, err := c.users.FindByID(ctx, sc.UserID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	set, err := c.calendar.ListUpdatedEvents(ctx, cred, sc.ExternalID, c.clock.Now().Add(-updatedLookback))
	if err != nil {
		c.metrics.SyncFailures.Inc()
		return nil, errs.Mark(err, errs.ErrCalendarSyncFailed)
	}

	// One bad event must not poison the rest of the batch; failures are
	// counted and logged, then the pass moves on.
	summary := &SyncSummary{}
	for i := range set.Confirmed {
		ev := &set.Confirmed[i]
		outcome, err := c.applyConfirmed(ctx, owner, ev)
		c.record(summary, outcome, err, ev.ID)
	}
	for i := range set.Cancelled {
		ev := &set.Cancelled[i]
		outcome, err := c.applyCancelled(ctx, ev)
		c.record(summary, outcome, err, ev.ID)
	}

	slog.Info("calendar sync pass finished",
		"channel_id", channelID,
		"created", summary.Created, "updated", summary.Updated,
		"cancelled", summary.Cancelled, "skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

type syncOutcome int

const (
	outcomeCreated syncOutcome = iota
	outcomeUpdated
	outcomeCancelled
	outcomeSkipped
)

func (c *calendarSyncUseCaseImpl) record(summary *SyncSummary, outcome syncOutcome, err error, eventID string) {
	if err != nil {
		summary.Failed++
		c.metrics.SyncedEvents.WithLabelValues("error").Inc()
		slog.Error("failed to sync calendar event", "event_id", eventID, "error", err.Error())
		return
	}
	switch outcome {
	case outcomeCreated:
		summary.Created++
		c.metrics.SyncedEvents.WithLabelValues("ok").Inc()
	case outcomeUpdated:
		summary.Updated++
		c.metrics.SyncedEvents.WithLabelValues("ok").Inc()
	case outcomeCancelled:
		summary.Cancelled++
		c.metrics.SyncedEvents.WithLabelValues("ok").Inc()
	case outcomeSkipped:
		summary.Skipped++
		c.metrics.SyncedEvents.WithLabelValues("noop").Inc()
	}
}

func (c *calendarSyncUseCaseImpl) applyConfirmed(ctx context.Context, owner *shared.User, ev *shared.ExternalEvent) (syncOutcome, error) {
	link, err := c.resolveBooker(ctx, owner, ev)
	if err != nil {
		return outcomeSkipped, err
	}

	outcome := outcomeSkipped
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		existing, err := tx.Bookings().FindByUID(ctx, ev.ID)
		if err != nil {
			if !infra.IsKind(err, infra.KindNotFound) {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			outcome, err = c.createFromExternal(ctx, tx, owner, link, ev)
			return err
		}
		outcome, err = c.updateFromExternal(ctx, tx, owner, link, existing, ev)
		return err
	})
	if err != nil {
		return outcomeSkipped, err
	}
	return outcome, nil
}

// bookerLink identifies who the synced booking belongs to. The booker is the
// provider attendee flagged as organizer; when their email matches a local
// account the booking is linked to it, otherwise the calendar owner stands in.
type bookerLink struct {
	userID    int64
	userEmail string
}

func (c *calendarSyncUseCaseImpl) resolveBooker(ctx context.Context, owner *shared.User, ev *shared.ExternalEvent) (bookerLink, error) {
	link := bookerLink{userID: owner.ID, userEmail: owner.Email}
	booker := externalBooker(ev)
	if booker == nil || booker.Email == "" {
		return link, nil
	}
	local, err := c.users.FindByEmail(ctx, booker.Email)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return link, nil
		}
		return link, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	link.userID = local.ID
	link.userEmail = local.Email
	return link, nil
}

func externalBooker(ev *shared.ExternalEvent) *shared.ExternalAttendee {
	for i := range ev.Attendees {
		if ev.Attendees[i].Organizer {
			return &ev.Attendees[i]
		}
	}
	return nil
}

func (c *calendarSyncUseCaseImpl) createFromExternal(ctx context.Context, tx shared.Tx, owner *shared.User, link bookerLink, ev *shared.ExternalEvent) (syncOutcome, error) {
	b := &booking.Booking{
		UID:         ev.ID,
		Title:       ev.Summary,
		Description: ev.Description,
		StartTime:   ev.StartTime,
		EndTime:     ev.EndTime,
		Status:      booking.StatusAccepted,
		UserID:      link.userID,
		UserEmail:   link.userEmail,
		Location:    ev.Location,
		ICalUID:     ev.ICalUID,
		Metadata:    externalMetadata(booking.Metadata{}, ev),
		Attendees:   externalAttendees(owner, link, ev),
	}
	if len(ev.Recurrence) > 0 {
		rid := booking.ExternalRecurringEventID(ev.ID)
		b.RecurringEventID = &rid
	}

	if _, err := tx.Bookings().Create(ctx, b); err != nil {
		// A concurrent notification already created this booking.
		if infra.IsKind(err, infra.KindDuplicateKey) {
			return outcomeSkipped, nil
		}
		return outcomeSkipped, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return outcomeCreated, nil
}

func (c *calendarSyncUseCaseImpl) updateFromExternal(ctx context.Context, tx shared.Tx, owner *shared.User, link bookerLink, existing *booking.Booking, ev *shared.ExternalEvent) (syncOutcome, error) {
	nextMetadata := externalMetadata(existing.Metadata, ev)

	var recurringEventID *string
	if len(ev.Recurrence) > 0 {
		rid := booking.ExternalRecurringEventID(ev.ID)
		recurringEventID = &rid
	} else {
		recurringEventID = existing.RecurringEventID
	}

	nextAttendees := externalAttendees(owner, link, ev)
	attendeesChanged := booking.AttendeeEmailsChanged(existing.Attendees, nextAttendees)

	if !attendeesChanged && !externalFieldsChanged(existing, ev, recurringEventID, nextMetadata) {
		return outcomeSkipped, nil
	}

	upd := shared.ExternalEventUpdate{
		Title:            ev.Summary,
		Description:      ev.Description,
		StartTime:        ev.StartTime,
		EndTime:          ev.EndTime,
		Location:         ev.Location,
		ICalUID:          ev.ICalUID,
		RecurringEventID: recurringEventID,
		Metadata:         nextMetadata,
	}
	if err := tx.Bookings().UpdateExternalEvent(ctx, existing.ID, upd); err != nil {
		return outcomeSkipped, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if attendeesChanged {
		if err := tx.Bookings().ReplaceAttendees(ctx, existing.ID, nextAttendees); err != nil {
			return outcomeSkipped, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}
	return outcomeUpdated, nil
}

func (c *calendarSyncUseCaseImpl) applyCancelled(ctx context.Context, ev *shared.ExternalEvent) (syncOutcome, error) {
	outcome := outcomeSkipped
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		existing, err := tx.Bookings().FindByUID(ctx, ev.ID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return nil
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		// A cancelled event still carrying recurrence lines is the series
		// itself; only the stored pattern is rewritten. Instance cancellations
		// arrive without recurrence lines and cancel the booking below.
		if len(ev.Recurrence) > 0 {
			m := externalMetadata(existing.Metadata, ev)
			if m.Equal(existing.Metadata) {
				return nil
			}
			if err := tx.Bookings().UpdateMetadata(ctx, existing.ID, m); err != nil {
				return errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			outcome = outcomeUpdated
			return nil
		}

		if existing.Status.Terminal() {
			return nil
		}
		if err := tx.Bookings().UpdateStatus(ctx, existing.ID, booking.StatusCancelled); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		outcome = outcomeCancelled
		return nil
	})
	if err != nil {
		return outcomeSkipped, err
	}
	return outcome, nil
}

func externalMetadata(base booking.Metadata, ev *shared.ExternalEvent) booking.Metadata {
	m := base
	m.IsExternalEvent = true
	if ev.HangoutLink != "" {
		m.VideoCallURL = ev.HangoutLink
	}
	if len(ev.Recurrence) > 0 {
		if pattern := booking.ParseRecurrenceLines(ev.Recurrence); !pattern.IsZero() {
			m.RecurrencePattern = &pattern
		}
	}
	return m
}

// externalAttendees maps provider attendees onto booking attendees. The
// booking user is left out: a linked booker (or the calendar owner) holds the
// organizer role, while an unlinked booker stays in the list like any guest.
func externalAttendees(owner *shared.User, link bookerLink, ev *shared.ExternalEvent) []booking.Attendee {
	var attendees []booking.Attendee
	for _, a := range ev.Attendees {
		if a.Email == "" || strings.EqualFold(a.Email, link.userEmail) {
			continue
		}
		name := a.DisplayName
		if name == "" {
			name = a.Email
		}
		tz := ev.TimeZone
		if tz == "" {
			tz = owner.TimeZone
		}
		attendees = append(attendees, booking.Attendee{
			Name:     name,
			Email:    a.Email,
			TimeZone: tz,
			Locale:   owner.Locale,
		})
	}
	return attendees
}

func externalFieldsChanged(existing *booking.Booking, ev *shared.ExternalEvent, recurringEventID *string, nextMetadata booking.Metadata) bool {
	if existing.Title != ev.Summary ||
		existing.Description != ev.Description ||
		!existing.StartTime.Equal(ev.StartTime) ||
		!existing.EndTime.Equal(ev.EndTime) ||
		existing.Location != ev.Location ||
		existing.ICalUID != ev.ICalUID {
		return true
	}
	if !equalStringPtr(existing.RecurringEventID, recurringEventID) {
		return true
	}
	return !existing.Metadata.Equal(nextMetadata)
}

func equalStringPtr(a, b *string) bool {
	switch {
	case a == nil && b == nil:
		return true
	case a == nil || b == nil:
		return false
	default:
		return *a == *b
	}
}
