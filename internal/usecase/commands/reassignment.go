package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/domain/booking"
	"schedcore/internal/infra"
	"schedcore/internal/pkg/clock"
	"schedcore/internal/pkg/errs"
	"schedcore/internal/pkg/metrics"
	"schedcore/internal/usecase/shared"
)

const googleCredentialType = "google_calendar"

type ReassignmentResult struct {
	BookingID      int64
	PreviousUserID int64
	NewUserID      int64
	ReasonText     string
}

type ReassignmentCommands interface {
	// Reassign moves the booking to an explicitly chosen pool member.
	Reassign(ctx context.Context, bookingID, targetUserID, reassignedByID int64, reason string) (*ReassignmentResult, error)
	// ReassignToAvailable picks the highest-priority dynamic host that is
	// not the current one and has no conflicting booking.
	ReassignToAvailable(ctx context.Context, bookingID, reassignedByID int64, reason string) (*ReassignmentResult, error)
}

type reassignmentUseCaseImpl struct {
	uow         shared.UnitOfWork
	eventTypes  EventTypeReader
	users       UserReader
	credentials CredentialReader
	calendar    CalendarService
	metrics     *metrics.Metrics
	clock       clock.Clock
}

func NewReassignmentUseCase(
	uow shared.UnitOfWork,
	eventTypes EventTypeReader,
	users UserReader,
	credentials CredentialReader,
	calendar CalendarService,
	m *metrics.Metrics,
	clk clock.Clock,
) ReassignmentCommands {
	return &reassignmentUseCaseImpl{
		uow:         uow,
		eventTypes:  eventTypes,
		users:       users,
		credentials: credentials,
		calendar:    calendar,
		metrics:     m,
		clock:       clk,
	}
}

// calendarPush carries what the post-commit calendar update needs, captured
// while the transaction still held the booking lock.
type calendarPush struct {
	booking *booking.Booking
	newHost booking.Host
	ref     *shared.CalendarReference
}

func (r *reassignmentUseCaseImpl) Reassign(ctx context.Context, bookingID, targetUserID, reassignedByID int64, reason string) (*ReassignmentResult, error) {
	return r.reassign(ctx, bookingID, reassignedByID, reason,
		func(ctx context.Context, tx shared.Tx, b *booking.Booking, et *booking.EventType) (*booking.Host, error) {
			host := et.HostByUserID(targetUserID)
			if host == nil {
				return nil, errs.ErrHostNotInPool
			}
			if host.IsFixed {
				return nil, errs.ErrHostIsFixed
			}
			if current := et.CurrentDynamicHost(b); current != nil && current.UserID == targetUserID {
				return nil, errs.ErrAlreadyAssigned
			}
			conflict, err := tx.Bookings().HasOverlapping(ctx, targetUserID, b.StartTime, b.EndTime, b.ID)
			if err != nil {
				return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
			}
			if conflict {
				return nil, errs.ErrHostDoubleBooked
			}
			return host, nil
		})
}

func (r *reassignmentUseCaseImpl) ReassignToAvailable(ctx context.Context, bookingID, reassignedByID int64, reason string) (*ReassignmentResult, error) {
	return r.reassign(ctx, bookingID, reassignedByID, reason,
		func(ctx context.Context, tx shared.Tx, b *booking.Booking, et *booking.EventType) (*booking.Host, error) {
			current := et.CurrentDynamicHost(b)
			for i := range et.Hosts {
				h := &et.Hosts[i]
				if h.IsFixed {
					continue
				}
				if current != nil && h.UserID == current.UserID {
					continue
				}
				conflict, err := tx.Bookings().HasOverlapping(ctx, h.UserID, b.StartTime, b.EndTime, b.ID)
				if err != nil {
					return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
				}
				if !conflict {
					return h, nil
				}
			}
			return nil, errs.ErrNoAvailableHost
		})
}

type hostPicker func(ctx context.Context, tx shared.Tx, b *booking.Booking, et *booking.EventType) (*booking.Host, error)

func (r *reassignmentUseCaseImpl) reassign(ctx context.Context, bookingID, reassignedByID int64, reason string, pick hostPicker) (*ReassignmentResult, error) {
	reassignerName, err := r.reassignerUsername(ctx, reassignedByID)
	if err != nil {
		return nil, err
	}

	var (
		result *ReassignmentResult
		push   *calendarPush
	)
	err = r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		b, err := tx.Bookings().FindByIDForUpdate(ctx, bookingID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrBookingNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		et, err := r.eventTypes.FindWithHosts(ctx, b.EventTypeID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrBookingNotAssignable
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if err := b.CanReassign(et.SchedulingType); err != nil {
			switch err {
			case booking.ErrTerminalStatus:
				return errs.ErrBookingTerminal
			case booking.ErrNotAssignable:
				return errs.ErrBookingNotAssignable
			default:
				return errs.Mark(err, errs.ErrInvalidAssignment)
			}
		}

		newHost, err := pick(ctx, tx, b, et)
		if err != nil {
			return err
		}

		previousUserID := b.UserID
		previousEmail := b.UserEmail
		if prev := et.CurrentDynamicHost(b); prev != nil {
			previousEmail = prev.Email
		}
		if err := r.applyReassignment(ctx, tx, b, et, newHost, reassignedByID, reason); err != nil {
			return err
		}

		reasonText := assignment.BuildReassignmentText(reassignerName, reason)
		if _, err := tx.AssignmentReasons().Create(ctx, b.ID, assignment.ReasonReassigned, reasonText); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		if err := r.enqueueReassignmentNotice(ctx, tx, b, previousEmail, newHost); err != nil {
			return err
		}

		ref, err := tx.Bookings().FindCalendarReference(ctx, b.ID)
		if err != nil && !infra.IsKind(err, infra.KindNotFound) {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		result = &ReassignmentResult{
			BookingID:      b.ID,
			PreviousUserID: previousUserID,
			NewUserID:      newHost.UserID,
			ReasonText:     reasonText,
		}
		push = &calendarPush{booking: b, newHost: *newHost, ref: ref}
		return nil
	})
	if err != nil {
		r.metrics.Reassignments.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := r.pushReschedule(ctx, push); err != nil {
		r.metrics.Reassignments.WithLabelValues("error").Inc()
		return result, err
	}

	r.metrics.Reassignments.WithLabelValues("ok").Inc()
	return result, nil
}

// applyReassignment mutates the booking in place as well as in the store so
// the caller can reuse the updated aggregate for the calendar push.
func (r *reassignmentUseCaseImpl) applyReassignment(ctx context.Context, tx shared.Tx, b *booking.Booking, et *booking.EventType, newHost *booking.Host, reassignedByID int64, reason string) error {
	var reassignReason *string
	if reason != "" {
		reassignReason = &reason
	}

	fixed := et.FixedHost()
	previous := et.CurrentDynamicHost(b)

	if fixed != nil && b.UserID == fixed.UserID {
		// Fixed organizer stays; the rotating host lives in the attendee
		// list, so the swap happens there.
		if previous == nil {
			return errs.ErrInvalidAssignment
		}
		prevAttendee := b.AttendeeByEmail(previous.Email)
		if prevAttendee == nil {
			return errs.ErrInvalidAssignment
		}
		next := booking.Attendee{
			ID:       prevAttendee.ID,
			Name:     newHost.Name,
			Email:    newHost.Email,
			TimeZone: newHost.TimeZone,
			Locale:   newHost.Locale,
		}
		if err := tx.Bookings().UpdateAttendee(ctx, prevAttendee.ID, next); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		*prevAttendee = next

		// Organizer fields stay as they are; this write records the reassign
		// audit columns on the booking row.
		upd := shared.OrganizerUpdate{
			UserID:         b.UserID,
			UserEmail:      b.UserEmail,
			Title:          b.Title,
			ReassignReason: reassignReason,
			ReassignByID:   reassignedByID,
		}
		if err := tx.Bookings().UpdateOrganizer(ctx, b.ID, upd); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		b.ReassignReason = reassignReason
		b.ReassignByID = &reassignedByID
	} else {
		title := b.Title
		if previous != nil && previous.Name != "" {
			title = strings.ReplaceAll(title, previous.Name, newHost.Name)
		}
		upd := shared.OrganizerUpdate{
			UserID:         newHost.UserID,
			UserEmail:      newHost.Email,
			Title:          title,
			ReassignReason: reassignReason,
			ReassignByID:   reassignedByID,
		}
		if err := tx.Bookings().UpdateOrganizer(ctx, b.ID, upd); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		b.UserID = newHost.UserID
		b.UserEmail = newHost.Email
		b.Title = title
		b.ReassignReason = reassignReason
		b.ReassignByID = &reassignedByID
	}

	// The pending marker survives the commit so a failed provider push can
	// be retried later without losing track of the divergence.
	m := b.Metadata
	m.CalendarSyncPending = true
	if err := tx.Bookings().UpdateMetadata(ctx, b.ID, m); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	b.Metadata = m
	return nil
}

func (r *reassignmentUseCaseImpl) reassignerUsername(ctx context.Context, reassignedByID int64) (string, error) {
	u, err := r.users.FindByID(ctx, reassignedByID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return "", nil
		}
		return "", errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return u.Username, nil
}

// enqueueReassignmentNotice writes the reassignment email plus the reminder
// swap: pending reminders addressed to the outgoing host are cancelled and
// re-scheduled for the incoming one.
func (r *reassignmentUseCaseImpl) enqueueReassignmentNotice(ctx context.Context, tx shared.Tx, b *booking.Booking, previousEmail string, newHost *booking.Host) error {
	now := r.clock.Now()
	jobs := []struct {
		topic   string
		payload map[string]any
	}{
		{
			topic: "booking_reassigned",
			payload: map[string]any{
				"booking_uid":    b.UID,
				"new_host_email": newHost.Email,
				"type":           "booking_reassigned",
			},
		},
		{
			topic: "reminder_cancel",
			payload: map[string]any{
				"booking_uid": b.UID,
				"host_email":  previousEmail,
				"type":        "reminder_cancel",
			},
		},
		{
			topic: "reminder_schedule",
			payload: map[string]any{
				"booking_uid": b.UID,
				"host_email":  newHost.Email,
				"start_time":  b.StartTime,
				"type":        "reminder_schedule",
			},
		},
	}
	for _, job := range jobs {
		payload, err := json.Marshal(job.payload)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if err := tx.Notifications().CreateJob(ctx, "email", job.topic, payload, now); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
	}
	return nil
}

// pushReschedule updates the provider copy after the local commit. When the
// push cannot happen (no reference, no credential) the pending marker is
// cleared because there is nothing to reconcile.
func (r *reassignmentUseCaseImpl) pushReschedule(ctx context.Context, push *calendarPush) error {
	if push.ref == nil {
		return r.clearSyncPending(ctx, push.booking)
	}

	cred, err := r.credentials.FindForUser(ctx, push.newHost.UserID, googleCredentialType)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			slog.Info("skipping calendar reschedule, host has no calendar credential",
				"booking_id", push.booking.ID, "user_id", push.newHost.UserID)
			return r.clearSyncPending(ctx, push.booking)
		}
		return errs.Mark(err, errs.ErrCalendarSyncFailed)
	}

	input := buildCalendarInput(push.booking, push.newHost)
	if err := r.calendar.RescheduleEvent(ctx, cred, push.ref.CalendarID, push.ref.ExternalEventID, input); err != nil {
		slog.Error("calendar reschedule failed, sync marker left pending",
			"booking_id", push.booking.ID, "error", err.Error())
		return errs.Mark(err, errs.ErrCalendarSyncFailed)
	}

	return r.clearSyncPending(ctx, push.booking)
}

func (r *reassignmentUseCaseImpl) clearSyncPending(ctx context.Context, b *booking.Booking) error {
	if !b.Metadata.CalendarSyncPending {
		return nil
	}
	m := b.Metadata
	m.CalendarSyncPending = false
	err := r.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Bookings().UpdateMetadata(ctx, b.ID, m)
	})
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	b.Metadata = m
	return nil
}

func buildCalendarInput(b *booking.Booking, organizer booking.Host) shared.CalendarEventInput {
	input := shared.CalendarEventInput{
		UID:          b.UID,
		Title:        b.Title,
		Description:  b.Description,
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Location:     b.Location,
		VideoCallURL: b.Metadata.VideoCallURL,
		Organizer: shared.EventPerson{
			Name:     organizer.Name,
			Email:    organizer.Email,
			TimeZone: organizer.TimeZone,
		},
	}
	for _, a := range b.Attendees {
		if strings.EqualFold(a.Email, organizer.Email) {
			continue
		}
		input.Attendees = append(input.Attendees, shared.EventPerson{
			Name:     a.Name,
			Email:    a.Email,
			TimeZone: a.TimeZone,
		})
	}
	return input
}
