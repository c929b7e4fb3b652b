package repository

import (
	"context"
	"time"

	"schedcore/internal/domain/booking"
	"schedcore/internal/infra"
	"schedcore/internal/infra/db"
	"schedcore/internal/usecase/shared"
)

const bookingColumns = `id, uid, title, description, start_time, end_time, status, paid,
	user_id, user_email, event_type_id, location, ical_uid, recurring_event_id,
	reassign_reason, reassign_by_id, metadata`

type BookingRepository struct {
	db db.DBTX
}

func NewBookingRepository(dbtx db.DBTX) *BookingRepository {
	return &BookingRepository{db: dbtx}
}

func (r *BookingRepository) FindByIDForUpdate(ctx context.Context, id int64) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, query, id)
}

func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.findOne(ctx, query, id)
}

func (r *BookingRepository) FindByUID(ctx context.Context, uid string) (*booking.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE uid = $1`
	return r.findOne(ctx, query, uid)
}

func (r *BookingRepository) findOne(ctx context.Context, query string, arg any) (*booking.Booking, error) {
	var (
		b           booking.Booking
		rawMetadata []byte
	)
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&b.ID, &b.UID, &b.Title, &b.Description, &b.StartTime, &b.EndTime,
		&b.Status, &b.Paid, &b.UserID, &b.UserEmail, &b.EventTypeID,
		&b.Location, &b.ICalUID, &b.RecurringEventID,
		&b.ReassignReason, &b.ReassignByID, &rawMetadata,
	)
	if err != nil {
		return nil, classifyErr("failed to find booking", err)
	}

	// Metadata shape is validated here, at the repository boundary.
	b.Metadata, err = booking.ParseMetadata(rawMetadata)
	if err != nil {
		return nil, classifyErr("failed to parse booking metadata", err)
	}

	attendees, err := r.loadAttendees(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	b.Attendees = attendees
	return &b, nil
}

func (r *BookingRepository) loadAttendees(ctx context.Context, bookingID int64) ([]booking.Attendee, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, time_zone, locale, phone_number
		 FROM attendees WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, classifyErr("failed to load attendees", err)
	}
	defer rows.Close()

	var attendees []booking.Attendee
	for rows.Next() {
		var a booking.Attendee
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.TimeZone, &a.Locale, &a.PhoneNumber); err != nil {
			return nil, classifyErr("failed to scan attendee", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate attendees", err)
	}
	return attendees, nil
}

func (r *BookingRepository) Create(ctx context.Context, b *booking.Booking) (int64, error) {
	rawMetadata, err := b.Metadata.MarshalBytes()
	if err != nil {
		return 0, classifyErr("failed to marshal booking metadata", err)
	}

	var id int64
	err = r.db.QueryRow(ctx,
		`INSERT INTO bookings (uid, title, description, start_time, end_time, status, paid,
			user_id, user_email, event_type_id, location, ical_uid, recurring_event_id, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, 0), $9, NULLIF($10, 0), $11, $12, $13, $14)
		 RETURNING id`,
		b.UID, b.Title, b.Description, b.StartTime, b.EndTime, b.Status, b.Paid,
		b.UserID, b.UserEmail, b.EventTypeID, b.Location, b.ICalUID, b.RecurringEventID, rawMetadata,
	).Scan(&id)
	if err != nil {
		return 0, classifyErr("failed to create booking", err)
	}

	if err := r.insertAttendees(ctx, id, b.Attendees); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *BookingRepository) insertAttendees(ctx context.Context, bookingID int64, attendees []booking.Attendee) error {
	for _, a := range attendees {
		_, err := r.db.Exec(ctx,
			`INSERT INTO attendees (booking_id, name, email, time_zone, locale, phone_number)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (booking_id, email) DO NOTHING`,
			bookingID, a.Name, a.Email, a.TimeZone, a.Locale, a.PhoneNumber)
		if err != nil {
			return classifyErr("failed to insert attendee", err)
		}
	}
	return nil
}

func (r *BookingRepository) UpdateOrganizer(ctx context.Context, id int64, upd shared.OrganizerUpdate) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE bookings
		 SET user_id = $2, user_email = $3, title = $4,
			 reassign_reason = $5, reassign_by_id = $6, updated_at = now()
		 WHERE id = $1`,
		id, upd.UserID, upd.UserEmail, upd.Title, upd.ReassignReason, upd.ReassignByID)
	if err != nil {
		return classifyErr("failed to update booking organizer", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("booking not found for organizer update", errNoRowsAffected, infra.KindNotFound)
	}
	return nil
}

func (r *BookingRepository) UpdateAttendee(ctx context.Context, attendeeID int64, a booking.Attendee) error {
	_, err := r.db.Exec(ctx,
		`UPDATE attendees SET name = $2, email = $3, time_zone = $4, locale = $5 WHERE id = $1`,
		attendeeID, a.Name, a.Email, a.TimeZone, a.Locale)
	if err != nil {
		return classifyErr("failed to update attendee", err)
	}
	return nil
}

func (r *BookingRepository) ReplaceAttendees(ctx context.Context, bookingID int64, attendees []booking.Attendee) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM attendees WHERE booking_id = $1`, bookingID); err != nil {
		return classifyErr("failed to delete attendees", err)
	}
	return r.insertAttendees(ctx, bookingID, attendees)
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, status booking.Status) error {
	_, err := r.db.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return classifyErr("failed to update booking status", err)
	}
	return nil
}

func (r *BookingRepository) UpdateMetadata(ctx context.Context, id int64, m booking.Metadata) error {
	raw, err := m.MarshalBytes()
	if err != nil {
		return classifyErr("failed to marshal booking metadata", err)
	}
	_, err = r.db.Exec(ctx,
		`UPDATE bookings SET metadata = $2, updated_at = now() WHERE id = $1`, id, raw)
	if err != nil {
		return classifyErr("failed to update booking metadata", err)
	}
	return nil
}

func (r *BookingRepository) UpdateExternalEvent(ctx context.Context, id int64, upd shared.ExternalEventUpdate) error {
	raw, err := upd.Metadata.MarshalBytes()
	if err != nil {
		return classifyErr("failed to marshal booking metadata", err)
	}
	_, err = r.db.Exec(ctx,
		`UPDATE bookings
		 SET title = $2, description = $3, start_time = $4, end_time = $5,
			 location = $6, ical_uid = $7, recurring_event_id = $8, metadata = $9,
			 updated_at = now()
		 WHERE id = $1`,
		id, upd.Title, upd.Description, upd.StartTime, upd.EndTime,
		upd.Location, upd.ICalUID, upd.RecurringEventID, raw)
	if err != nil {
		return classifyErr("failed to update external booking", err)
	}
	return nil
}

func (r *BookingRepository) UpdateSettlement(ctx context.Context, id int64, upd shared.SettlementUpdate) error {
	var err error
	if upd.Status != nil {
		_, err = r.db.Exec(ctx,
			`UPDATE bookings SET paid = $2, status = $3, updated_at = now() WHERE id = $1`,
			id, upd.Paid, *upd.Status)
	} else {
		_, err = r.db.Exec(ctx,
			`UPDATE bookings SET paid = $2, updated_at = now() WHERE id = $1`, id, upd.Paid)
	}
	if err != nil {
		return classifyErr("failed to update booking settlement", err)
	}
	return nil
}

func (r *BookingRepository) AddCalendarReference(ctx context.Context, bookingID int64, ref shared.CalendarReference) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO booking_references (booking_id, external_event_id, ical_uid, calendar_id)
		 VALUES ($1, $2, $3, $4)`,
		bookingID, ref.ExternalEventID, ref.ICalUID, ref.CalendarID)
	if err != nil {
		return classifyErr("failed to add calendar reference", err)
	}
	return nil
}

func (r *BookingRepository) FindCalendarReference(ctx context.Context, bookingID int64) (*shared.CalendarReference, error) {
	var ref shared.CalendarReference
	err := r.db.QueryRow(ctx,
		`SELECT external_event_id, ical_uid, calendar_id
		 FROM booking_references WHERE booking_id = $1
		 ORDER BY id DESC LIMIT 1`, bookingID,
	).Scan(&ref.ExternalEventID, &ref.ICalUID, &ref.CalendarID)
	if err != nil {
		return nil, classifyErr("failed to find calendar reference", err)
	}
	return &ref, nil
}

func (r *BookingRepository) HasOverlapping(ctx context.Context, userID int64, start, end time.Time, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE user_id = $1
			  AND status IN ('PENDING', 'ACCEPTED')
			  AND start_time < $3 AND end_time > $2
			  AND id <> $4
		 )`, userID, start, end, excludeID).Scan(&exists)
	if err != nil {
		return false, classifyErr("failed to check overlapping bookings", err)
	}
	return exists, nil
}
