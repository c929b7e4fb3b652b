package queries

import (
	"context"
	"time"

	"schedcore/internal/infra/db"
	"schedcore/internal/infra/repository"
	"schedcore/internal/pkg/errs"
)

// Read models (DTO for read side)
type BookingView struct {
	ID               int64          `json:"id"`
	UID              string         `json:"uid"`
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	StartTime        time.Time      `json:"start_time"`
	EndTime          time.Time      `json:"end_time"`
	Status           string         `json:"status"`
	Paid             bool           `json:"paid"`
	UserID           int64          `json:"user_id,omitempty"`
	UserEmail        string         `json:"user_email,omitempty"`
	EventTypeID      int64          `json:"event_type_id,omitempty"`
	Location         string         `json:"location,omitempty"`
	RecurringEventID *string        `json:"recurring_event_id,omitempty"`
	ReassignReason   *string        `json:"reassign_reason,omitempty"`
	Attendees        []AttendeeView `json:"attendees"`
}

type AttendeeView struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	TimeZone string `json:"time_zone"`
}

type AssignmentReasonView struct {
	ID        int64     `json:"id"`
	Enum      string    `json:"reason_enum"`
	Text      string    `json:"reason_string"`
	CreatedAt time.Time `json:"created_at"`
}

type BookingQueries interface {
	GetByID(ctx context.Context, id int64) (*BookingView, error)
	ListAssignmentReasons(ctx context.Context, bookingID int64) ([]AssignmentReasonView, error)
}

type bookingQueriesImpl struct {
	bookings *repository.BookingRepository
	reasons  *repository.AssignmentReasonRepository
}

func NewBookingQueries(dbtx db.DBTX) BookingQueries {
	return &bookingQueriesImpl{
		bookings: repository.NewBookingRepository(dbtx),
		reasons:  repository.NewAssignmentReasonRepository(dbtx),
	}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id int64) (*BookingView, error) {
	b, err := q.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &BookingView{
		ID:               b.ID,
		UID:              b.UID,
		Title:            b.Title,
		Description:      b.Description,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		Status:           string(b.Status),
		Paid:             b.Paid,
		UserID:           b.UserID,
		UserEmail:        b.UserEmail,
		EventTypeID:      b.EventTypeID,
		Location:         b.Location,
		RecurringEventID: b.RecurringEventID,
		ReassignReason:   b.ReassignReason,
		Attendees:        make([]AttendeeView, 0, len(b.Attendees)),
	}
	for _, a := range b.Attendees {
		view.Attendees = append(view.Attendees, AttendeeView{
			Name:     a.Name,
			Email:    a.Email,
			TimeZone: a.TimeZone,
		})
	}
	return view, nil
}

func (q *bookingQueriesImpl) ListAssignmentReasons(ctx context.Context, bookingID int64) ([]AssignmentReasonView, error) {
	reasons, err := q.reasons.ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, errs.Wrap(err, "failed to load assignment reasons")
	}

	views := make([]AssignmentReasonView, 0, len(reasons))
	for _, r := range reasons {
		views = append(views, AssignmentReasonView{
			ID:        r.ID,
			Enum:      string(r.Enum),
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	return views, nil
}
