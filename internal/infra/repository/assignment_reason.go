package repository

import (
	"context"

	"schedcore/internal/domain/assignment"
	"schedcore/internal/infra/db"
)

type AssignmentReasonRepository struct {
	db db.DBTX
}

func NewAssignmentReasonRepository(dbtx db.DBTX) *AssignmentReasonRepository {
	return &AssignmentReasonRepository{db: dbtx}
}

// Create only ever inserts; the table carries no update path by design of
// the audit trail.
func (r *AssignmentReasonRepository) Create(ctx context.Context, bookingID int64, enum assignment.ReasonEnum, text string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO assignment_reasons (booking_id, reason_enum, reason_string)
		 VALUES ($1, $2, $3) RETURNING id`,
		bookingID, enum, text).Scan(&id)
	if err != nil {
		return 0, classifyErr("failed to create assignment reason", err)
	}
	return id, nil
}

func (r *AssignmentReasonRepository) ListByBookingID(ctx context.Context, bookingID int64) ([]assignment.Reason, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, booking_id, reason_enum, reason_string, created_at
		 FROM assignment_reasons WHERE booking_id = $1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, classifyErr("failed to list assignment reasons", err)
	}
	defer rows.Close()

	var reasons []assignment.Reason
	for rows.Next() {
		var reason assignment.Reason
		if err := rows.Scan(&reason.ID, &reason.BookingID, &reason.Enum, &reason.Text, &reason.CreatedAt); err != nil {
			return nil, classifyErr("failed to scan assignment reason", err)
		}
		reasons = append(reasons, reason)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate assignment reasons", err)
	}
	return reasons, nil
}
