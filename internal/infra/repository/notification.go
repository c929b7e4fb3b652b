package repository

import (
	"context"
	"time"

	"schedcore/internal/infra/db"

	"github.com/google/uuid"
)

// NotificationRepository writes outbox jobs picked up by the dispatcher
// process. Writing in the same transaction as the booking mutation is what
// keeps notifications consistent with state changes.
type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(dbtx db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: dbtx}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notification_jobs (id, kind, topic, payload, run_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), kind, topic, payload, runAt)
	if err != nil {
		return classifyErr("failed to create notification job", err)
	}
	return nil
}
