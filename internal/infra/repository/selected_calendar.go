package repository

import (
	"context"

	"schedcore/internal/infra/db"
	"schedcore/internal/usecase/shared"
)

const selectedCalendarColumns = `id, user_id, external_id, credential_id,
	channel_id, channel_expires_at`

type SelectedCalendarRepository struct {
	db db.DBTX
}

func NewSelectedCalendarRepository(dbtx db.DBTX) *SelectedCalendarRepository {
	return &SelectedCalendarRepository{db: dbtx}
}

// FindByChannelID resolves an incoming push notification channel back to the
// calendar it watches.
func (r *SelectedCalendarRepository) FindByChannelID(ctx context.Context, channelID string) (*shared.SelectedCalendar, error) {
	var sc shared.SelectedCalendar
	err := r.db.QueryRow(ctx,
		`SELECT `+selectedCalendarColumns+` FROM selected_calendars WHERE channel_id = $1`,
		channelID,
	).Scan(&sc.ID, &sc.UserID, &sc.ExternalID, &sc.CredentialID, &sc.ChannelID, &sc.ChannelExpiresAt)
	if err != nil {
		return nil, classifyErr("failed to find selected calendar by channel", err)
	}
	return &sc, nil
}

func (r *SelectedCalendarRepository) ListByCredential(ctx context.Context, credentialID int64) ([]shared.SelectedCalendar, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+selectedCalendarColumns+` FROM selected_calendars WHERE credential_id = $1 ORDER BY id`,
		credentialID)
	if err != nil {
		return nil, classifyErr("failed to list selected calendars", err)
	}
	defer rows.Close()

	var calendars []shared.SelectedCalendar
	for rows.Next() {
		var sc shared.SelectedCalendar
		if err := rows.Scan(&sc.ID, &sc.UserID, &sc.ExternalID, &sc.CredentialID, &sc.ChannelID, &sc.ChannelExpiresAt); err != nil {
			return nil, classifyErr("failed to scan selected calendar", err)
		}
		calendars = append(calendars, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate selected calendars", err)
	}
	return calendars, nil
}
