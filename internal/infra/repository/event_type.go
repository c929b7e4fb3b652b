package repository

import (
	"context"

	"schedcore/internal/domain/booking"
	"schedcore/internal/infra/db"
)

type EventTypeRepository struct {
	db db.DBTX
}

func NewEventTypeRepository(dbtx db.DBTX) *EventTypeRepository {
	return &EventTypeRepository{db: dbtx}
}

// FindWithHosts loads the event type together with its host pool. Hosts carry
// the user fields reassignment needs so callers avoid a second lookup per
// candidate.
func (r *EventTypeRepository) FindWithHosts(ctx context.Context, id int64) (*booking.EventType, error) {
	var et booking.EventType
	err := r.db.QueryRow(ctx,
		`SELECT et.id, et.slug, et.title, et.description, et.scheduling_type,
			et.requires_confirmation, et.length, et.team_id, COALESCE(t.name, '')
		 FROM event_types et
		 LEFT JOIN teams t ON t.id = et.team_id
		 WHERE et.id = $1`, id,
	).Scan(&et.ID, &et.Slug, &et.Title, &et.Description, &et.SchedulingType,
		&et.RequiresConfirmation, &et.Length, &et.TeamID, &et.TeamName)
	if err != nil {
		return nil, classifyErr("failed to find event type", err)
	}

	hosts, err := r.loadHosts(ctx, id)
	if err != nil {
		return nil, err
	}
	et.Hosts = hosts
	return &et, nil
}

func (r *EventTypeRepository) loadHosts(ctx context.Context, eventTypeID int64) ([]booking.Host, error) {
	rows, err := r.db.Query(ctx,
		`SELECT h.user_id, u.name, u.email, u.time_zone, u.locale, h.is_fixed, h.priority
		 FROM hosts h
		 JOIN users u ON u.id = h.user_id
		 WHERE h.event_type_id = $1
		 ORDER BY h.priority DESC, h.user_id`, eventTypeID)
	if err != nil {
		return nil, classifyErr("failed to load hosts", err)
	}
	defer rows.Close()

	var hosts []booking.Host
	for rows.Next() {
		var h booking.Host
		if err := rows.Scan(&h.UserID, &h.Name, &h.Email, &h.TimeZone, &h.Locale, &h.IsFixed, &h.Priority); err != nil {
			return nil, classifyErr("failed to scan host", err)
		}
		hosts = append(hosts, h)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyErr("failed to iterate hosts", err)
	}
	return hosts, nil
}
