package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cybx-security/protect/internal/protect/model"
)

// ListEventsSince returns the device's engagement events with
// occurred_at >= since, newest first.
func (p *Postgres) ListEventsSince(ctx context.Context, deviceID uuid.UUID, since time.Time) ([]model.EngagementEvent, error) {
	query := `
		SELECT id, device_id, event_type, occurred_at, points, meta
		FROM engagement_events
		WHERE device_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC`

	rows, err := p.pool.Query(ctx, query, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("query engagement events: %w", err)
	}
	defer rows.Close()

	var events []model.EngagementEvent
	for rows.Next() {
		var ev model.EngagementEvent
		var meta []byte
		if err := rows.Scan(&ev.ID, &ev.DeviceID, &ev.EventType, &ev.OccurredAt, &ev.Points, &meta); err != nil {
			return nil, fmt.Errorf("scan engagement event: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &ev.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal event meta: %w", err)
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// InsertEvent appends an engagement event.
func (p *Postgres) InsertEvent(ctx context.Context, ev *model.EngagementEvent) error {
	meta, err := json.Marshal(ev.Meta)
	if err != nil {
		return fmt.Errorf("marshal event meta: %w", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO engagement_events (id, device_id, event_type, occurred_at, points, meta)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.DeviceID, ev.EventType, ev.OccurredAt, ev.Points, meta,
	)
	if err != nil {
		return fmt.Errorf("insert engagement event: %w", err)
	}
	return nil
}

// GetEngagementRule returns the rule config for an event type, or (nil, nil)
// when the type is not configured.
func (p *Postgres) GetEngagementRule(ctx context.Context, eventType string) (*model.EngagementRule, error) {
	var r model.EngagementRule
	err := p.pool.QueryRow(ctx, `
		SELECT id, event_type, window_days, min_count, points
		FROM engagement_rules_config
		WHERE event_type = $1`,
		eventType,
	).Scan(&r.ID, &r.EventType, &r.WindowDays, &r.MinCount, &r.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query engagement rule: %w", err)
	}
	return &r, nil
}
