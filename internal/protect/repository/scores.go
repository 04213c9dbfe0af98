package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cybx-security/protect/internal/protect/model"
)

// GetCurrentScore returns the device's current score state, or (nil, nil)
// when the device has never been scored.
func (p *Postgres) GetCurrentScore(ctx context.Context, deviceID uuid.UUID) (*model.CurrentScore, error) {
	var c model.CurrentScore
	err := p.pool.QueryRow(ctx, `
		SELECT device_id, total_score, security_score, security_deductions,
		       engagement_points, insurance_points, status, color_code,
		       last_calculated_at, current_streak_days, phishing_week_count
		FROM device_current_scores
		WHERE device_id = $1`,
		deviceID,
	).Scan(
		&c.DeviceID, &c.TotalScore, &c.SecurityScore, &c.SecurityDeductions,
		&c.EngagementPoints, &c.InsurancePoints, &c.Status, &c.ColorCode,
		&c.LastCalculatedAt, &c.CurrentStreakDays, &c.PhishingWeekCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query current score: %w", err)
	}
	return &c, nil
}

// UpsertScores writes the current-state row and the daily snapshot in one
// transaction. Both inserts are race-safe ON CONFLICT upserts, so concurrent
// commits for the same device and day cannot produce duplicate rows. The
// streak and phishing counters of an existing current row are left untouched;
// a fresh row starts them at zero.
func (p *Postgres) UpsertScores(ctx context.Context, current *model.CurrentScore, snapshot *model.DailySnapshot) error {
	components, err := json.Marshal(snapshot.Components)
	if err != nil {
		return fmt.Errorf("marshal snapshot components: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
		INSERT INTO device_current_scores (
			device_id, total_score, security_score, security_deductions,
			engagement_points, insurance_points, status, color_code,
			last_calculated_at, current_streak_days, phishing_week_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, 0)
		ON CONFLICT (device_id) DO UPDATE SET
			total_score         = EXCLUDED.total_score,
			security_score      = EXCLUDED.security_score,
			security_deductions = EXCLUDED.security_deductions,
			engagement_points   = EXCLUDED.engagement_points,
			insurance_points    = EXCLUDED.insurance_points,
			status              = EXCLUDED.status,
			color_code          = EXCLUDED.color_code,
			last_calculated_at  = EXCLUDED.last_calculated_at`,
		current.DeviceID, current.TotalScore, current.SecurityScore,
		current.SecurityDeductions, current.EngagementPoints, current.InsurancePoints,
		current.Status, current.ColorCode, current.LastCalculatedAt,
	); err != nil {
		return fmt.Errorf("upsert current score: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO device_daily_scores (
			id, device_id, date, total_score, components, status, created_at, updated_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $7)
		ON CONFLICT (device_id, date) DO UPDATE SET
			total_score = EXCLUDED.total_score,
			components  = EXCLUDED.components,
			status      = EXCLUDED.status,
			updated_at  = EXCLUDED.updated_at`,
		uuid.New(), snapshot.DeviceID, snapshot.Date, snapshot.TotalScore,
		components, snapshot.Status, snapshot.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert daily snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit score tx: %w", err)
	}
	return nil
}

// ListSnapshotsInRange returns snapshots with from <= date <= to, ordered by
// date ascending.
func (p *Postgres) ListSnapshotsInRange(ctx context.Context, deviceID uuid.UUID, from, to string) ([]model.DailySnapshot, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, device_id, date::text, total_score, components, status, updated_at
		FROM device_daily_scores
		WHERE device_id = $1 AND date BETWEEN $2::date AND $3::date
		ORDER BY date ASC`,
		deviceID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("query daily snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.DailySnapshot
	for rows.Next() {
		var s model.DailySnapshot
		var components []byte
		if err := rows.Scan(&s.ID, &s.DeviceID, &s.Date, &s.TotalScore, &components, &s.Status, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan daily snapshot: %w", err)
		}
		if len(components) > 0 {
			if err := json.Unmarshal(components, &s.Components); err != nil {
				return nil, fmt.Errorf("unmarshal snapshot components: %w", err)
			}
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
