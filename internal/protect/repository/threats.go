package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cybx-security/protect/internal/protect/model"
)

const threatColumns = `id, device_id, threat_type, severity, status, detected_at, resolved_at, source, raw_payload`

// ListActiveThreats returns every active threat for the device.
func (p *Postgres) ListActiveThreats(ctx context.Context, deviceID uuid.UUID) ([]model.Threat, error) {
	query := `
		SELECT ` + threatColumns + `
		FROM threat_details
		WHERE device_id = $1 AND status = 'active'
		ORDER BY detected_at DESC`

	rows, err := p.pool.Query(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("query active threats: %w", err)
	}
	defer rows.Close()
	return scanThreats(rows)
}

// ListActiveThreatsByID returns active threats for the device restricted to
// the given id set.
func (p *Postgres) ListActiveThreatsByID(ctx context.Context, deviceID uuid.UUID, ids []uuid.UUID) ([]model.Threat, error) {
	query := `
		SELECT ` + threatColumns + `
		FROM threat_details
		WHERE device_id = $1 AND status = 'active' AND id = ANY($2)
		ORDER BY detected_at DESC`

	rows, err := p.pool.Query(ctx, query, deviceID, ids)
	if err != nil {
		return nil, fmt.Errorf("query filtered threats: %w", err)
	}
	defer rows.Close()
	return scanThreats(rows)
}

func scanThreats(rows pgx.Rows) ([]model.Threat, error) {
	var threats []model.Threat
	for rows.Next() {
		var t model.Threat
		var raw []byte
		if err := rows.Scan(
			&t.ID, &t.DeviceID, &t.ThreatType, &t.Severity, &t.Status,
			&t.DetectedAt, &t.ResolvedAt, &t.Source, &raw,
		); err != nil {
			return nil, fmt.Errorf("scan threat: %w", err)
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &t.RawPayload); err != nil {
				return nil, fmt.Errorf("unmarshal threat payload: %w", err)
			}
		}
		threats = append(threats, t)
	}
	return threats, rows.Err()
}

// ListDeductionRules returns the full deduction rule table.
func (p *Postgres) ListDeductionRules(ctx context.Context) ([]model.DeductionRule, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, threat_type, severity, deduction FROM security_deduction_rules`)
	if err != nil {
		return nil, fmt.Errorf("query deduction rules: %w", err)
	}
	defer rows.Close()

	var rules []model.DeductionRule
	for rows.Next() {
		var r model.DeductionRule
		if err := rows.Scan(&r.ID, &r.ThreatType, &r.Severity, &r.Deduction); err != nil {
			return nil, fmt.Errorf("scan deduction rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}
