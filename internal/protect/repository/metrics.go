package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cybx-security/protect/internal/protect/model"
)

const metricSums = `
	COALESCE(SUM(links_scanned), 0),
	COALESCE(SUM(spam_blocked), 0),
	COALESCE(SUM(app_issues_detected), 0),
	COALESCE(SUM(network_issues_detected), 0),
	COALESCE(SUM(device_issues_detected), 0),
	COALESCE(SUM(other_issues_detected), 0)`

// SumMetricsInRange totals the device's daily metric counters over
// from <= date <= to. Devices with no rows in range sum to zero.
func (p *Postgres) SumMetricsInRange(ctx context.Context, deviceID uuid.UUID, from, to string) (model.MetricTotals, error) {
	var t model.MetricTotals
	err := p.pool.QueryRow(ctx, `
		SELECT `+metricSums+`
		FROM protection_metrics_daily
		WHERE device_id = $1 AND date BETWEEN $2::date AND $3::date`,
		deviceID, from, to,
	).Scan(&t.LinksScanned, &t.SpamBlocked, &t.AppIssues, &t.NetworkIssues, &t.DeviceIssues, &t.OtherIssues)
	if err != nil {
		return model.MetricTotals{}, fmt.Errorf("sum windowed metrics: %w", err)
	}
	return t, nil
}

// SumMetricsLifetime totals every daily metric row ever recorded for the device.
func (p *Postgres) SumMetricsLifetime(ctx context.Context, deviceID uuid.UUID) (model.MetricTotals, error) {
	var t model.MetricTotals
	err := p.pool.QueryRow(ctx, `
		SELECT `+metricSums+`
		FROM protection_metrics_daily
		WHERE device_id = $1`,
		deviceID,
	).Scan(&t.LinksScanned, &t.SpamBlocked, &t.AppIssues, &t.NetworkIssues, &t.DeviceIssues, &t.OtherIssues)
	if err != nil {
		return model.MetricTotals{}, fmt.Errorf("sum lifetime metrics: %w", err)
	}
	return t, nil
}
