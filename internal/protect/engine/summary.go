package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cybx-security/protect/internal/protect/model"
)

// summaryWindowDays is the rolling window of the "active" summary block.
const summaryWindowDays = 30

// Summary aggregates the device's protection metrics two ways: a 30-day
// rolling window of scan/block counters paired with the current active-threat
// counts per category, and a lifetime view summing every metrics row ever
// recorded. The threat counts are never windowed — they reflect the device's
// present state.
func (e *Engine) Summary(ctx context.Context, deviceID uuid.UUID) (*model.ProtectionSummary, error) {
	today := e.clock.Now().UTC()
	from := today.AddDate(0, 0, -summaryWindowDays).Format(snapshotDateLayout)
	to := today.Format(snapshotDateLayout)

	windowed, err := e.store.SumMetricsInRange(ctx, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("sum windowed metrics: %w", err)
	}

	threats, err := e.store.ListActiveThreats(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list active threats: %w", err)
	}
	byType := make(map[string]int)
	for _, t := range threats {
		byType[t.ThreatType]++
	}

	lifetime, err := e.store.SumMetricsLifetime(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("sum lifetime metrics: %w", err)
	}

	return &model.ProtectionSummary{
		Scope:            "both",
		ActiveWindowDays: summaryWindowDays,
		Active: model.SummaryBlock{
			LinksScanned:  windowed.LinksScanned,
			SpamBlocked:   windowed.SpamBlocked,
			AppIssues:     byType[model.ThreatTypeApp],
			NetworkIssues: byType[model.ThreatTypeNetwork],
			DeviceIssues:  byType[model.ThreatTypeDevice],
			OtherIssues:   byType[model.ThreatTypeOther],
		},
		Lifetime: model.SummaryBlock{
			LinksScanned:  lifetime.LinksScanned,
			SpamBlocked:   lifetime.SpamBlocked,
			AppIssues:     lifetime.AppIssues,
			NetworkIssues: lifetime.NetworkIssues,
			DeviceIssues:  lifetime.DeviceIssues,
			OtherIssues:   lifetime.OtherIssues,
		},
	}, nil
}
