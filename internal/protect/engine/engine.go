// Package engine computes per-device protection scores. It combines security
// deductions from active threats, engagement points from recent activity, and
// a reserved insurance component into a 0–90 total, classifies the total into
// a health tier, and serves trend and summary aggregations over the same
// store. All time arithmetic goes through an injected clock so the engine is
// deterministic under test.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/cybx-security/protect/internal/protect/model"
)

// snapshotDateLayout is the calendar-day key format for daily rows (UTC).
const snapshotDateLayout = "2006-01-02"

// ThreatStore reads detected threats. Implementations must only return
// threats whose status is active.
type ThreatStore interface {
	ListActiveThreats(ctx context.Context, deviceID uuid.UUID) ([]model.Threat, error)
	ListActiveThreatsByID(ctx context.Context, deviceID uuid.UUID, ids []uuid.UUID) ([]model.Threat, error)
}

// RuleStore reads static scoring reference data.
type RuleStore interface {
	ListDeductionRules(ctx context.Context) ([]model.DeductionRule, error)
	// GetEngagementRule returns (nil, nil) when no rule covers the event type.
	GetEngagementRule(ctx context.Context, eventType string) (*model.EngagementRule, error)
}

// EngagementStore reads and appends engagement events.
type EngagementStore interface {
	ListEventsSince(ctx context.Context, deviceID uuid.UUID, since time.Time) ([]model.EngagementEvent, error)
	InsertEvent(ctx context.Context, ev *model.EngagementEvent) error
}

// ScoreStore persists calculation results and reads score history.
type ScoreStore interface {
	// GetCurrentScore returns (nil, nil) when the device has no state row yet.
	GetCurrentScore(ctx context.Context, deviceID uuid.UUID) (*model.CurrentScore, error)
	// UpsertScores writes the current-state row and the daily snapshot
	// atomically: either both reflect the new breakdown or neither does.
	// Streak and phishing counters on an existing current row are preserved.
	UpsertScores(ctx context.Context, current *model.CurrentScore, snapshot *model.DailySnapshot) error
	// ListSnapshotsInRange returns snapshots with from <= date <= to,
	// ordered by date ascending. Both bounds are YYYY-MM-DD strings.
	ListSnapshotsInRange(ctx context.Context, deviceID uuid.UUID, from, to string) ([]model.DailySnapshot, error)
}

// MetricsStore aggregates the daily protection counters.
type MetricsStore interface {
	SumMetricsInRange(ctx context.Context, deviceID uuid.UUID, from, to string) (model.MetricTotals, error)
	SumMetricsLifetime(ctx context.Context, deviceID uuid.UUID) (model.MetricTotals, error)
}

// Store is the full persistence surface the engine depends on.
// *repository.Postgres and *repository.Memory both satisfy it.
type Store interface {
	ThreatStore
	RuleStore
	EngagementStore
	ScoreStore
	MetricsStore
}

// Engine is the protection score calculator and aggregator.
type Engine struct {
	store  Store
	clock  clockwork.Clock
	logger *zap.Logger
}

// New creates an Engine over the given store and clock.
func New(store Store, clock clockwork.Clock, logger *zap.Logger) *Engine {
	return &Engine{store: store, clock: clock, logger: logger}
}

// Calculate computes the device's score from its full active-threat set and
// persists the result: the current-state row is upserted (streak counters
// untouched) and today's snapshot is created or overwritten, both in one
// atomic store write. A store failure returns an error and nothing is
// reported as saved.
func (e *Engine) Calculate(ctx context.Context, deviceID uuid.UUID) (*model.ScoreResult, error) {
	now := e.clock.Now().UTC()

	result, err := e.compute(ctx, deviceID, nil, true, now)
	if err != nil {
		return nil, err
	}

	current := &model.CurrentScore{
		DeviceID:           deviceID,
		TotalScore:         result.TotalScore,
		SecurityScore:      result.Breakdown.SecurityScore,
		SecurityDeductions: result.Breakdown.SecurityDeductions,
		EngagementPoints:   result.Breakdown.EngagementPoints,
		InsurancePoints:    result.Breakdown.InsurancePoints,
		Status:             result.Status,
		ColorCode:          result.ColorCode,
		LastCalculatedAt:   now,
	}
	snapshot := &model.DailySnapshot{
		DeviceID:   deviceID,
		Date:       now.Format(snapshotDateLayout),
		TotalScore: result.TotalScore,
		Components: model.ScoreComponents{
			Security:   result.Breakdown.SecurityScore,
			Engagement: result.Breakdown.EngagementPoints,
			Insurance:  result.Breakdown.InsurancePoints,
		},
		Status:    result.Status,
		UpdatedAt: now,
	}

	if err := e.store.UpsertScores(ctx, current, snapshot); err != nil {
		return nil, fmt.Errorf("persist score for device %s: %w", deviceID, err)
	}

	e.logger.Debug("score committed",
		zap.String("device_id", deviceID.String()),
		zap.Int("total_score", result.TotalScore),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// Preview computes a what-if score over the caller-specified threat subset
// without any persistence side effects. With ignoreOthers true only the
// listed threats count; with ignoreOthers false the device's full active set
// counts and the list is irrelevant.
func (e *Engine) Preview(ctx context.Context, deviceID uuid.UUID, threatIDs []uuid.UUID, ignoreOthers bool) (*model.ScoreResult, error) {
	now := e.clock.Now().UTC()
	return e.compute(ctx, deviceID, threatIDs, ignoreOthers, now)
}

// compute runs the shared security + engagement + insurance arithmetic.
func (e *Engine) compute(ctx context.Context, deviceID uuid.UUID, threatIDs []uuid.UUID, ignoreOthers bool, now time.Time) (*model.ScoreResult, error) {
	securityScore, deductions, err := e.securityScore(ctx, deviceID, threatIDs, ignoreOthers)
	if err != nil {
		return nil, err
	}

	engagement, err := e.engagementPoints(ctx, deviceID, now)
	if err != nil {
		return nil, err
	}

	insurance := 0

	total := securityScore + engagement + insurance
	if total > model.MaxTotalScore {
		total = model.MaxTotalScore
	}

	status, color, message := classify(total)

	return &model.ScoreResult{
		DeviceID:   deviceID,
		TotalScore: total,
		Status:     status,
		ColorCode:  color,
		Message:    message,
		Breakdown: model.ScoreBreakdown{
			SecurityScore:      securityScore,
			SecurityDeductions: deductions,
			EngagementPoints:   engagement,
			InsurancePoints:    insurance,
		},
		LastCalculatedAt: now,
	}, nil
}

// RecordEvent appends an engagement event for the device. When the request
// omits points, the configured engagement rule for the event type supplies
// the default, falling back to model.DefaultEventPoints.
func (e *Engine) RecordEvent(ctx context.Context, deviceID uuid.UUID, req *model.RecordEventRequest) (*model.EngagementEvent, error) {
	occurredAt := e.clock.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	points := model.DefaultEventPoints
	if req.Points != nil {
		points = *req.Points
	} else {
		rule, err := e.store.GetEngagementRule(ctx, req.EventType)
		if err != nil {
			return nil, fmt.Errorf("lookup engagement rule for %s: %w", req.EventType, err)
		}
		if rule != nil {
			points = rule.Points
		}
	}

	ev := &model.EngagementEvent{
		ID:         uuid.New(),
		DeviceID:   deviceID,
		EventType:  req.EventType,
		OccurredAt: occurredAt,
		Points:     points,
		Meta:       req.Meta,
	}
	if err := e.store.InsertEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("insert engagement event: %w", err)
	}
	return ev, nil
}
