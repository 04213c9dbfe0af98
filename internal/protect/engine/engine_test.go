package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/cybx-security/protect/internal/protect/engine"
	"github.com/cybx-security/protect/internal/protect/model"
	"github.com/cybx-security/protect/internal/protect/repository"
)

var ctx = context.Background()

// testNow is the pinned wall clock for all engine tests.
var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*engine.Engine, *repository.Memory, *clockwork.FakeClock) {
	t.Helper()
	store := repository.NewMemory()
	clock := clockwork.NewFakeClockAt(testNow)
	return engine.New(store, clock, zap.NewNop()), store, clock
}

func seedDefaultRules(store *repository.Memory) {
	for _, r := range []model.DeductionRule{
		{ThreatType: model.ThreatTypeApp, Severity: model.SeverityHigh, Deduction: 15},
		{ThreatType: model.ThreatTypeApp, Severity: model.SeverityMedium, Deduction: 7},
		{ThreatType: model.ThreatTypeNetwork, Severity: model.SeverityHigh, Deduction: 15},
		{ThreatType: model.ThreatTypeNetwork, Severity: model.SeverityMedium, Deduction: 7},
		{ThreatType: model.ThreatTypeDevice, Severity: model.SeverityLow, Deduction: 3},
	} {
		store.AddRule(r)
	}
}

func activeThreat(deviceID uuid.UUID, threatType string, severity model.Severity) model.Threat {
	return model.Threat{
		DeviceID:   deviceID,
		ThreatType: threatType,
		Severity:   severity,
		Status:     model.ThreatStatusActive,
		DetectedAt: testNow.Add(-24 * time.Hour),
	}
}

func TestCalculate_singleHighAppThreat(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityHigh))

	result, err := eng.Calculate(ctx, device)
	if err != nil {
		t.Fatal(err)
	}

	if result.Breakdown.SecurityScore != 45 {
		t.Errorf("security score: got %d, want 45", result.Breakdown.SecurityScore)
	}
	if result.Breakdown.SecurityDeductions != 15 {
		t.Errorf("deductions: got %d, want 15", result.Breakdown.SecurityDeductions)
	}
	if result.Breakdown.EngagementPoints != 0 {
		t.Errorf("engagement: got %d, want 0", result.Breakdown.EngagementPoints)
	}
	if result.TotalScore != 45 {
		t.Errorf("total: got %d, want 45", result.TotalScore)
	}
	if result.Status != model.StatusVulnerable {
		t.Errorf("status: got %q, want vulnerable", result.Status)
	}
	if result.ColorCode != "#FF9500" {
		t.Errorf("color: got %q, want #FF9500", result.ColorCode)
	}
}

func TestCalculate_noThreatsShortCircuits(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	// No rules seeded at all: a clean device must not need rule data.
	device := uuid.New()

	result, err := eng.Calculate(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	if result.Breakdown.SecurityScore != 60 || result.Breakdown.SecurityDeductions != 0 {
		t.Errorf("got security=%d deductions=%d, want 60/0",
			result.Breakdown.SecurityScore, result.Breakdown.SecurityDeductions)
	}
	if result.TotalScore != 60 || result.Status != model.StatusAtRisk {
		t.Errorf("got total=%d status=%q, want 60/at_risk", result.TotalScore, result.Status)
	}
}

func TestCalculate_deductionsClampAt60(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	// 5 × 15 = 75 raw deduction.
	for i := 0; i < 5; i++ {
		store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityHigh))
	}

	result, err := eng.Calculate(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	if result.Breakdown.SecurityDeductions != 60 {
		t.Errorf("deductions: got %d, want clamp at 60", result.Breakdown.SecurityDeductions)
	}
	if result.Breakdown.SecurityScore != 0 {
		t.Errorf("security score: got %d, want 0", result.Breakdown.SecurityScore)
	}
	if result.Status != model.StatusCritical {
		t.Errorf("status: got %q, want critical", result.Status)
	}
}

func TestCalculate_unmappedRuleContributesZero(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	// No rule exists for (OTHER, low).
	store.AddThreat(activeThreat(device, model.ThreatTypeOther, model.SeverityLow))
	store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityMedium))

	result, err := eng.Calculate(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	if result.Breakdown.SecurityDeductions != 7 {
		t.Errorf("deductions: got %d, want 7 (unmapped threat must add zero)", result.Breakdown.SecurityDeductions)
	}
}

func TestCalculate_resolvedThreatsIgnored(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	resolved := activeThreat(device, model.ThreatTypeApp, model.SeverityHigh)
	resolved.Status = model.ThreatStatusResolved
	store.AddThreat(resolved)

	result, err := eng.Calculate(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	if result.Breakdown.SecurityScore != 60 {
		t.Errorf("security score: got %d, want 60", result.Breakdown.SecurityScore)
	}
}

func TestCalculate_securityInvariantHolds(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()

	for i := 0; i < 6; i++ {
		result, err := eng.Calculate(ctx, device)
		if err != nil {
			t.Fatal(err)
		}
		b := result.Breakdown
		if b.SecurityScore+b.SecurityDeductions != 60 {
			t.Fatalf("security %d + deductions %d != 60", b.SecurityScore, b.SecurityDeductions)
		}
		if b.SecurityDeductions < 0 || b.SecurityDeductions > 60 {
			t.Fatalf("deductions %d out of [0,60]", b.SecurityDeductions)
		}
		if result.TotalScore < 0 || result.TotalScore > 90 {
			t.Fatalf("total %d out of [0,90]", result.TotalScore)
		}
		store.AddThreat(activeThreat(device, model.ThreatTypeNetwork, model.SeverityHigh))
	}
}

func TestCalculate_persistsCurrentAndSnapshot(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityHigh))

	result, err := eng.Calculate(ctx, device)
	if err != nil {
		t.Fatal(err)
	}

	current, err := store.GetCurrentScore(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	if current == nil {
		t.Fatal("expected current score row after commit")
	}
	if current.TotalScore != result.TotalScore || current.SecurityScore != result.Breakdown.SecurityScore {
		t.Errorf("current row does not match result: %+v vs %+v", current, result)
	}
	if !current.LastCalculatedAt.Equal(testNow) {
		t.Errorf("last calculated: got %v, want %v", current.LastCalculatedAt, testNow)
	}
	if current.CurrentStreakDays != 0 || current.PhishingWeekCount != 0 {
		t.Errorf("fresh row must zero streak counters, got %d/%d",
			current.CurrentStreakDays, current.PhishingWeekCount)
	}

	snaps, err := store.ListSnapshotsInRange(ctx, device, "2025-03-15", "2025-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 {
		t.Fatalf("expected 1 snapshot for today, got %d", len(snaps))
	}
	s := snaps[0]
	if s.TotalScore != result.TotalScore || s.Status != result.Status {
		t.Errorf("snapshot mismatch: %+v vs %+v", s, result)
	}
	if s.Components.Security != result.Breakdown.SecurityScore ||
		s.Components.Engagement != result.Breakdown.EngagementPoints ||
		s.Components.Insurance != 0 {
		t.Errorf("snapshot components mismatch: %+v", s.Components)
	}
}

func TestCalculate_sameDayIsIdempotent(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityHigh))

	if _, err := eng.Calculate(ctx, device); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Calculate(ctx, device); err != nil {
		t.Fatal(err)
	}

	if n := store.SnapshotCount(device); n != 1 {
		t.Errorf("expected 1 snapshot row after two same-day commits, got %d", n)
	}
}

func TestCalculate_newDayCreatesNewSnapshot(t *testing.T) {
	eng, store, clock := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()

	if _, err := eng.Calculate(ctx, device); err != nil {
		t.Fatal(err)
	}
	clock.Advance(24 * time.Hour)
	if _, err := eng.Calculate(ctx, device); err != nil {
		t.Fatal(err)
	}

	if n := store.SnapshotCount(device); n != 2 {
		t.Errorf("expected 2 snapshot rows across two days, got %d", n)
	}
}

func TestCalculate_preservesStreakCounters(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	seedDefaultRules(store)
	device := uuid.New()
	store.SetCurrentScore(model.CurrentScore{
		DeviceID:          device,
		CurrentStreakDays: 5,
		PhishingWeekCount: 2,
	})

	if _, err := eng.Calculate(ctx, device); err != nil {
		t.Fatal(err)
	}

	current, _ := store.GetCurrentScore(ctx, device)
	if current.CurrentStreakDays != 5 || current.PhishingWeekCount != 2 {
		t.Errorf("streak counters must survive recalculation, got %d/%d",
			current.CurrentStreakDays, current.PhishingWeekCount)
	}
	if current.TotalScore != 60 {
		t.Errorf("score fields must update, got total %d", current.TotalScore)
	}
}

func TestRecordEvent_defaultsFromRuleConfig(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.AddEngagementRule(model.EngagementRule{
		EventType: model.EventDeviceScan, WindowDays: 7, MinCount: 1, Points: 4,
	})
	device := uuid.New()

	ev, err := eng.RecordEvent(ctx, device, &model.RecordEventRequest{EventType: model.EventDeviceScan})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Points != 4 {
		t.Errorf("points: got %d, want 4 from rule config", ev.Points)
	}
	if !ev.OccurredAt.Equal(testNow) {
		t.Errorf("occurred at: got %v, want clock now", ev.OccurredAt)
	}
	if store.EventCount() != 1 {
		t.Errorf("expected 1 stored event, got %d", store.EventCount())
	}
}

func TestRecordEvent_fallbackPoints(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	ev, err := eng.RecordEvent(ctx, uuid.New(), &model.RecordEventRequest{EventType: "UNKNOWN_TYPE"})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Points != model.DefaultEventPoints {
		t.Errorf("points: got %d, want default %d", ev.Points, model.DefaultEventPoints)
	}
}

func TestRecordEvent_explicitPointsWin(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	store.AddEngagementRule(model.EngagementRule{EventType: model.EventDeviceScan, Points: 4})
	points := 1
	occurred := testNow.Add(-2 * time.Hour)

	ev, err := eng.RecordEvent(ctx, uuid.New(), &model.RecordEventRequest{
		EventType:  model.EventDeviceScan,
		Points:     &points,
		OccurredAt: &occurred,
	})
	if err != nil {
		t.Fatal(err)
	}
	if ev.Points != 1 {
		t.Errorf("points: got %d, want explicit 1", ev.Points)
	}
	if !ev.OccurredAt.Equal(occurred) {
		t.Errorf("occurred at: got %v, want %v", ev.OccurredAt, occurred)
	}
}
