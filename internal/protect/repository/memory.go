package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cybx-security/protect/internal/protect/model"
)

// Memory is an in-memory, thread-safe implementation of the engine's store
// interfaces. It mirrors the Postgres implementation's semantics (atomic
// commit writes, range filters on the YYYY-MM-DD date key) and is used by
// tests and single-process development runs.
type Memory struct {
	mu              sync.RWMutex
	threats         map[uuid.UUID]model.Threat
	rules           []model.DeductionRule
	engagementRules map[string]model.EngagementRule
	events          []model.EngagementEvent
	current         map[uuid.UUID]model.CurrentScore
	snapshots       map[uuid.UUID]map[string]model.DailySnapshot
	metrics         []model.DailyMetrics
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		threats:         make(map[uuid.UUID]model.Threat),
		engagementRules: make(map[string]model.EngagementRule),
		current:         make(map[uuid.UUID]model.CurrentScore),
		snapshots:       make(map[uuid.UUID]map[string]model.DailySnapshot),
	}
}

// ── Seeding helpers ──────────────────────────────────────────────────────────

// AddThreat stores a threat, generating an ID when absent.
func (m *Memory) AddThreat(t model.Threat) model.Threat {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.threats[t.ID] = t
	return t
}

// AddRule appends a deduction rule.
func (m *Memory) AddRule(r model.DeductionRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = len(m.rules) + 1
	m.rules = append(m.rules, r)
}

// AddEngagementRule stores an engagement rule config row.
func (m *Memory) AddEngagementRule(r model.EngagementRule) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = len(m.engagementRules) + 1
	m.engagementRules[r.EventType] = r
}

// AddMetrics appends a daily metrics row.
func (m *Memory) AddMetrics(dm model.DailyMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dm.ID == uuid.Nil {
		dm.ID = uuid.New()
	}
	m.metrics = append(m.metrics, dm)
}

// SetCurrentScore overwrites the device's current score row.
func (m *Memory) SetCurrentScore(c model.CurrentScore) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current[c.DeviceID] = c
}

// AddSnapshot stores a daily snapshot, overwriting any row for the same day.
func (m *Memory) AddSnapshot(s model.DailySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putSnapshotLocked(s)
}

func (m *Memory) putSnapshotLocked(s model.DailySnapshot) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	byDate, ok := m.snapshots[s.DeviceID]
	if !ok {
		byDate = make(map[string]model.DailySnapshot)
		m.snapshots[s.DeviceID] = byDate
	}
	if prev, ok := byDate[s.Date]; ok {
		s.ID = prev.ID
	}
	byDate[s.Date] = s
}

// SnapshotCount reports how many snapshots exist for the device.
func (m *Memory) SnapshotCount(deviceID uuid.UUID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshots[deviceID])
}

// EventCount reports how many engagement events are stored.
func (m *Memory) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

// ── ThreatStore ──────────────────────────────────────────────────────────────

func (m *Memory) ListActiveThreats(_ context.Context, deviceID uuid.UUID) ([]model.Threat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Threat
	for _, t := range m.threats {
		if t.DeviceID == deviceID && t.Status == model.ThreatStatusActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) ListActiveThreatsByID(_ context.Context, deviceID uuid.UUID, ids []uuid.UUID) ([]model.Threat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.Threat
	for _, t := range m.threats {
		if t.DeviceID == deviceID && t.Status == model.ThreatStatusActive && wanted[t.ID] {
			out = append(out, t)
		}
	}
	return out, nil
}

// ── RuleStore ────────────────────────────────────────────────────────────────

func (m *Memory) ListDeductionRules(_ context.Context) ([]model.DeductionRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.DeductionRule, len(m.rules))
	copy(out, m.rules)
	return out, nil
}

func (m *Memory) GetEngagementRule(_ context.Context, eventType string) (*model.EngagementRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.engagementRules[eventType]; ok {
		return &r, nil
	}
	return nil, nil
}

// ── EngagementStore ──────────────────────────────────────────────────────────

func (m *Memory) ListEventsSince(_ context.Context, deviceID uuid.UUID, since time.Time) ([]model.EngagementEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.EngagementEvent
	for _, ev := range m.events {
		if ev.DeviceID == deviceID && !ev.OccurredAt.Before(since) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *Memory) InsertEvent(_ context.Context, ev *model.EngagementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

// ── ScoreStore ───────────────────────────────────────────────────────────────

func (m *Memory) GetCurrentScore(_ context.Context, deviceID uuid.UUID) (*model.CurrentScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.current[deviceID]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *Memory) UpsertScores(_ context.Context, current *model.CurrentScore, snapshot *model.DailySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *current
	if prev, ok := m.current[c.DeviceID]; ok {
		c.CurrentStreakDays = prev.CurrentStreakDays
		c.PhishingWeekCount = prev.PhishingWeekCount
	}
	m.current[c.DeviceID] = c

	m.putSnapshotLocked(*snapshot)
	return nil
}

func (m *Memory) ListSnapshotsInRange(_ context.Context, deviceID uuid.UUID, from, to string) ([]model.DailySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.DailySnapshot
	for _, s := range m.snapshots[deviceID] {
		// Lexicographic compare is date order on YYYY-MM-DD keys.
		if s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// ── MetricsStore ─────────────────────────────────────────────────────────────

func (m *Memory) SumMetricsInRange(_ context.Context, deviceID uuid.UUID, from, to string) (model.MetricTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var t model.MetricTotals
	for _, dm := range m.metrics {
		if dm.DeviceID == deviceID && dm.Date >= from && dm.Date <= to {
			addMetrics(&t, dm)
		}
	}
	return t, nil
}

func (m *Memory) SumMetricsLifetime(_ context.Context, deviceID uuid.UUID) (model.MetricTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var t model.MetricTotals
	for _, dm := range m.metrics {
		if dm.DeviceID == deviceID {
			addMetrics(&t, dm)
		}
	}
	return t, nil
}

func addMetrics(t *model.MetricTotals, dm model.DailyMetrics) {
	t.LinksScanned += dm.LinksScanned
	t.SpamBlocked += dm.SpamBlocked
	t.AppIssues += dm.AppIssuesDetected
	t.NetworkIssues += dm.NetworkIssuesDetected
	t.DeviceIssues += dm.DeviceIssuesDetected
	t.OtherIssues += dm.OtherIssuesDetected
}
