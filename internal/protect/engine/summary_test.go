package engine_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/cybx-security/protect/internal/protect/model"
)

func addMetricsRow(store interface{ AddMetrics(model.DailyMetrics) }, deviceID uuid.UUID, daysAgo, links, spam int) {
	store.AddMetrics(model.DailyMetrics{
		DeviceID:     deviceID,
		Date:         testNow.AddDate(0, 0, -daysAgo).Format("2006-01-02"),
		LinksScanned: links,
		SpamBlocked:  spam,
	})
}

func TestSummary_windowedAndLifetime(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	device := uuid.New()

	addMetricsRow(store, device, 0, 10, 1)
	addMetricsRow(store, device, 29, 5, 2)
	addMetricsRow(store, device, 45, 100, 50) // outside the 30-day window

	summary, err := eng.Summary(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Scope != "both" || summary.ActiveWindowDays != 30 {
		t.Errorf("header: got scope=%q window=%d", summary.Scope, summary.ActiveWindowDays)
	}
	if summary.Active.LinksScanned != 15 || summary.Active.SpamBlocked != 3 {
		t.Errorf("active block: got links=%d spam=%d, want 15/3",
			summary.Active.LinksScanned, summary.Active.SpamBlocked)
	}
	if summary.Lifetime.LinksScanned != 115 || summary.Lifetime.SpamBlocked != 53 {
		t.Errorf("lifetime block: got links=%d spam=%d, want 115/53",
			summary.Lifetime.LinksScanned, summary.Lifetime.SpamBlocked)
	}
}

func TestSummary_activeIssueCountsFromThreats(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	device := uuid.New()

	store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityHigh))
	store.AddThreat(activeThreat(device, model.ThreatTypeApp, model.SeverityLow))
	store.AddThreat(activeThreat(device, model.ThreatTypeNetwork, model.SeverityMedium))
	store.AddThreat(activeThreat(device, model.ThreatTypeOther, model.SeverityLow))
	resolved := activeThreat(device, model.ThreatTypeDevice, model.SeverityHigh)
	resolved.Status = model.ThreatStatusResolved
	store.AddThreat(resolved)

	summary, err := eng.Summary(ctx, device)
	if err != nil {
		t.Fatal(err)
	}
	a := summary.Active
	if a.AppIssues != 2 || a.NetworkIssues != 1 || a.DeviceIssues != 0 || a.OtherIssues != 1 {
		t.Errorf("issue counts: got app=%d net=%d dev=%d other=%d, want 2/1/0/1",
			a.AppIssues, a.NetworkIssues, a.DeviceIssues, a.OtherIssues)
	}
}

func TestSummary_emptyDevice(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	summary, err := eng.Summary(ctx, uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Active != (model.SummaryBlock{}) || summary.Lifetime != (model.SummaryBlock{}) {
		t.Errorf("expected all-zero blocks: %+v", summary)
	}
}
