package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cybx-security/protect/internal/protect/model"
)

// streakSuggestion is the static nudge shown with the weekly progress.
const streakSuggestion = "Keep opening CYBX daily to maintain your streak."

// WeeklyProgress compares the last 7 daily snapshots against the prior 7-day
// window. The windows are [today−6, today] and [today−13, today−7]; they
// deliberately share the today−7 boundary day, matching the shipped scoring
// behavior. Missing days are absent from the series, not zero-filled, and an
// empty window averages to 0.
func (e *Engine) WeeklyProgress(ctx context.Context, deviceID uuid.UUID) (*model.WeeklyProgress, error) {
	today := e.clock.Now().UTC()

	thisFrom := today.AddDate(0, 0, -6).Format(snapshotDateLayout)
	thisTo := today.Format(snapshotDateLayout)
	thisWeek, err := e.store.ListSnapshotsInRange(ctx, deviceID, thisFrom, thisTo)
	if err != nil {
		return nil, fmt.Errorf("load current week snapshots: %w", err)
	}

	prevFrom := today.AddDate(0, 0, -13).Format(snapshotDateLayout)
	prevTo := today.AddDate(0, 0, -7).Format(snapshotDateLayout)
	prevWeek, err := e.store.ListSnapshotsInRange(ctx, deviceID, prevFrom, prevTo)
	if err != nil {
		return nil, fmt.Errorf("load previous week snapshots: %w", err)
	}

	points := make([]model.TrendPoint, 0, len(thisWeek))
	for _, s := range thisWeek {
		points = append(points, model.TrendPoint{Date: s.Date, TotalScore: s.TotalScore})
	}

	thisAvg := snapshotMean(thisWeek)
	prevAvg := snapshotMean(prevWeek)
	change := thisAvg - prevAvg

	changePercent := 0.0
	if prevAvg != 0 {
		changePercent = math.Round(change/prevAvg*100*10) / 10
	}

	streakDays := 0
	phishingWeek := 0
	current, err := e.store.GetCurrentScore(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("load current score state: %w", err)
	}
	if current != nil {
		streakDays = current.CurrentStreakDays
		phishingWeek = current.PhishingWeekCount
	}

	return &model.WeeklyProgress{
		Period: "7d",
		Trend: model.Trend{
			Points:         points,
			ChangeAbsolute: int(math.Round(change)),
			ChangePercent:  changePercent,
		},
		ProtectionProgress: model.ProtectionProgress{
			CurrentStreakDays:       streakDays,
			PhishingBlockedThisWeek: phishingWeek,
			Suggestion:              streakSuggestion,
		},
	}, nil
}

func snapshotMean(snaps []model.DailySnapshot) float64 {
	if len(snaps) == 0 {
		return 0
	}
	sum := 0
	for _, s := range snaps {
		sum += s.TotalScore
	}
	return float64(sum) / float64(len(snaps))
}
