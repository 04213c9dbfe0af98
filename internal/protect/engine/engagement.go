package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cybx-security/protect/internal/protect/model"
)

// engagementWindowDays is the trailing window in which events earn points.
const engagementWindowDays = 7

// engagementPoints sums the device's event points over the trailing window
// (rolling, inclusive lower bound, not calendar-aligned) and caps the result
// at model.MaxEngagementPoints.
func (e *Engine) engagementPoints(ctx context.Context, deviceID uuid.UUID, now time.Time) (int, error) {
	since := now.AddDate(0, 0, -engagementWindowDays)

	events, err := e.store.ListEventsSince(ctx, deviceID, since)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, ev := range events {
		total += ev.Points
	}
	if total > model.MaxEngagementPoints {
		total = model.MaxEngagementPoints
	}
	return total, nil
}
