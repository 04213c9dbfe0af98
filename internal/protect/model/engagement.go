package model

import (
	"time"

	"github.com/google/uuid"
)

// Engagement event types earned through app usage.
const (
	EventDailyActive    = "DAILY_ACTIVE"
	EventDeviceScan     = "DEVICE_SCAN"
	EventAlertResponded = "ALERT_RESPONDED"
	EventFeatureUsed    = "FEATURE_USED"
	EventIssueResolved  = "ISSUE_RESOLVED"
)

// DefaultEventPoints is awarded when no rule config covers an event type.
const DefaultEventPoints = 2

// EngagementEvent is one recorded user action. Events are append-only and
// contribute to the engagement score within a trailing time window.
type EngagementEvent struct {
	ID         uuid.UUID      `json:"id"             db:"id"`
	DeviceID   uuid.UUID      `json:"device_id"      db:"device_id"`
	EventType  string         `json:"event_type"     db:"event_type"`
	OccurredAt time.Time      `json:"occurred_at"    db:"occurred_at"`
	Points     int            `json:"points"         db:"points"`
	Meta       map[string]any `json:"meta,omitempty" db:"meta"`
}

// EngagementRule configures the default points and qualification window for
// one engagement event type.
type EngagementRule struct {
	ID         int    `json:"id"          db:"id"`
	EventType  string `json:"event_type"  db:"event_type"`
	WindowDays int    `json:"window_days" db:"window_days"`
	MinCount   int    `json:"min_count"   db:"min_count"`
	Points     int    `json:"points"      db:"points"`
}

// RecordEventRequest is the payload for recording an engagement event.
// Points defaults to the configured rule for the event type when omitted.
type RecordEventRequest struct {
	EventType  string         `json:"event_type" binding:"required"`
	Points     *int           `json:"points,omitempty"`
	OccurredAt *time.Time     `json:"occurred_at,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
}
