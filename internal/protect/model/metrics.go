package model

import (
	"time"

	"github.com/google/uuid"
)

// DailyMetrics holds per-device, per-day protection counters written by the
// ingestion pipeline. Read-only to the score engine; the (device, date) pair
// is unique in the store.
type DailyMetrics struct {
	ID                    uuid.UUID `json:"id"                      db:"id"`
	DeviceID              uuid.UUID `json:"device_id"               db:"device_id"`
	Date                  string    `json:"date"                    db:"date"`
	LinksScanned          int       `json:"links_scanned"           db:"links_scanned"`
	SpamBlocked           int       `json:"spam_blocked"            db:"spam_blocked"`
	AppIssuesDetected     int       `json:"app_issues_detected"     db:"app_issues_detected"`
	NetworkIssuesDetected int       `json:"network_issues_detected" db:"network_issues_detected"`
	DeviceIssuesDetected  int       `json:"device_issues_detected"  db:"device_issues_detected"`
	OtherIssuesDetected   int       `json:"other_issues_detected"   db:"other_issues_detected"`
	UpdatedAt             time.Time `json:"updated_at"              db:"updated_at"`
}

// MetricTotals aggregates the numeric metric columns across a set of
// DailyMetrics rows.
type MetricTotals struct {
	LinksScanned  int `json:"links_scanned"`
	SpamBlocked   int `json:"spam_blocked"`
	AppIssues     int `json:"app_issues"`
	NetworkIssues int `json:"network_issues"`
	DeviceIssues  int `json:"device_issues"`
	OtherIssues   int `json:"other_issues"`
}

// SummaryBlock is one half of the protection summary. The issue counts in the
// "active" block come from currently-active threats rather than the metrics
// window, so they always reflect the present state of the device.
type SummaryBlock struct {
	LinksScanned  int `json:"links_scanned"`
	SpamBlocked   int `json:"spam_blocked"`
	AppIssues     int `json:"app_issues"`
	NetworkIssues int `json:"network_issues"`
	DeviceIssues  int `json:"device_issues"`
	OtherIssues   int `json:"other_issues"`
}

// ProtectionSummary is the response of the protection-summary endpoint.
type ProtectionSummary struct {
	Scope            string       `json:"scope"`
	ActiveWindowDays int          `json:"active_window_days"`
	Active           SummaryBlock `json:"active"`
	Lifetime         SummaryBlock `json:"lifetime"`
}
