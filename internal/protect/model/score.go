package model

import (
	"time"

	"github.com/google/uuid"
)

// Score component bounds. Security contributes up to 60 points, engagement up
// to 10, and insurance is reserved at 0 until the insurance product ships.
const (
	MaxSecurityScore    = 60
	MaxEngagementPoints = 10
	MaxTotalScore       = 90
)

// ScoreStatus is the health tier derived from the total score.
type ScoreStatus string

const (
	StatusSecure     ScoreStatus = "secure"
	StatusAtRisk     ScoreStatus = "at_risk"
	StatusVulnerable ScoreStatus = "vulnerable"
	StatusCritical   ScoreStatus = "critical"
)

// CurrentScore is the single per-device row holding the latest committed
// calculation. Streak and phishing counters are maintained by the engagement
// pipeline and are never touched by a score recalculation.
type CurrentScore struct {
	DeviceID           uuid.UUID   `json:"device_id"            db:"device_id"`
	TotalScore         int         `json:"total_score"          db:"total_score"`
	SecurityScore      int         `json:"security_score"       db:"security_score"`
	SecurityDeductions int         `json:"security_deductions"  db:"security_deductions"`
	EngagementPoints   int         `json:"engagement_points"    db:"engagement_points"`
	InsurancePoints    int         `json:"insurance_points"     db:"insurance_points"`
	Status             ScoreStatus `json:"status"               db:"status"`
	ColorCode          string      `json:"color_code"           db:"color_code"`
	LastCalculatedAt   time.Time   `json:"last_calculated_at"   db:"last_calculated_at"`
	CurrentStreakDays  int         `json:"current_streak_days"  db:"current_streak_days"`
	PhishingWeekCount  int         `json:"phishing_week_count"  db:"phishing_week_count"`
}

// ScoreComponents is the security/engagement/insurance breakdown persisted
// with each daily snapshot.
type ScoreComponents struct {
	Security   int `json:"security"`
	Engagement int `json:"engagement"`
	Insurance  int `json:"insurance"`
}

// DailySnapshot is the persisted score for one device on one calendar day
// (UTC, YYYY-MM-DD). The (device, date) pair is unique in the store.
type DailySnapshot struct {
	ID         uuid.UUID       `json:"id"          db:"id"`
	DeviceID   uuid.UUID       `json:"device_id"   db:"device_id"`
	Date       string          `json:"date"        db:"date"`
	TotalScore int             `json:"total_score" db:"total_score"`
	Components ScoreComponents `json:"components"  db:"components"`
	Status     ScoreStatus     `json:"status"      db:"status"`
	UpdatedAt  time.Time       `json:"updated_at"  db:"updated_at"`
}

// ScoreBreakdown itemises the components of a computed total.
type ScoreBreakdown struct {
	SecurityScore      int `json:"security_score"`
	SecurityDeductions int `json:"security_deductions"`
	EngagementPoints   int `json:"engagement_points"`
	InsurancePoints    int `json:"insurance_points"`
}

// ScoreResult is the full outcome of one score calculation, returned by both
// commit and preview mode.
type ScoreResult struct {
	DeviceID         uuid.UUID      `json:"device_id"`
	TotalScore       int            `json:"total_score"`
	Status           ScoreStatus    `json:"status"`
	ColorCode        string         `json:"color_code"`
	Message          string         `json:"message"`
	Breakdown        ScoreBreakdown `json:"breakdown"`
	LastCalculatedAt time.Time      `json:"last_calculated_at"`
}

// PreviewRequest is the payload for a what-if score calculation.
// ThreatIDs must be a non-empty list of UUIDv4 strings; the handler rejects
// anything else before the engine runs.
type PreviewRequest struct {
	ThreatIDs          []string `json:"threat_ids" binding:"required"`
	IgnoreOtherThreats *bool    `json:"ignore_other_threats,omitempty"`
}

// TrendPoint is one day of the weekly progress series.
type TrendPoint struct {
	Date       string `json:"date"`
	TotalScore int    `json:"total_score"`
}

// Trend compares the current 7-day snapshot window against the prior one.
type Trend struct {
	Points         []TrendPoint `json:"points"`
	ChangeAbsolute int          `json:"change_absolute"`
	ChangePercent  float64      `json:"change_percent"`
}

// ProtectionProgress carries the streak counters shown alongside the trend.
type ProtectionProgress struct {
	CurrentStreakDays       int    `json:"current_streak_days"`
	PhishingBlockedThisWeek int    `json:"phishing_blocked_this_week"`
	Suggestion              string `json:"suggestion"`
}

// WeeklyProgress is the response of the weekly-progress endpoint.
type WeeklyProgress struct {
	Period             string             `json:"period"`
	Trend              Trend              `json:"trend"`
	ProtectionProgress ProtectionProgress `json:"protection_progress"`
}
