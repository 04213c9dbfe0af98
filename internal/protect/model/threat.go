package model

import (
	"time"

	"github.com/google/uuid"
)

// Severity grades how dangerous a detected threat is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ThreatStatus represents the lifecycle state of a detected threat.
// Threats are created by the ingestion pipeline and transition
// active → resolved; the score engine only ever reads them.
type ThreatStatus string

const (
	ThreatStatusActive   ThreatStatus = "active"
	ThreatStatusResolved ThreatStatus = "resolved"
)

// Threat categories reported by the device SDK.
const (
	ThreatTypeApp        = "APP_ISSUE"
	ThreatTypeNetwork    = "NETWORK_ISSUE"
	ThreatTypeDevice     = "DEVICE_ISSUE"
	ThreatTypeUnsafeSite = "UNSAFE_SITE"
	ThreatTypeOther      = "OTHER"
)

// Threat is a single detected issue on a device.
type Threat struct {
	ID         uuid.UUID      `json:"id"                    db:"id"`
	DeviceID   uuid.UUID      `json:"device_id"             db:"device_id"`
	ThreatType string         `json:"threat_type"           db:"threat_type"`
	Severity   Severity       `json:"severity"              db:"severity"`
	Status     ThreatStatus   `json:"status"                db:"status"`
	DetectedAt time.Time      `json:"detected_at"           db:"detected_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty" db:"resolved_at"`
	Source     string         `json:"source,omitempty"      db:"source"`
	RawPayload map[string]any `json:"raw_payload,omitempty" db:"raw_payload"`
}

// DeductionRule maps a (threat type, severity) pair to the number of points
// subtracted from the security score while a matching threat is active.
// Rules are static reference data; the pair is unique in the store.
type DeductionRule struct {
	ID         int      `json:"id"          db:"id"`
	ThreatType string   `json:"threat_type" db:"threat_type"`
	Severity   Severity `json:"severity"    db:"severity"`
	Deduction  int      `json:"deduction"   db:"deduction"`
}

// RuleKey returns the lookup key used to match a threat against a rule.
func RuleKey(threatType string, severity Severity) string {
	return threatType + "_" + string(severity)
}
