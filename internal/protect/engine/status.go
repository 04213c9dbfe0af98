package engine

import "github.com/cybx-security/protect/internal/protect/model"

// classify maps a total score (0–90) to its health tier. Thresholds are
// ordered and first match wins, so the four tiers partition the whole range.
func classify(total int) (status model.ScoreStatus, colorCode, message string) {
	switch {
	case total >= 85:
		return model.StatusSecure, "#34C759", "Your digital world is secure!"
	case total >= 60:
		return model.StatusAtRisk, "#FFCC00", "You're somewhat protected. Review suggestions below."
	case total >= 40:
		return model.StatusVulnerable, "#FF9500", "You have multiple risks. Take action soon."
	default:
		return model.StatusCritical, "#FF3B30", "Critical vulnerabilities detected. Fix immediately!"
	}
}
