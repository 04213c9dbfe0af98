package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cybx-security/protect/internal/protect/model"
)

// securityScore turns the device's selected active threats into a security
// score and total deduction.
//
// Selection policy:
//   - no filter → every active threat for the device
//   - filter + ignoreOthers → only active threats in the filter set
//   - filter + !ignoreOthers → every active threat (the filter is a no-op)
//
// A threat whose (type, severity) pair has no deduction rule contributes
// zero — unmapped combinations are not penalized.
func (e *Engine) securityScore(ctx context.Context, deviceID uuid.UUID, threatIDs []uuid.UUID, ignoreOthers bool) (score, deductions int, err error) {
	var threats []model.Threat
	if len(threatIDs) > 0 && ignoreOthers {
		threats, err = e.store.ListActiveThreatsByID(ctx, deviceID, threatIDs)
	} else {
		threats, err = e.store.ListActiveThreats(ctx, deviceID)
	}
	if err != nil {
		return 0, 0, err
	}

	// No threats: perfect security score, no rule data needed.
	if len(threats) == 0 {
		return model.MaxSecurityScore, 0, nil
	}

	rules, err := e.store.ListDeductionRules(ctx)
	if err != nil {
		return 0, 0, err
	}
	ruleMap := make(map[string]int, len(rules))
	for _, r := range rules {
		ruleMap[model.RuleKey(r.ThreatType, r.Severity)] = r.Deduction
	}

	total := 0
	for _, t := range threats {
		d, ok := ruleMap[model.RuleKey(t.ThreatType, t.Severity)]
		if !ok {
			e.logger.Debug("no deduction rule for threat",
				zap.String("threat_type", t.ThreatType),
				zap.String("severity", string(t.Severity)),
			)
			continue
		}
		total += d
	}

	if total > model.MaxSecurityScore {
		total = model.MaxSecurityScore
	}
	return model.MaxSecurityScore - total, total, nil
}
