package engine

import "time"

// InCooldown reports whether a rule that fired at lastTriggered is still
// suppressed at now. It is a pure function of persisted rule state, so the
// engine never drifts from the store: a rule that never fired is armed, and
// the window is [lastTriggered, lastTriggered + cooldownMinutes).
func InCooldown(lastTriggered *time.Time, cooldownMinutes int, now time.Time) bool {
	if lastTriggered == nil || cooldownMinutes <= 0 {
		return false
	}
	return now.Sub(*lastTriggered) < time.Duration(cooldownMinutes)*time.Minute
}
