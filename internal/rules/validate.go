package rules

import "strings"

type ErrorDetail struct {
	Field   string `json:"field"`
	Problem string `json:"problem"`
	Hint    string `json:"hint,omitempty"`
}

type ValidationError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details"`
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}
	return e.Message + ": " + strings.Join(fields, ", ")
}

var validOperators = map[Operator]bool{
	OpGT: true, OpLT: true, OpGTE: true, OpLTE: true, OpEQ: true, OpNE: true,
}

var validSeverities = map[Severity]bool{
	SeverityInfo: true, SeverityWarning: true, SeverityError: true, SeverityCritical: true,
}

// Validate rejects malformed rule definitions before they can reach the
// evaluator: unknown operators, negative cooldowns, and action payloads
// that do not match the action type. Exactly one payload must be set.
func Validate(rule AutomationRule) *ValidationError {
	var details []ErrorDetail
	if strings.TrimSpace(rule.Name) == "" {
		details = append(details, ErrorDetail{Field: "name", Problem: "missing"})
	}
	if strings.TrimSpace(rule.SensorDeploymentID) == "" {
		details = append(details, ErrorDetail{Field: "sensorDeploymentId", Problem: "missing"})
	}
	if !validOperators[rule.Operator] {
		details = append(details, ErrorDetail{Field: "operator", Problem: "unsupported", Hint: "Use GT, LT, GTE, LTE, EQ or NE"})
	}
	if rule.CooldownMinutes < 0 {
		details = append(details, ErrorDetail{Field: "cooldownMinutes", Problem: "negative", Hint: "Must be >= 0"})
	}
	switch rule.ActionType {
	case ActionCreateAlert:
		if rule.Actuator != nil {
			details = append(details, ErrorDetail{Field: "actuator", Problem: "forbidden", Hint: "Only alert fields for CREATE_ALERT"})
		}
		if rule.Alert == nil {
			details = append(details, ErrorDetail{Field: "alert", Problem: "missing", Hint: "CREATE_ALERT requires alert fields"})
		} else {
			if strings.TrimSpace(rule.Alert.Title) == "" {
				details = append(details, ErrorDetail{Field: "alert.alertTitle", Problem: "missing"})
			}
			if !validSeverities[rule.Alert.Severity] {
				details = append(details, ErrorDetail{Field: "alert.alertSeverity", Problem: "unsupported", Hint: "Use info, warning, error or critical"})
			}
		}
	case ActionTriggerActuator:
		if rule.Alert != nil {
			details = append(details, ErrorDetail{Field: "alert", Problem: "forbidden", Hint: "Only actuator fields for TRIGGER_ACTUATOR"})
		}
		if rule.Actuator == nil {
			details = append(details, ErrorDetail{Field: "actuator", Problem: "missing", Hint: "TRIGGER_ACTUATOR requires actuator fields"})
		} else {
			if strings.TrimSpace(rule.Actuator.TargetDeploymentID) == "" {
				details = append(details, ErrorDetail{Field: "actuator.targetDeploymentId", Problem: "missing"})
			}
			if strings.TrimSpace(rule.Actuator.Command) == "" {
				details = append(details, ErrorDetail{Field: "actuator.actuatorCommand", Problem: "missing"})
			}
		}
	default:
		details = append(details, ErrorDetail{Field: "actionType", Problem: "unsupported", Hint: "Use CREATE_ALERT or TRIGGER_ACTUATOR"})
	}
	if len(details) > 0 {
		return &ValidationError{Code: "RULE_SCHEMA_INVALID", Message: "automation rule failed validation", Details: details}
	}
	return nil
}
