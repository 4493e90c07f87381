package rules

import "testing"

func validAlertRule() AutomationRule {
	return AutomationRule{
		Name:               "high temperature",
		SensorDeploymentID: "dep-1",
		Operator:           OpGT,
		ThresholdValue:     30,
		ActionType:         ActionCreateAlert,
		Alert:              &AlertAction{Title: "Too hot", Message: "Temperature above 30", Severity: SeverityWarning},
		CooldownMinutes:    15,
		IsActive:           true,
	}
}

func TestValidateAlertRule(t *testing.T) {
	if err := Validate(validAlertRule()); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
}

func TestValidateUnknownOperator(t *testing.T) {
	rule := validAlertRule()
	rule.Operator = "ABOVE"
	err := Validate(rule)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !hasField(err, "operator") {
		t.Fatalf("expected operator detail, got %v", err.Details)
	}
}

func TestValidateNegativeCooldown(t *testing.T) {
	rule := validAlertRule()
	rule.CooldownMinutes = -1
	err := Validate(rule)
	if err == nil || !hasField(err, "cooldownMinutes") {
		t.Fatalf("expected cooldown detail, got %v", err)
	}
}

func TestValidateAlertRuleMissingPayload(t *testing.T) {
	rule := validAlertRule()
	rule.Alert = nil
	err := Validate(rule)
	if err == nil || !hasField(err, "alert") {
		t.Fatalf("expected alert detail, got %v", err)
	}
}

func TestValidateAlertRuleWithActuatorPayload(t *testing.T) {
	rule := validAlertRule()
	rule.Actuator = &ActuatorAction{TargetDeploymentID: "dep-2", Command: "on"}
	err := Validate(rule)
	if err == nil || !hasField(err, "actuator") {
		t.Fatalf("expected actuator detail, got %v", err)
	}
}

func TestValidateActuatorRule(t *testing.T) {
	rule := validAlertRule()
	rule.ActionType = ActionTriggerActuator
	rule.Alert = nil
	rule.Actuator = &ActuatorAction{TargetDeploymentID: "dep-2", Command: "on", Parameters: map[string]any{"speed": 2}}
	if err := Validate(rule); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}
}

func TestValidateActuatorRuleMissingCommand(t *testing.T) {
	rule := validAlertRule()
	rule.ActionType = ActionTriggerActuator
	rule.Alert = nil
	rule.Actuator = &ActuatorAction{TargetDeploymentID: "dep-2"}
	err := Validate(rule)
	if err == nil || !hasField(err, "actuator.actuatorCommand") {
		t.Fatalf("expected command detail, got %v", err)
	}
}

func TestValidateUnknownSeverity(t *testing.T) {
	rule := validAlertRule()
	rule.Alert.Severity = "fatal"
	err := Validate(rule)
	if err == nil || !hasField(err, "alert.alertSeverity") {
		t.Fatalf("expected severity detail, got %v", err)
	}
}

func hasField(err *ValidationError, field string) bool {
	for _, d := range err.Details {
		if d.Field == field {
			return true
		}
	}
	return false
}
