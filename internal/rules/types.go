package rules

import "time"

type Operator string

const (
	OpGT  Operator = "GT"
	OpLT  Operator = "LT"
	OpGTE Operator = "GTE"
	OpLTE Operator = "LTE"
	OpEQ  Operator = "EQ"
	OpNE  Operator = "NE"
)

type ActionType string

const (
	ActionCreateAlert     ActionType = "CREATE_ALERT"
	ActionTriggerActuator ActionType = "TRIGGER_ACTUATOR"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

type AlertAction struct {
	Title    string   `json:"alertTitle"`
	Message  string   `json:"alertMessage"`
	Severity Severity `json:"alertSeverity"`
}

type ActuatorAction struct {
	TargetDeploymentID string         `json:"targetDeploymentId"`
	Command            string         `json:"actuatorCommand"`
	Parameters         map[string]any `json:"actuatorParameters,omitempty"`
}

// AutomationRule is the persistent configuration unit. Exactly one of
// Alert or Actuator is set, selected by ActionType; Validate enforces it.
// The trigger counters and LastTriggered are owned by the store's
// RecordTriggerOutcome and must not be mutated anywhere else.
type AutomationRule struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	SensorDeploymentID string          `json:"sensorDeploymentId"`
	Operator           Operator        `json:"operator"`
	ThresholdValue     float64         `json:"thresholdValue"`
	ActionType         ActionType      `json:"actionType"`
	Alert              *AlertAction    `json:"alert,omitempty"`
	Actuator           *ActuatorAction `json:"actuator,omitempty"`
	CooldownMinutes    int             `json:"cooldownMinutes"`
	IsActive           bool            `json:"isActive"`
	LastTriggered      *time.Time      `json:"lastTriggered,omitempty"`
	TriggerCount       int64           `json:"triggerCount"`
	SuccessCount       int64           `json:"successCount"`
	FailureCount       int64           `json:"failureCount"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type ExecutionStatus string

const (
	StatusCompleted       ExecutionStatus = "COMPLETED"
	StatusFailed          ExecutionStatus = "FAILED"
	StatusSkippedCooldown ExecutionStatus = "SKIPPED_COOLDOWN"
)

// Execution is one append-only audit row per evaluation attempt that
// reached condition checking. ThresholdValue is copied from the rule at
// evaluation time so history stays correct if the rule changes later.
type Execution struct {
	ID             string          `json:"id"`
	RuleID         string          `json:"ruleId"`
	TriggeredAt    time.Time       `json:"triggeredAt"`
	SensorValue    float64         `json:"sensorValue"`
	ThresholdValue float64         `json:"thresholdValue"`
	Triggered      bool            `json:"triggered"`
	ActionExecuted bool            `json:"actionExecuted"`
	Status         ExecutionStatus `json:"status"`
	Result         string          `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	DurationMs     *int64          `json:"durationMs,omitempty"`
}

func (r AutomationRule) Clone() AutomationRule {
	out := r
	if r.LastTriggered != nil {
		ts := *r.LastTriggered
		out.LastTriggered = &ts
	}
	if r.Alert != nil {
		alert := *r.Alert
		out.Alert = &alert
	}
	if r.Actuator != nil {
		act := *r.Actuator
		act.Parameters = nil
		if r.Actuator.Parameters != nil {
			act.Parameters = make(map[string]any, len(r.Actuator.Parameters))
			for k, v := range r.Actuator.Parameters {
				act.Parameters[k] = v
			}
		}
		out.Actuator = &act
	}
	return out
}
