package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
	"github.com/Ismael237/iot-automation-engine/internal/sinks"
)

type ActionResult struct {
	Ref      string
	Duration time.Duration
}

// Dispatcher executes a rule's configured action against the external
// collaborators. Both paths are bounded by Timeout and neither retries
// within a cycle; a failed dispatch is retried on the next cycle if the
// condition still holds.
type Dispatcher struct {
	Alerts   sinks.AlertSink
	Commands sinks.CommandSink
	Timeout  time.Duration
}

func NewDispatcher(alerts sinks.AlertSink, commands sinks.CommandSink, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = sinks.DefaultTimeout
	}
	return &Dispatcher{Alerts: alerts, Commands: commands, Timeout: timeout}
}

func (d *Dispatcher) Dispatch(ctx context.Context, rule rules.AutomationRule) (ActionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()
	start := time.Now()
	switch rule.ActionType {
	case rules.ActionCreateAlert:
		resp, err := d.Alerts.Create(ctx, sinks.AlertRequest{
			Title:            rule.Alert.Title,
			Message:          rule.Alert.Message,
			Severity:         string(rule.Alert.Severity),
			AutomationRuleID: rule.ID,
		})
		if err != nil {
			return ActionResult{Duration: time.Since(start)}, err
		}
		return ActionResult{Ref: resp.ID, Duration: time.Since(start)}, nil
	case rules.ActionTriggerActuator:
		resp, err := d.Commands.Send(ctx, rule.Actuator.TargetDeploymentID, sinks.CommandRequest{
			Command:    rule.Actuator.Command,
			Parameters: rule.Actuator.Parameters,
		})
		if err != nil {
			return ActionResult{Duration: time.Since(start)}, err
		}
		return ActionResult{Ref: resp.ID, Duration: time.Since(start)}, nil
	default:
		return ActionResult{}, fmt.Errorf("unsupported action type %q", rule.ActionType)
	}
}
