package sinks

import "context"

type AlertRequest struct {
	Title            string `json:"title"`
	Message          string `json:"message"`
	Severity         string `json:"severity"`
	AutomationRuleID string `json:"automationRuleId"`
}

type AlertResponse struct {
	ID string `json:"id"`
}

type CommandRequest struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type CommandResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// AlertSink creates alerts in the platform's alert collaborator.
type AlertSink interface {
	Create(ctx context.Context, req AlertRequest) (AlertResponse, error)
}

// CommandSink sends a command to a concrete actuator deployment.
type CommandSink interface {
	Send(ctx context.Context, deploymentID string, req CommandRequest) (CommandResponse, error)
}
