package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
)

var ErrNotFound = errors.New("not found")

// RuleStore is the persistence surface shared by the API service and the
// evaluation engine. RecordTriggerOutcome must be atomic per rule id so
// overlapping cycles cannot double-count a trigger.
type RuleStore interface {
	ListRules(ctx context.Context, activeOnly bool) ([]rules.AutomationRule, error)
	GetRule(ctx context.Context, id string) (rules.AutomationRule, error)
	CreateRule(ctx context.Context, rule rules.AutomationRule) (rules.AutomationRule, error)
	UpdateRule(ctx context.Context, rule rules.AutomationRule) (rules.AutomationRule, error)
	DeleteRule(ctx context.Context, id string) error

	// RecordTriggerOutcome bumps triggerCount and the success or failure
	// counter in one step; lastTriggered moves to firedAt only on success.
	RecordTriggerOutcome(ctx context.Context, id string, firedAt time.Time, success bool) error

	InsertExecution(ctx context.Context, exec rules.Execution) error
	ListExecutions(ctx context.Context, ruleID string) ([]rules.Execution, error)
}
