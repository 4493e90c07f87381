package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
	"github.com/Ismael237/iot-automation-engine/internal/storage"
)

// Recorder persists one execution row per evaluation attempt and, when an
// action was attempted, updates the rule's counters through the store's
// atomic RecordTriggerOutcome. The execution row is written first: it is
// the audit source of truth, and counters can be reconciled from it if
// the second write fails.
type Recorder struct {
	store  storage.RuleStore
	logger *zap.Logger
}

func NewRecorder(store storage.RuleStore, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, exec rules.Execution) error {
	if err := r.store.InsertExecution(ctx, exec); err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}
	if !exec.ActionExecuted {
		return nil
	}
	success := exec.Status == rules.StatusCompleted
	if err := r.store.RecordTriggerOutcome(ctx, exec.RuleID, exec.TriggeredAt, success); err != nil {
		r.logger.Error("execution recorded but counter update failed",
			zap.String("rule_id", exec.RuleID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to record trigger outcome: %w", err)
	}
	return nil
}
