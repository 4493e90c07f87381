package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
)

func alertRule() rules.AutomationRule {
	return rules.AutomationRule{
		Name:               "high temperature",
		SensorDeploymentID: "dep-1",
		Operator:           rules.OpGT,
		ThresholdValue:     30,
		ActionType:         rules.ActionCreateAlert,
		Alert:              &rules.AlertAction{Title: "Too hot", Message: "Above 30", Severity: rules.SeverityWarning},
		CooldownMinutes:    15,
		IsActive:           true,
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Zero(t, created.TriggerCount)
	assert.Nil(t, created.LastTriggered)

	got, err := store.GetRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, rules.SeverityWarning, got.Alert.Severity)
}

func TestMemoryStoreGetUnknown(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetRule(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCreateRejectsInvalid(t *testing.T) {
	store := NewMemoryStore()
	rule := alertRule()
	rule.CooldownMinutes = -5

	_, err := store.CreateRule(context.Background(), rule)
	var verr *rules.ValidationError
	require.True(t, errors.As(err, &verr))
}

func TestMemoryStoreListActiveOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	active, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)
	inactive := alertRule()
	inactive.IsActive = false
	_, err = store.CreateRule(ctx, inactive)
	require.NoError(t, err)

	all, err := store.ListRules(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyActive, err := store.ListRules(ctx, true)
	require.NoError(t, err)
	require.Len(t, onlyActive, 1)
	assert.Equal(t, active.ID, onlyActive[0].ID)
}

func TestMemoryStoreUpdatePreservesCounters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)
	require.NoError(t, store.RecordTriggerOutcome(ctx, created.ID, time.Now(), true))

	updated := created
	updated.Name = "renamed"
	updated.TriggerCount = 99
	got, err := store.UpdateRule(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, int64(1), got.TriggerCount)
	assert.NotNil(t, got.LastTriggered)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)
	require.NoError(t, store.DeleteRule(ctx, created.ID))
	assert.ErrorIs(t, store.DeleteRule(ctx, created.ID), ErrNotFound)
}

func TestRecordTriggerOutcomeSuccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)
	firedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordTriggerOutcome(ctx, created.ID, firedAt, true))

	got, err := store.GetRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TriggerCount)
	assert.Equal(t, int64(1), got.SuccessCount)
	assert.Equal(t, int64(0), got.FailureCount)
	require.NotNil(t, got.LastTriggered)
	assert.Equal(t, firedAt, *got.LastTriggered)
}

func TestRecordTriggerOutcomeFailureKeepsLastTriggered(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)
	require.NoError(t, store.RecordTriggerOutcome(ctx, created.ID, time.Now(), false))

	got, err := store.GetRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.TriggerCount)
	assert.Equal(t, int64(0), got.SuccessCount)
	assert.Equal(t, int64(1), got.FailureCount)
	assert.Nil(t, got.LastTriggered)
}

func TestRecordTriggerOutcomeConcurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(success bool) {
			defer wg.Done()
			_ = store.RecordTriggerOutcome(ctx, created.ID, time.Now(), success)
		}(i%2 == 0)
	}
	wg.Wait()

	got, err := store.GetRule(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.TriggerCount)
	assert.Equal(t, int64(50), got.SuccessCount+got.FailureCount)
}

func TestMemoryStoreExecutions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	created, err := store.CreateRule(ctx, alertRule())
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.InsertExecution(ctx, rules.Execution{
			RuleID:      created.ID,
			TriggeredAt: base.Add(time.Duration(i) * time.Minute),
			SensorValue: 31,
			Status:      rules.StatusCompleted,
		}))
	}
	require.NoError(t, store.InsertExecution(ctx, rules.Execution{RuleID: "other", TriggeredAt: base}))

	execs, err := store.ListExecutions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, execs, 3)
	assert.True(t, execs[0].TriggeredAt.After(execs[1].TriggeredAt))
	assert.NotEmpty(t, execs[0].ID)
}
