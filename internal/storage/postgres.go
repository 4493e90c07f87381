package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
)

const ruleColumns = `id, name, description, sensor_deployment_id, operator, threshold_value,
	action_type, alert_title, alert_message, alert_severity,
	target_deployment_id, actuator_command, actuator_parameters,
	cooldown_minutes, is_active, last_triggered,
	trigger_count, success_count, failure_count, created_at, updated_at`

type PostgresStore struct {
	Store *Store
}

func NewPostgresStore(store *Store) *PostgresStore {
	return &PostgresStore{Store: store}
}

func (s *PostgresStore) ListRules(ctx context.Context, activeOnly bool) ([]rules.AutomationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automation_rules ORDER BY created_at DESC`
	if activeOnly {
		query = `SELECT ` + ruleColumns + ` FROM automation_rules WHERE is_active = true ORDER BY created_at DESC`
	}
	rows, err := s.Store.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []rules.AutomationRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rule)
	}
	return results, rows.Err()
}

func (s *PostgresStore) GetRule(ctx context.Context, id string) (rules.AutomationRule, error) {
	row := s.Store.Pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM automation_rules WHERE id=$1`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rules.AutomationRule{}, ErrNotFound
		}
		return rules.AutomationRule{}, err
	}
	return rule, nil
}

func (s *PostgresStore) CreateRule(ctx context.Context, rule rules.AutomationRule) (rules.AutomationRule, error) {
	if err := rules.Validate(rule); err != nil {
		return rules.AutomationRule{}, err
	}
	rule.ID = uuid.NewString()
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.LastTriggered = nil
	rule.TriggerCount, rule.SuccessCount, rule.FailureCount = 0, 0, 0
	fields, err := actionFields(rule)
	if err != nil {
		return rules.AutomationRule{}, err
	}
	_, err = s.Store.Pool.Exec(ctx, `
		INSERT INTO automation_rules (`+ruleColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,NULL,0,0,0,$16,$16)`,
		rule.ID, rule.Name, rule.Description, rule.SensorDeploymentID, rule.Operator, rule.ThresholdValue,
		rule.ActionType, fields.alertTitle, fields.alertMessage, fields.alertSeverity,
		fields.targetDeployment, fields.actuatorCommand, fields.actuatorParams,
		rule.CooldownMinutes, rule.IsActive, now,
	)
	if err != nil {
		return rules.AutomationRule{}, err
	}
	return rule, nil
}

func (s *PostgresStore) UpdateRule(ctx context.Context, rule rules.AutomationRule) (rules.AutomationRule, error) {
	if err := rules.Validate(rule); err != nil {
		return rules.AutomationRule{}, err
	}
	fields, err := actionFields(rule)
	if err != nil {
		return rules.AutomationRule{}, err
	}
	tag, err := s.Store.Pool.Exec(ctx, `
		UPDATE automation_rules
		SET name=$1, description=$2, sensor_deployment_id=$3, operator=$4, threshold_value=$5,
			action_type=$6, alert_title=$7, alert_message=$8, alert_severity=$9,
			target_deployment_id=$10, actuator_command=$11, actuator_parameters=$12,
			cooldown_minutes=$13, is_active=$14, updated_at=now()
		WHERE id=$15`,
		rule.Name, rule.Description, rule.SensorDeploymentID, rule.Operator, rule.ThresholdValue,
		rule.ActionType, fields.alertTitle, fields.alertMessage, fields.alertSeverity,
		fields.targetDeployment, fields.actuatorCommand, fields.actuatorParams,
		rule.CooldownMinutes, rule.IsActive, rule.ID,
	)
	if err != nil {
		return rules.AutomationRule{}, err
	}
	if tag.RowsAffected() == 0 {
		return rules.AutomationRule{}, ErrNotFound
	}
	return s.GetRule(ctx, rule.ID)
}

func (s *PostgresStore) DeleteRule(ctx context.Context, id string) error {
	tag, err := s.Store.Pool.Exec(ctx, `DELETE FROM automation_rules WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordTriggerOutcome is a single UPDATE so the counter bump and the
// lastTriggered stamp are atomic at the row level; overlapping evaluation
// cycles never read-modify-write the counters client side.
func (s *PostgresStore) RecordTriggerOutcome(ctx context.Context, id string, firedAt time.Time, success bool) error {
	tag, err := s.Store.Pool.Exec(ctx, `
		UPDATE automation_rules
		SET trigger_count = trigger_count + 1,
			success_count = success_count + CASE WHEN $2 THEN 1 ELSE 0 END,
			failure_count = failure_count + CASE WHEN $2 THEN 0 ELSE 1 END,
			last_triggered = CASE WHEN $2 THEN $3 ELSE last_triggered END,
			updated_at = now()
		WHERE id=$1`, id, success, firedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertExecution(ctx context.Context, exec rules.Execution) error {
	if exec.ID == "" {
		exec.ID = uuid.NewString()
	}
	_, err := s.Store.Pool.Exec(ctx, `
		INSERT INTO automation_executions
			(id, rule_id, triggered_at, sensor_value, threshold_value, triggered, action_executed, status, result, error, duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		exec.ID, exec.RuleID, exec.TriggeredAt.UTC(), exec.SensorValue, exec.ThresholdValue,
		exec.Triggered, exec.ActionExecuted, exec.Status, nullIfEmpty(exec.Result), nullIfEmpty(exec.Error), exec.DurationMs,
	)
	return err
}

func (s *PostgresStore) ListExecutions(ctx context.Context, ruleID string) ([]rules.Execution, error) {
	rows, err := s.Store.Pool.Query(ctx, `
		SELECT id, rule_id, triggered_at, sensor_value, threshold_value, triggered, action_executed, status, result, error, duration_ms
		FROM automation_executions WHERE rule_id=$1 ORDER BY triggered_at DESC`, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := []rules.Execution{}
	for rows.Next() {
		var exec rules.Execution
		var result, errMsg *string
		if err := rows.Scan(&exec.ID, &exec.RuleID, &exec.TriggeredAt, &exec.SensorValue, &exec.ThresholdValue,
			&exec.Triggered, &exec.ActionExecuted, &exec.Status, &result, &errMsg, &exec.DurationMs); err != nil {
			return nil, err
		}
		if result != nil {
			exec.Result = *result
		}
		if errMsg != nil {
			exec.Error = *errMsg
		}
		results = append(results, exec)
	}
	return results, rows.Err()
}

type actionColumnValues struct {
	alertTitle       *string
	alertMessage     *string
	alertSeverity    *string
	targetDeployment *string
	actuatorCommand  *string
	actuatorParams   []byte
}

func actionFields(rule rules.AutomationRule) (actionColumnValues, error) {
	var fields actionColumnValues
	if rule.Alert != nil {
		sev := string(rule.Alert.Severity)
		fields.alertTitle = &rule.Alert.Title
		fields.alertMessage = &rule.Alert.Message
		fields.alertSeverity = &sev
	}
	if rule.Actuator != nil {
		fields.targetDeployment = &rule.Actuator.TargetDeploymentID
		fields.actuatorCommand = &rule.Actuator.Command
		if rule.Actuator.Parameters != nil {
			data, err := json.Marshal(rule.Actuator.Parameters)
			if err != nil {
				return fields, err
			}
			fields.actuatorParams = data
		}
	}
	return fields, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (rules.AutomationRule, error) {
	var rule rules.AutomationRule
	var alertTitle, alertMessage, alertSeverity *string
	var targetDeployment, actuatorCommand *string
	var actuatorParams []byte
	err := row.Scan(&rule.ID, &rule.Name, &rule.Description, &rule.SensorDeploymentID, &rule.Operator, &rule.ThresholdValue,
		&rule.ActionType, &alertTitle, &alertMessage, &alertSeverity,
		&targetDeployment, &actuatorCommand, &actuatorParams,
		&rule.CooldownMinutes, &rule.IsActive, &rule.LastTriggered,
		&rule.TriggerCount, &rule.SuccessCount, &rule.FailureCount, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		return rules.AutomationRule{}, err
	}
	if rule.ActionType == rules.ActionCreateAlert && alertTitle != nil {
		alert := rules.AlertAction{Title: *alertTitle}
		if alertMessage != nil {
			alert.Message = *alertMessage
		}
		if alertSeverity != nil {
			alert.Severity = rules.Severity(*alertSeverity)
		}
		rule.Alert = &alert
	}
	if rule.ActionType == rules.ActionTriggerActuator && targetDeployment != nil {
		act := rules.ActuatorAction{TargetDeploymentID: *targetDeployment}
		if actuatorCommand != nil {
			act.Command = *actuatorCommand
		}
		if len(actuatorParams) > 0 {
			if err := json.Unmarshal(actuatorParams, &act.Parameters); err != nil {
				return rules.AutomationRule{}, err
			}
		}
		rule.Actuator = &act
	}
	return rule, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
