package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ismael237/iot-automation-engine/internal/rules"
)

// MemoryStore is the reference RuleStore used in tests and local runs.
// All methods copy rules in and out so callers never share mutable state;
// RecordTriggerOutcome holds the write lock for the whole update, which
// gives the same per-rule atomicity the Postgres store gets from its
// single-statement UPDATE.
type MemoryStore struct {
	mu         sync.RWMutex
	rules      map[string]rules.AutomationRule
	executions []rules.Execution
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: map[string]rules.AutomationRule{}}
}

func (s *MemoryStore) ListRules(ctx context.Context, activeOnly bool) ([]rules.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := []rules.AutomationRule{}
	for _, rule := range s.rules {
		if activeOnly && !rule.IsActive {
			continue
		}
		results = append(results, rule.Clone())
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].ID < results[j].ID
		}
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (s *MemoryStore) GetRule(ctx context.Context, id string) (rules.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return rules.AutomationRule{}, ErrNotFound
	}
	return rule.Clone(), nil
}

func (s *MemoryStore) CreateRule(ctx context.Context, rule rules.AutomationRule) (rules.AutomationRule, error) {
	if err := rules.Validate(rule); err != nil {
		return rules.AutomationRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rule = rule.Clone()
	rule.ID = uuid.NewString()
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	rule.LastTriggered = nil
	rule.TriggerCount, rule.SuccessCount, rule.FailureCount = 0, 0, 0
	s.rules[rule.ID] = rule
	return rule.Clone(), nil
}

func (s *MemoryStore) UpdateRule(ctx context.Context, rule rules.AutomationRule) (rules.AutomationRule, error) {
	if err := rules.Validate(rule); err != nil {
		return rules.AutomationRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[rule.ID]
	if !ok {
		return rules.AutomationRule{}, ErrNotFound
	}
	updated := rule.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.LastTriggered = existing.LastTriggered
	updated.TriggerCount = existing.TriggerCount
	updated.SuccessCount = existing.SuccessCount
	updated.FailureCount = existing.FailureCount
	updated.UpdatedAt = time.Now().UTC()
	s.rules[updated.ID] = updated
	return updated.Clone(), nil
}

func (s *MemoryStore) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return ErrNotFound
	}
	delete(s.rules, id)
	return nil
}

func (s *MemoryStore) RecordTriggerOutcome(ctx context.Context, id string, firedAt time.Time, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return ErrNotFound
	}
	rule.TriggerCount++
	if success {
		rule.SuccessCount++
		ts := firedAt.UTC()
		rule.LastTriggered = &ts
	} else {
		rule.FailureCount++
	}
	rule.UpdatedAt = time.Now().UTC()
	s.rules[id] = rule
	return nil
}

func (s *MemoryStore) InsertExecution(ctx context.Context, exec rules.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exec.ID == "" {
		exec.ID = uuid.NewString()
	}
	s.executions = append(s.executions, exec)
	return nil
}

func (s *MemoryStore) ListExecutions(ctx context.Context, ruleID string) ([]rules.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := []rules.Execution{}
	for _, exec := range s.executions {
		if exec.RuleID == ruleID {
			results = append(results, exec)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].TriggeredAt.After(results[j].TriggeredAt)
	})
	return results, nil
}
