package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ismael237/iot-automation-engine/internal/readings"
	"github.com/Ismael237/iot-automation-engine/internal/rules"
	"github.com/Ismael237/iot-automation-engine/internal/storage"
)

const DefaultInterval = 30 * time.Second

type CycleStats struct {
	StartedAt       time.Time     `json:"startedAt"`
	Duration        time.Duration `json:"duration"`
	Evaluated       int           `json:"evaluated"`
	Triggered       int           `json:"triggered"`
	Dispatched      int           `json:"dispatched"`
	Failed          int           `json:"failed"`
	SkippedCooldown int           `json:"skippedCooldown"`
	NoReading       int           `json:"noReading"`
}

// Scheduler drives periodic evaluation of all active rules. Rules within
// a cycle are evaluated concurrently; one rule's failure never aborts the
// others.
type Scheduler struct {
	store      storage.RuleStore
	source     readings.Source
	dispatcher *Dispatcher
	recorder   *Recorder
	clock      Clock
	interval   time.Duration
	logger     *zap.Logger

	kick chan struct{}

	mu        sync.Mutex
	lastStats CycleStats
}

func NewScheduler(store storage.RuleStore, source readings.Source, dispatcher *Dispatcher, recorder *Recorder, clock Clock, interval time.Duration, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:      store,
		source:     source,
		dispatcher: dispatcher,
		recorder:   recorder,
		clock:      clock,
		interval:   interval,
		logger:     logger,
		kick:       make(chan struct{}, 1),
	}
}

// Kick requests an early cycle, e.g. after a rule change event.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Scheduler) LastStats() CycleStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// Run evaluates on a fixed interval until ctx is canceled. The cycle in
// progress finishes its in-flight dispatches before Run returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		case <-s.kick:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle fetches all active rules and evaluates each against its
// current reading. Evaluation order across rules is unspecified.
func (s *Scheduler) RunCycle(ctx context.Context) CycleStats {
	start := s.clock.Now()
	stats := CycleStats{StartedAt: start}

	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	activeRules, err := s.store.ListRules(listCtx, true)
	cancel()
	if err != nil {
		s.logger.Error("cycle aborted: failed to list active rules", zap.Error(err))
		stats.Duration = time.Since(start)
		s.setStats(stats)
		return stats
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, rule := range activeRules {
		wg.Add(1)
		go func(rule rules.AutomationRule) {
			defer wg.Done()
			exec, outcome := s.evaluateRule(rule)
			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeNoReading:
				stats.NoReading++
				return
			case outcomeSkippedCooldown:
				stats.SkippedCooldown++
			case outcomeDispatched:
				stats.Dispatched++
			case outcomeFailed:
				stats.Failed++
			}
			stats.Evaluated++
			if exec != nil && exec.Triggered {
				stats.Triggered++
			}
		}(rule)
	}
	wg.Wait()

	stats.Duration = time.Since(start)
	s.setStats(stats)
	s.logger.Info("evaluation cycle finished",
		zap.Int("evaluated", stats.Evaluated),
		zap.Int("triggered", stats.Triggered),
		zap.Int("dispatched", stats.Dispatched),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped_cooldown", stats.SkippedCooldown),
		zap.Int("no_reading", stats.NoReading),
		zap.Duration("duration", stats.Duration),
	)
	return stats
}

// EvaluateRule runs the full pipeline for one rule on demand, bypassing
// only the IsActive gate. Cooldown and recording behave exactly as in a
// scheduled cycle.
func (s *Scheduler) EvaluateRule(ctx context.Context, id string) (rules.Execution, error) {
	rule, err := s.store.GetRule(ctx, id)
	if err != nil {
		return rules.Execution{}, err
	}
	exec, outcome := s.evaluateRule(rule)
	if outcome == outcomeNoReading {
		return rules.Execution{}, readings.ErrNoReading
	}
	return *exec, nil
}

type outcome int

const (
	outcomeNoReading outcome = iota
	outcomeNotTriggered
	outcomeSkippedCooldown
	outcomeDispatched
	outcomeFailed
)

// evaluateRule runs on a context detached from the scheduler loop so a
// shutdown mid-cycle does not abort the dispatch or its audit record.
func (s *Scheduler) evaluateRule(rule rules.AutomationRule) (*rules.Execution, outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), s.dispatcher.Timeout+5*time.Second)
	defer cancel()

	now := s.clock.Now()
	reading, err := s.source.LatestValue(ctx, rule.SensorDeploymentID)
	if err != nil {
		if errors.Is(err, readings.ErrNoReading) {
			s.logger.Debug("no reading for deployment, rule skipped",
				zap.String("rule_id", rule.ID),
				zap.String("deployment_id", rule.SensorDeploymentID),
			)
		} else {
			s.logger.Warn("reading source error, rule skipped",
				zap.String("rule_id", rule.ID),
				zap.String("deployment_id", rule.SensorDeploymentID),
				zap.Error(err),
			)
		}
		return nil, outcomeNoReading
	}

	exec := rules.Execution{
		RuleID:         rule.ID,
		TriggeredAt:    now,
		SensorValue:    reading.Value,
		ThresholdValue: rule.ThresholdValue,
		Triggered:      Evaluate(rule.Operator, reading.Value, rule.ThresholdValue),
	}

	result := outcomeNotTriggered
	switch {
	case !exec.Triggered:
		exec.Status = rules.StatusCompleted
	case InCooldown(rule.LastTriggered, rule.CooldownMinutes, now):
		exec.Status = rules.StatusSkippedCooldown
		result = outcomeSkippedCooldown
	default:
		exec.ActionExecuted = true
		actionResult, err := s.dispatcher.Dispatch(ctx, rule)
		durationMs := actionResult.Duration.Milliseconds()
		exec.DurationMs = &durationMs
		if err != nil {
			exec.Status = rules.StatusFailed
			exec.Error = err.Error()
			result = outcomeFailed
			s.logger.Warn("action dispatch failed",
				zap.String("rule_id", rule.ID),
				zap.String("action_type", string(rule.ActionType)),
				zap.Error(err),
			)
		} else {
			exec.Status = rules.StatusCompleted
			exec.Result = actionResult.Ref
			result = outcomeDispatched
		}
	}

	if err := s.recorder.Record(ctx, exec); err != nil {
		s.logger.Error("failed to record execution",
			zap.String("rule_id", rule.ID),
			zap.Error(err),
		)
	}
	return &exec, result
}

func (s *Scheduler) setStats(stats CycleStats) {
	s.mu.Lock()
	s.lastStats = stats
	s.mu.Unlock()
}
