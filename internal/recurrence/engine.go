package recurrence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/domain"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"github.com/phrazzld/taskpulse-api/internal/redact"
	"github.com/phrazzld/taskpulse-api/internal/store"
)

// ErrRunInProgress is returned when a run is requested while another run
// holds the in-process mutex or the store's recurrence lock.
var ErrRunInProgress = errors.New("recurrence run already in progress")

// Policy decides which completed tasks a run regenerates.
type Policy string

const (
	// PolicyMarkRegenerated regenerates a completed task once and stamps it
	// so later runs skip it.
	PolicyMarkRegenerated Policy = "mark_regenerated"

	// PolicyRegenerateEveryRun regenerates every completed recurring task on
	// every run.
	PolicyRegenerateEveryRun Policy = "every_run"
)

// ParsePolicy maps a configuration value to a Policy. The empty string
// selects PolicyMarkRegenerated.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(value) {
	case "", PolicyMarkRegenerated:
		return PolicyMarkRegenerated, nil
	case PolicyRegenerateEveryRun:
		return PolicyRegenerateEveryRun, nil
	default:
		return "", fmt.Errorf("unknown recurrence policy %q", value)
	}
}

// SkippedTask records a source task the run could not regenerate.
type SkippedTask struct {
	TaskID uuid.UUID `json:"task_id"`
	Reason string    `json:"reason"`
}

// RunResult summarizes a single run.
type RunResult struct {
	// Generated lists the IDs of the new pending occurrences.
	Generated []uuid.UUID `json:"generated"`

	// Considered counts the completed recurring tasks the run saw,
	// including those already regenerated.
	Considered int `json:"considered"`

	// AlreadyRegenerated counts sources skipped because an earlier run
	// already produced their next occurrence.
	AlreadyRegenerated int `json:"already_regenerated"`

	Skipped  []SkippedTask `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Engine performs recurrence runs against a TaskStore.
type Engine struct {
	taskStore store.TaskStore
	db        *sql.DB
	policy    Policy
	logger    *slog.Logger

	mu sync.Mutex
}

// NewEngine creates a new Engine. Every run opens its own transaction on db.
func NewEngine(taskStore store.TaskStore, db *sql.DB, policy Policy, logger *slog.Logger) (*Engine, error) {
	if taskStore == nil {
		return nil, errors.New("task store cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}
	if policy == "" {
		policy = PolicyMarkRegenerated
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		taskStore: taskStore,
		db:        db,
		policy:    policy,
		logger:    logger.With("component", "recurrence_engine"),
	}, nil
}

// Policy reports the regeneration policy of the engine.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Run generates the next occurrence of every eligible completed recurring
// task as of now. All new tasks and regeneration markers are written in one
// transaction: either the whole batch lands or nothing does. Sources whose
// next occurrence cannot be computed are skipped and reported in the result.
//
// Run returns ErrRunInProgress without waiting when another run is active.
func (e *Engine) Run(ctx context.Context, now time.Time) (*RunResult, error) {
	if !e.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.mu.Unlock()

	log := logger.FromContextOrDefault(ctx, e.logger)
	started := time.Now()
	now = now.UTC()

	var result *RunResult
	err := store.RunInTransactionWithOptions(ctx, e.db, store.SerializableTx,
		func(ctx context.Context, tx *sql.Tx) error {
			txStore := e.taskStore.WithTx(tx)

			acquired, err := txStore.AcquireRecurrenceLock(ctx)
			if err != nil {
				return fmt.Errorf("acquire recurrence lock: %w", err)
			}
			if !acquired {
				return ErrRunInProgress
			}

			result, err = e.run(ctx, txStore, now)
			return err
		})
	if err != nil {
		if errors.Is(err, ErrRunInProgress) {
			log.Info("recurrence run skipped, another run holds the lock")
			return nil, ErrRunInProgress
		}
		log.Error("recurrence run failed", "error", redact.Error(err))
		return nil, fmt.Errorf("recurrence run: %w", err)
	}

	result.Duration = time.Since(started)
	log.Info("recurrence run completed",
		"policy", e.policy,
		"considered", result.Considered,
		"generated", len(result.Generated),
		"already_regenerated", result.AlreadyRegenerated,
		"skipped", len(result.Skipped),
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

func (e *Engine) run(ctx context.Context, txStore store.TaskStore, now time.Time) (*RunResult, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	// Under the mark policy only unmarked sources are read and locked;
	// marked ones are just counted.
	markPolicy := e.policy == PolicyMarkRegenerated
	sources, err := txStore.ListCompletedRecurring(ctx, markPolicy)
	if err != nil {
		return nil, fmt.Errorf("list completed recurring tasks: %w", err)
	}

	result := &RunResult{
		Generated: make([]uuid.UUID, 0, len(sources)),
		Skipped:   []SkippedTask{},
	}
	if markPolicy {
		result.AlreadyRegenerated, err = txStore.CountRegeneratedRecurring(ctx)
		if err != nil {
			return nil, fmt.Errorf("count regenerated tasks: %w", err)
		}
	}

	generated := make([]*domain.Task, 0, len(sources))
	regenerated := make([]uuid.UUID, 0, len(sources))
	for _, source := range sources {
		if markPolicy && source.RegeneratedAt != nil {
			result.AlreadyRegenerated++
			continue
		}

		next, err := nextOccurrence(source, now)
		if err != nil {
			log.Warn("skipping recurring task",
				"task_id", source.ID,
				redact.Attr(err))
			result.Skipped = append(result.Skipped, SkippedTask{TaskID: source.ID, Reason: err.Error()})
			continue
		}

		generated = append(generated, next)
		regenerated = append(regenerated, source.ID)
		result.Generated = append(result.Generated, next.ID)
	}
	result.Considered = len(sources) + result.AlreadyRegenerated

	if err := txStore.BatchCreate(ctx, generated); err != nil {
		return nil, fmt.Errorf("store generated tasks: %w", err)
	}

	if markPolicy {
		if err := txStore.MarkRegenerated(ctx, regenerated, now); err != nil {
			return nil, fmt.Errorf("mark sources regenerated: %w", err)
		}
	}

	return result, nil
}

// nextOccurrence builds the occurrence following source and validates it,
// so a source with stored values the domain no longer accepts is skipped
// instead of failing the batch insert.
func nextOccurrence(source *domain.Task, now time.Time) (*domain.Task, error) {
	next, err := domain.NextOccurrence(source, now)
	if err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("task %s: %w", source.ID, err)
	}
	return next, nil
}
