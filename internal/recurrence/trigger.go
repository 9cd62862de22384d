package recurrence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/redact"
	"github.com/robfig/cron/v3"
)

// Runner performs a single recurrence run. *Engine implements Runner.
type Runner interface {
	Run(ctx context.Context, now time.Time) (*RunResult, error)
}

// CronTrigger fires a Runner once a day at a fixed wall-clock time.
// A firing that comes due while the previous one is still running is
// dropped.
type CronTrigger struct {
	runner Runner
	cron   *cron.Cron
	entry  cron.EntryID
	logger *slog.Logger
	ctx    context.Context
	now    func() time.Time
}

// NewCronTrigger schedules runner according to cfg. The context is the
// parent of every run with its cancellation removed, so stopping the server
// never interrupts a run midway.
func NewCronTrigger(
	ctx context.Context,
	runner Runner,
	cfg config.RecurrenceConfig,
	logger *slog.Logger,
) (*CronTrigger, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	spec, err := dailySpec(cfg.Hour, cfg.Minute)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "recurrence_trigger")
	cronLog := cronLogger{logger: log}
	t := &CronTrigger{
		runner: runner,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		logger: log,
		ctx:    context.WithoutCancel(ctx),
		now:    func() time.Time { return time.Now().UTC() },
	}

	t.entry, err = t.cron.AddFunc(spec, t.fire)
	if err != nil {
		return nil, fmt.Errorf("schedule recurrence run: %w", err)
	}

	log.Info("recurrence run scheduled",
		"spec", spec,
		"timezone", loc.String())
	return t, nil
}

// Start begins firing in a background goroutine.
func (t *CronTrigger) Start() {
	t.cron.Start()
}

// Stop stops the schedule and waits for an in-flight run to finish or for
// ctx to expire, whichever comes first.
func (t *CronTrigger) Stop(ctx context.Context) error {
	done := t.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports the next scheduled firing time.
func (t *CronTrigger) Next(after time.Time) time.Time {
	return t.cron.Entry(t.entry).Schedule.Next(after)
}

func (t *CronTrigger) fire() {
	result, err := t.runner.Run(t.ctx, t.now())
	switch {
	case errors.Is(err, ErrRunInProgress):
		t.logger.Info("scheduled recurrence run skipped, another run is active")
	case err != nil:
		t.logger.Error("scheduled recurrence run failed", redact.Attr(err))
	default:
		t.logger.Info("scheduled recurrence run finished",
			"generated", len(result.Generated),
			"skipped", len(result.Skipped))
	}
}

// dailySpec builds a six-field cron spec: second minute hour dom month dow.
func dailySpec(hour, minute int) (string, error) {
	if hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %d", hour)
	}
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %d", minute)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{redact.Attr(err)}, keysAndValues...)...)
}
