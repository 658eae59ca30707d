// Package schedule drives the stored cron schedules: it computes the next
// fire time across all enabled schedules, sleeps until then, and hands the
// due schedules to the task runner. A reload event re-reads the store
// immediately, so schedule edits take effect without a restart.
package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/samber/lo"

	"roomkeeper/internal/eventbus"
	"roomkeeper/internal/store"
	logx "roomkeeper/pkg/logx"
)

// loadRetryDelay is how long the engine waits before retrying after the
// schedule store fails to load.
const loadRetryDelay = 60 * time.Second

// TaskRunner executes one schedule's task.
type TaskRunner interface {
	Run(ctx context.Context, sched store.Schedule) error
}

// ScheduleStore is the slice of the store the engine needs.
type ScheduleStore interface {
	Schedules(ctx context.Context) ([]store.Schedule, error)
}

type Engine struct {
	store  ScheduleStore
	runner TaskRunner
	bus    eventbus.Bus
	log    logx.Logger

	parser cron.Parser
	loc    *time.Location
	now    func() time.Time
}

type Option func(*Engine)

// WithLocation sets the timezone cron expressions are evaluated in.
// Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(st ScheduleStore, runner TaskRunner, bus eventbus.Bus, log logx.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		runner: runner,
		bus:    bus,
		log:    log.With(logx.String("component", "schedule")),
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run executes the engine loop until ctx is canceled. Every iteration
// re-reads the schedule store, so a reload signal only has to break the
// current wait.
func (e *Engine) Run(ctx context.Context) error {
	reload, unsubscribe := e.bus.Subscribe(1, eventbus.TypeScheduleReload)
	defer unsubscribe()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		scheds, err := e.store.Schedules(ctx)
		if err != nil {
			e.log.Error("schedule load failed", logx.Err(err),
				logx.Duration("retry_in", loadRetryDelay))
			if !e.wait(ctx, reload, loadRetryDelay) {
				return ctx.Err()
			}
			continue
		}

		enabled := lo.Filter(scheds, func(s store.Schedule, _ int) bool { return s.Enabled })
		due, fireAt, ok := e.nextDue(enabled)
		if !ok {
			// Nothing runnable: block until a reload or shutdown.
			e.log.Info("no enabled schedules, waiting for reload")
			if !e.waitReload(ctx, reload) {
				return ctx.Err()
			}
			continue
		}

		e.log.Debug("next fire computed",
			logx.Time("at", fireAt), logx.Int("schedules", len(due)))
		if !e.wait(ctx, reload, fireAt.Sub(e.now())) {
			return ctx.Err()
		}
		// wait returns true on reload too; only run when the time is up.
		if e.now().Before(fireAt) {
			continue
		}

		for _, s := range due {
			e.runOne(ctx, s)
		}
	}
}

// nextDue finds the earliest upcoming fire time among the given schedules
// and returns every schedule due at that instant, ordered by id. Schedules
// with invalid cron expressions are logged and skipped.
func (e *Engine) nextDue(scheds []store.Schedule) ([]store.Schedule, time.Time, bool) {
	now := e.now().In(e.loc)

	var (
		earliest time.Time
		due      []store.Schedule
	)
	for _, s := range scheds {
		sched, err := e.parser.Parse(s.CronExpr)
		if err != nil {
			e.log.Warn("invalid cron expression, skipping schedule",
				logx.Int64("schedule_id", s.ID), logx.String("expr", s.CronExpr), logx.Err(err))
			continue
		}
		next := sched.Next(now)
		if next.IsZero() {
			continue
		}
		switch {
		case earliest.IsZero() || next.Before(earliest):
			earliest = next
			due = append(due[:0], s)
		case next.Equal(earliest):
			due = append(due, s)
		}
	}
	if len(due) == 0 {
		return nil, time.Time{}, false
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ID < due[j].ID })
	return due, earliest, true
}

func (e *Engine) runOne(ctx context.Context, s store.Schedule) {
	start := e.now()
	log := e.log.With(
		logx.Int64("schedule_id", s.ID),
		logx.String("task", s.TaskType),
		logx.Int64("guild_id", s.GuildID),
	)
	log.Info("running scheduled task")
	if err := e.runner.Run(ctx, s); err != nil {
		log.Error("scheduled task failed", logx.Err(err), logx.Duration("took", e.now().Sub(start)))
		return
	}
	log.Info("scheduled task done", logx.Duration("took", e.now().Sub(start)))
}

// wait sleeps for d, waking early on a reload event. It reports false when
// ctx is done or the reload channel is closed.
func (e *Engine) wait(ctx context.Context, reload <-chan eventbus.Event, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case _, ok := <-reload:
		if ok {
			e.log.Debug("reload signal received")
		}
		return ok
	case <-ctx.Done():
		return false
	}
}

// waitReload blocks until a reload event arrives.
func (e *Engine) waitReload(ctx context.Context, reload <-chan eventbus.Event) bool {
	select {
	case _, ok := <-reload:
		if ok {
			e.log.Debug("reload signal received")
		}
		return ok
	case <-ctx.Done():
		return false
	}
}
