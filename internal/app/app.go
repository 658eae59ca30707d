package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"roomkeeper/internal/config"
	"roomkeeper/internal/eventbus"
	"roomkeeper/internal/platform"
	"roomkeeper/internal/rooms"
	"roomkeeper/internal/schedule"
	"roomkeeper/internal/state"
	"roomkeeper/internal/store"
	"roomkeeper/internal/tasks"
	logx "roomkeeper/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *ConfigManager
	sup  *Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store store.Store

	client platform.Client
	cache  *state.Cache
	rooms  *rooms.Controller
	runner *tasks.Runner
	engine *schedule.Engine

	events chan platform.Event
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	client, err := platform.Connect(cfg.Platform.Driver, platform.Config{
		Token:       cfg.Platform.Token,
		EventBuffer: cfg.Platform.EventBuffer,
	})
	if err != nil {
		return nil, err
	}

	// Logging service mapping.
	// logx.New() calls Apply() immediately; bootstrap with the platform sink
	// disabled, set the target room, then Apply() the final config.
	baseLogCfg := mapLoggingConfig(cfg, false)
	logSvc, log := logx.New(baseLogCfg, client)
	log = log.With(logx.String("comp", "app"))

	logSvc.SetLogRoom(cfg.Platform.LogRoomID)
	logSvc.Apply(mapLoggingConfig(cfg, cfg.Logging.Platform.Enabled))

	bus := eventbus.New()

	sc, err := mapStoreConfig(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(sc, log.With(logx.String("comp", "store")))
	if err != nil {
		return nil, err
	}
	log.Info("store opened", logx.String("driver", sc.Driver), logx.String("path", sc.Path))

	cache := state.NewCache()

	roomCtl := rooms.NewController(client, st, cache, bus, log,
		rooms.WithPrompts(cfg.Rooms.PromptsEnabled))

	runner := tasks.NewRunner(client, st, log)

	loc := time.UTC
	if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("scheduler.timezone: invalid %q: %w", tz, err)
		}
	}
	engine := schedule.NewEngine(st, runner, bus, log, schedule.WithLocation(loc))

	eventBuf := cfg.Platform.EventBuffer
	if eventBuf <= 0 {
		eventBuf = 256
	}

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   st,
		client:  client,
		cache:   cache,
		rooms:   roomCtl,
		runner:  runner,
		engine:  engine,
		events:  make(chan platform.Event, eventBuf),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

// ReloadSchedules asks the schedule engine to re-read the stored schedules.
func (a *App) ReloadSchedules() {
	a.bus.Publish(eventbus.Event{Type: eventbus.TypeScheduleReload, Time: time.Now()})
}

func (a *App) Start(ctx context.Context) error {
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))

	// transactional config reload: validate before commit/publish
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *Config) error {
		if err := config.ApplyEnv(cfg); err != nil {
			return err
		}
		if err := config.Validate(cfg); err != nil {
			return err
		}
		if tz := strings.TrimSpace(cfg.Scheduler.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("scheduler.timezone: invalid %q: %w", tz, err)
			}
		}
		_, err := mapStoreConfig(cfg)
		return err
	})

	if err := a.client.Start(a.sup.Context(), a.events); err != nil {
		return err
	}

	cfg := a.cfgm.Get()
	if cfg.Rooms.WarmUpOnStart {
		a.rooms.WarmUp(a.sup.Context())
	}

	a.sup.Go0("platform.dispatch", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case ev, ok := <-a.events:
				if !ok {
					return
				}
				if ev.Kind == platform.EventPresence && ev.Presence != nil {
					a.rooms.HandlePresence(c, *ev.Presence)
				}
			}
		}
	})

	if cfg.Scheduler.Enabled {
		a.sup.GoRestart("schedule.engine", a.engine.Run)
	} else {
		a.log.Info("scheduler disabled")
	}

	// Log bus events for observability; components also subscribe themselves.
	events, unsub := a.bus.Subscribe(128)
	a.sup.Go0("eventbus.log", func(c context.Context) {
		defer unsub()
		for {
			select {
			case <-c.Done():
				return
			case e, ok := <-events:
				if !ok {
					return
				}
				a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))
			}
		}
	})

	// hot reload config fan-out
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				sections, attrs := SummarizeConfigChange(lastApplied, newCfg)
				if len(sections) == 0 {
					a.log.Debug("config reload received, but no effective changes detected")
					lastApplied = newCfg
					continue
				}
				a.applyConfig(lastApplied, newCfg, sections)
				lastApplied = newCfg

				fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
				a.log.Info("config reloaded", fields...)
				a.bus.Publish(eventbus.Event{Type: eventbus.TypeConfigApplied, Time: time.Now()})
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started", logx.String("platform", cfg.Platform.Driver))
	return nil
}

// applyConfig applies a validated config hot-reload. Logging changes take
// effect live; the rest of the stack needs a restart and only gets a warning.
func (a *App) applyConfig(old, cfg *Config, sections []string) {
	for _, s := range sections {
		switch s {
		case "logging":
			// applied below
		case "platform":
			// the log room retargets live; driver/token changes do not
			if old.Platform.Driver != cfg.Platform.Driver || old.Platform.Token != cfg.Platform.Token {
				a.log.Warn("platform connection config changed; restart required for changes to take effect")
			}
		case "scheduler":
			a.log.Warn("scheduler config changed; restart required for changes to take effect")
		case "rooms":
			a.rooms.SetPrompts(cfg.Rooms.PromptsEnabled)
		default:
			a.log.Warn("config section changed; restart required for changes to take effect",
				logx.String("section", s))
		}
	}

	a.logs.SetLogRoom(cfg.Platform.LogRoomID)
	a.logs.Apply(mapLoggingConfig(cfg, cfg.Logging.Platform.Enabled))
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// First, cancel the app run context so background loops start unwinding immediately.
	a.sup.Cancel()

	// Helper: run a shutdown step with an upper bound so one component can't
	// stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()
		a.log.Debug("stop step begin", logx.String("name", name), logx.Duration("max", max))

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.String("err", err.Error()))
			}
			took := time.Since(start)
			if took >= 500*time.Millisecond {
				a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
			} else {
				a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
			}
		case <-stepCtx.Done():
			// Contract: fn MUST honor stepCtx and return promptly. If it doesn't, log a leak signal.
			elapsed := time.Since(start)
			a.log.Warn(
				"stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.String("err", stepCtx.Err().Error()),
				logx.Duration("elapsed", elapsed),
			)
			go func() {
				err := <-done
				took := time.Since(start)
				if err != nil {
					a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.String("err", err.Error()), logx.Duration("took", took))
				} else {
					a.log.Info("stop step finished after deadline", logx.String("name", name), logx.Duration("took", took))
				}
			}()
		}
	}

	// Gateway first so no new events arrive, then the supervised loops, then
	// the store they write to.
	step("platform", 2*time.Second, func(c context.Context) error { return a.client.Stop(c) })
	step("supervisor", 3*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("store", 1*time.Second, func(c context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}

func mapLoggingConfig(cfg *Config, platformSink bool) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Platform: logx.PlatformConfig{
			Enabled:    platformSink,
			MinLevel:   cfg.Logging.Platform.MinLevel,
			RatePerSec: cfg.Logging.Platform.RatePerSec,
		},
	}
}

func mapStoreConfig(cfg *Config) (store.Config, error) {
	busy, err := parseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, time.Second)
	if err != nil {
		return store.Config{}, err
	}
	return store.Config{
		Driver:      strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)),
		Path:        strings.TrimSpace(cfg.Storage.Path),
		BusyTimeout: busy,
	}, nil
}
