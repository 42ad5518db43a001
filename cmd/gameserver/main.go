// Package main provides the room engine binary: it loads content catalogs and
// room rule documents, wires the trigger executor, scheduler, scripting, and
// world tick systems, and runs them until terminated.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hollowvale/mud/internal/config"
	"github.com/hollowvale/mud/internal/content"
	"github.com/hollowvale/mud/internal/game/event"
	"github.com/hollowvale/mud/internal/game/rng"
	"github.com/hollowvale/mud/internal/game/room"
	"github.com/hollowvale/mud/internal/game/rules"
	"github.com/hollowvale/mud/internal/game/tick"
	"github.com/hollowvale/mud/internal/observability"
	"github.com/hollowvale/mud/internal/scheduler"
	"github.com/hollowvale/mud/internal/scripting"
	"github.com/hollowvale/mud/internal/server"
	"github.com/hollowvale/mud/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewEngineLogger(cfg.Logging, cfg.Server.Name)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	// Load content catalogs.
	catalogStart := time.Now()
	store, err := content.Load(cfg.Engine.CatalogsDir)
	if err != nil {
		logger.Fatal("loading content catalogs", zap.Error(err))
	}
	animations, err := content.LoadAnimations(filepath.Join(cfg.Engine.CatalogsDir, "animations.yaml"))
	if err != nil {
		logger.Fatal("loading animation catalog", zap.Error(err))
	}
	logger.Info("content catalogs loaded",
		zap.Int("animation_routines", len(animations.Routines)),
		zap.Duration("elapsed", time.Since(catalogStart)),
	)

	// Load room rule documents.
	ruleStart := time.Now()
	defs, err := rules.LoadRoomsFromDir(cfg.Engine.RoomsDir)
	if err != nil {
		logger.Fatal("loading room rule documents", zap.Error(err))
	}
	set := rules.NewSet(defs)
	logger.Info("room rules loaded",
		zap.Int("rooms", set.Len()),
		zap.Duration("elapsed", time.Since(ruleStart)),
	)

	// Connect to PostgreSQL for player and tick-state persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	playerRepo := postgres.NewPlayerRepository(pool.DB())
	tickRepo := postgres.NewTickStateRepository(pool.DB())

	sched := scheduler.New(logger)

	registry := room.NewRegistry(set, store)
	matcher := rules.NewMatcher(store, store)
	exec := rules.NewExecutor(store, store, store, registry, rng.NewCryptoSource(), logger)

	// Event delivery is the transport layer's concern; this binary logs what
	// the engine produces.
	deliver := newEventLogger(logger)

	animation := tick.NewAnimationSystem(
		buildRoutines(animations, store, logger),
		buildNotices(animations, store),
		tickRepo,
		logger,
	)
	if err := animation.Resume(ctx); err != nil {
		logger.Fatal("resuming animation state", zap.Error(err))
	}

	spells := tick.NewSpellSystem(playerRepo, logger)

	// Initialise scripting.
	var scriptMgr *scripting.Manager
	var hooks room.HookRunner
	if cfg.Engine.ScriptRoot != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(logger)
		if info, statErr := os.Stat(cfg.Engine.ScriptRoot); statErr == nil && info.IsDir() {
			if err := scriptMgr.LoadRoot(cfg.Engine.ScriptRoot, cfg.Engine.ScriptInstructionLimit); err != nil {
				logger.Fatal("loading room scripts",
					zap.String("root", cfg.Engine.ScriptRoot), zap.Error(err))
			}
		} else {
			logger.Warn("script root not found, scripting disabled",
				zap.String("root", cfg.Engine.ScriptRoot))
			scriptMgr = nil
		}
		if scriptMgr != nil {
			scriptMgr.RoomState = registry.StateValue
			scriptMgr.AddRoomState = registry.AddState
			// The animation system runs on the scheduler loop; funnel flag
			// arming through it rather than mutating from the hook caller.
			scriptMgr.SetWorldFlag = func(name string) {
				sched.Schedule(0, func() { animation.SetFlag(name) })
			}
			scriptMgr.Broadcast = func(roomID, msg string) {
				list := &event.List{}
				list.Emit(event.Event{Scope: event.ScopeRoom, Name: "message", RoomID: roomID, Text: msg})
				deliver(list)
			}
			hooks = scriptMgr
			logger.Info("scripting engine initialized",
				zap.Duration("elapsed", time.Since(scriptStart)))
		}
	}

	coordinator := room.NewCoordinator(set, registry, matcher, exec, sched, hooks, logger)

	// Register tick jobs.
	adapter := tick.NewAdapter(sched, cfg.Engine.TickDuration, logger)
	if err := adapter.RegisterJob("animation", cfg.Engine.AnimationTicks, func() {
		deliver(animation.Tick(ctx))
	}); err != nil {
		logger.Fatal("registering animation job", zap.Error(err))
	}
	if err := adapter.RegisterJob("spells", cfg.Engine.SpellTicks, func() {
		deliver(spells.Tick(ctx))
	}); err != nil {
		logger.Fatal("registering spell job", zap.Error(err))
	}

	// Wire lifecycle.
	lifecycle := server.NewLifecycle(logger)

	schedCtx, schedCancel := context.WithCancel(ctx)
	lifecycle.Add("scheduler", &server.FuncService{
		StartFn: func() error {
			sched.Start(schedCtx)
			<-schedCtx.Done()
			return nil
		},
		StopFn: func() {
			adapter.Stop()
			schedCancel()
			sched.Stop()
		},
	})

	if scriptMgr != nil {
		lifecycle.Add("scripting", &server.FuncService{
			StartFn: func() error { return nil },
			StopFn:  scriptMgr.Close,
		})
	}

	// SIGHUP reloads the room rule documents without disturbing live room
	// state or timers.
	lifecycle.Add("reload", &server.FuncService{
		StartFn: func() error {
			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			for {
				select {
				case <-schedCtx.Done():
					return nil
				case <-hup:
				}
				fresh, err := rules.LoadRoomsFromDir(cfg.Engine.RoomsDir)
				if err != nil {
					logger.Error("reloading room rule documents", zap.Error(err))
					continue
				}
				coordinator.Reload(fresh)
			}
		},
		StopFn: func() {},
	})

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			pool.HealthLoop(schedCtx, 30*time.Second, logger)
			return nil
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("room engine initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Duration("tick", cfg.Engine.TickDuration),
		zap.Strings("jobs", adapter.Jobs()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// buildRoutines converts the animation catalog into the tick rotation. Every
// routine message must resolve against the message catalog; a missing
// template is a content error caught at startup.
func buildRoutines(a content.Animations, store *content.Store, logger *zap.Logger) []tick.Routine {
	routines := make([]tick.Routine, 0, len(a.Routines))
	for _, r := range a.Routines {
		text, ok := store.Message(r.Message)
		if !ok {
			logger.Fatal("animation routine references unknown message",
				zap.String("routine", r.Name),
				zap.String("message", r.Message),
			)
		}
		msgID := r.Message
		routines = append(routines, tick.Routine{
			Name: r.Name,
			Run: func(events *event.List) {
				ev := event.System(text)
				ev.MessageID = msgID
				events.Emit(ev)
			},
		})
	}
	return routines
}

// buildNotices converts the catalog's flag entries to notices. A flag message
// that resolves against the catalog carries both id and text; otherwise the
// id alone is passed through for the transport to resolve.
func buildNotices(a content.Animations, store *content.Store) map[string]tick.FlagNotice {
	notices := make(map[string]tick.FlagNotice, len(a.Flags))
	for _, f := range a.Flags {
		notice := tick.FlagNotice{MessageID: f.Message, RoomID: f.Room}
		if text, ok := store.Message(f.Message); ok {
			notice.Text = text
		}
		notices[f.Name] = notice
	}
	return notices
}

// newEventLogger returns a delivery function that logs each produced event.
func newEventLogger(logger *zap.Logger) func(*event.List) {
	return func(list *event.List) {
		for _, ev := range list.Events() {
			logger.Info("event",
				zap.String("scope", string(ev.Scope)),
				zap.String("name", ev.Name),
				zap.String("room", ev.RoomID),
				zap.String("player", ev.Player),
				zap.String("text", ev.Text),
			)
		}
	}
}
