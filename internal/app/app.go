// Package app wires the store simulation, logging router, and websocket
// transport into one runnable server.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"dodge-and-deal/server/internal/ai"
	"dodge-and-deal/server/internal/config"
	"dodge-and-deal/server/internal/grid"
	"dodge-and-deal/server/internal/net/proto"
	"dodge-and-deal/server/internal/net/ws"
	"dodge-and-deal/server/internal/sim"
	"dodge-and-deal/server/internal/telemetry"
	"dodge-and-deal/server/logging"
	"dodge-and-deal/server/logging/sinks"
)

type Config struct {
	ConfigPath string
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
}

// Run composes the server and blocks until ctx is cancelled or the listener
// fails.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.WrapLogger(log.Default())
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}

	fileCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	router, err := buildRouter(fileCfg.Logging)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		if cerr := router.Close(context.Background()); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	world := sim.NewWorld(sim.Config{
		Seed:      fileCfg.Server.Seed,
		Publisher: router,
		Tuning:    tuningFromConfig(fileCfg.Tuning),
		Spawn: sim.SpawnConfig{
			Enabled:        fileCfg.Spawn.Enabled,
			MinInterval:    fileCfg.Spawn.MinInterval,
			MaxInterval:    fileCfg.Spawn.MaxInterval,
			ThiefChance:    fileCfg.Spawn.ThiefChance,
			LittererChance: fileCfg.Spawn.LittererChance,
			MaxCustomers:   fileCfg.Spawn.MaxCustomers,
			BanDuration:    fileCfg.Spawn.BanDuration,
		},
	})

	hub := ws.NewHub(standardLogger(logger))
	loop := sim.NewLoop(world, router, func(snapshot sim.Snapshot) {
		message := proto.StateMessage{Ver: proto.ProtocolVersion, Type: proto.TypeState, State: snapshot}
		data, err := json.Marshal(message)
		if err != nil {
			logger.Printf("failed to marshal snapshot: %v", err)
			return
		}
		hub.Broadcast(data)
		metrics.RecordBroadcast(len(data), len(snapshot.Customers))
	})
	loop.OnTick(metrics.RecordTick)

	handler, err := ws.NewHandler(hub, loop, mapMessage(world), standardLogger(logger))
	if err != nil {
		return fmt.Errorf("construct websocket handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.Handle)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: fileCfg.Server.BindAddress, Handler: mux}

	loopCtx, cancelLoop := context.WithCancel(ctx)
	defer cancelLoop()
	go func() {
		if err := loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("simulation loop stopped: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(fileCfg.Server.ShutdownTimeout))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}

func buildRouter(cfg config.LoggingConfig) (*logging.Router, error) {
	logCfg := logging.DefaultConfig()
	if len(cfg.Sinks) > 0 {
		logCfg.EnabledSinks = cfg.Sinks
	}
	logCfg.MinimumSeverity = parseSeverity(cfg.Level)

	named := make([]logging.NamedSink, 0, len(logCfg.EnabledSinks))
	for _, name := range logCfg.EnabledSinks {
		switch name {
		case "console":
			named = append(named, logging.NamedSink{
				Name: "console",
				Sink: sinks.NewConsoleSink(os.Stdout, logCfg.Console),
			})
		case "json":
			writer := os.Stdout
			if cfg.JSONPath != "" {
				f, err := os.OpenFile(cfg.JSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return nil, fmt.Errorf("open json log %s: %w", cfg.JSONPath, err)
				}
				writer = f
			}
			named = append(named, logging.NamedSink{
				Name: "json",
				Sink: sinks.NewJSON(writer, logCfg.JSON.FlushInterval),
			})
		case "memory":
			named = append(named, logging.NamedSink{
				Name: "memory",
				Sink: sinks.NewMemorySink(),
			})
		}
	}
	return logging.NewRouter(nil, logCfg, named)
}

func parseSeverity(level string) logging.Severity {
	switch level {
	case "debug":
		return logging.SeverityDebug
	case "warn":
		return logging.SeverityWarn
	case "error":
		return logging.SeverityError
	default:
		return logging.SeverityInfo
	}
}

func tuningFromConfig(cfg config.TuningConfig) ai.Tuning {
	tuning := ai.DefaultTuning()
	if cfg.StuckRecomputeAfter > 0 {
		tuning.StuckRecomputeAfter = cfg.StuckRecomputeAfter
	}
	if cfg.StuckEpsilonTiles > 0 {
		tuning.StuckEpsilon = cfg.StuckEpsilonTiles * grid.TileSize
	}
	if cfg.RecomputeTiles > 0 {
		tuning.RecomputeDistance = cfg.RecomputeTiles * grid.TileSize
	}
	if cfg.WaypointTiles > 0 {
		tuning.WaypointThreshold = cfg.WaypointTiles * grid.TileSize
	}
	if cfg.PhaseTiles > 0 {
		tuning.PhaseAmount = cfg.PhaseTiles * grid.TileSize
	}
	if cfg.RadiusFloorFraction > 0 {
		tuning.RadiusFloorFraction = cfg.RadiusFloorFraction
	}
	return tuning
}

func mapMessage(w *sim.World) proto.MapMessage {
	return proto.MapMessage{
		Ver:      proto.ProtocolVersion,
		Type:     proto.TypeMap,
		TileSize: grid.TileSize,
		Cols:     w.Grid().Cols(),
		Rows:     w.Grid().Rows(),
		Layout:   w.Layout(),
	}
}

func standardLogger(logger telemetry.Logger) *log.Logger {
	if provider, ok := logger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			return candidate
		}
	}
	return log.Default()
}
