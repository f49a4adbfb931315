package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"backend-tracksmith/internal/config"
	"backend-tracksmith/internal/db"
	"backend-tracksmith/internal/filter"
	"backend-tracksmith/internal/server"
	"backend-tracksmith/internal/source"
	"backend-tracksmith/internal/tracking"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	pg, err := deps.connectPostgres(cfg)
	if err != nil {
		logger.Warn("postgres connection failed, archive disabled", "error", err)
	}

	rdb := deps.connectRedis(cfg)

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, signals, nil); err != nil {
		logger.Error("server exited with error", "error", err)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// buildSource picks the position source named by SOURCE_DRIVER. An empty
// driver or "none" disables the built-in collector.
func buildSource(cfg config.Config) (source.Source, error) {
	switch strings.ToLower(cfg.SourceDriver) {
	case "", "none":
		return nil, nil
	case "gpsd":
		return &source.GPSD{Addr: cfg.GPSDAddr}, nil
	case "serial", "nmea":
		return &source.Serial{Port: cfg.SerialPort, Baud: cfg.SerialBaud}, nil
	case "replay":
		if cfg.ReplayPath == "" {
			return nil, errors.New("replay source needs REPLAY_PATH")
		}
		return &source.Replay{Path: cfg.ReplayPath, Speed: cfg.ReplaySpeed}, nil
	case "simulator":
		return &source.Simulator{
			StartLat: cfg.SimStartLat,
			StartLon: cfg.SimStartLon,
			SpeedMS:  cfg.SimSpeedMps,
			Interval: time.Duration(cfg.SimIntervalMS) * time.Millisecond,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.SourceDriver)
	}
}

// startCollector opens the configured position source and pumps its fixes
// into a dedicated device session.
func startCollector(ctx context.Context, cfg config.Config, srv *server.Server, logger *slog.Logger) {
	src, err := buildSource(cfg)
	if err != nil {
		logger.Error("position source unavailable", "driver", cfg.SourceDriver, "error", err)
		return
	}
	if src == nil {
		return
	}

	session := srv.Track.StartSession(tracking.Session{Label: "device:" + src.Name()})
	logger.Info("collector started", "driver", src.Name(), "session", session.ID)

	onFix := func(fix filter.Fix) {
		if _, err := srv.Track.ProcessFix(session.ID, tracking.PointFromFix(fix)); err != nil {
			logger.Error("fix dropped", "session", session.ID, "error", err)
		}
	}
	onFailure := func(f source.Failure) {
		if err := srv.Track.ReportFailure(session.ID, f.Kind.String(), f.Message); err != nil {
			logger.Error("failure dropped", "session", session.ID, "error", err)
		}
	}
	go source.Pump(ctx, src, logger, onFix, onFailure)
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and the collector, then waits for termination
// signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, signals <-chan os.Signal, listen ListenFunc) error {
	logger := newLogger(cfg.LogLevel)
	srv := server.NewServer(cfg, pg, rdb, logger)

	if listen == nil {
		listen = defaultListen
	}

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()
	startCollector(pumpCtx, cfg, srv, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	stopPump()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdownFn(srv.App, shutdownCtx); err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	srv.Pub.Close()
	return nil
}
