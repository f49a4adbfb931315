package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"backend-tracksmith/internal/archive"
	"backend-tracksmith/internal/auth"
	"backend-tracksmith/internal/config"
	"backend-tracksmith/internal/filter"
	"backend-tracksmith/internal/metrics"
	"backend-tracksmith/internal/mqtt"
	"backend-tracksmith/internal/stream"
	"backend-tracksmith/internal/tracking"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Hub     *stream.Hub
	Metrics *metrics.Metrics
	Track   *tracking.Service
	Pub     *mqtt.Publisher
	Log     *slog.Logger
}

// NewServer wires the full API. db and redisClient may be nil; the archive
// and cross-instance fan-out degrade gracefully without them.
func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	m := metrics.New()
	hub := stream.NewHub(redisClient, log)

	pub := mqtt.NewPublisher(mqtt.Config{
		Enabled:     cfg.MQTTEnabled,
		Broker:      cfg.MQTTBroker,
		Port:        cfg.MQTTPort,
		ClientID:    cfg.MQTTClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		TopicPrefix: cfg.MQTTTopicPrefix,
		QoS:         cfg.MQTTQoS,
		Retain:      cfg.MQTTRetain,
	}, log)
	if err := pub.Connect(); err != nil {
		log.Warn("mqtt connect failed, events stay local", "error", err)
	}

	var arch *archive.Service
	if db != nil {
		arch = archive.NewService(db)
	}

	filterCfg := filter.DefaultConfig()
	filterCfg.RadianHeadings = cfg.RadianHeadings

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Hub:     hub,
		Metrics: m,
		Track:   tracking.NewService(filterCfg, hub, pub, m, arch, log),
		Pub:     pub,
		Log:     log,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.App.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Track, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Hub)
}
