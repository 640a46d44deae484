package main

import (
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/Baguette21/ECTrivia/database"
	"github.com/Baguette21/ECTrivia/internal/channels"
	"github.com/Baguette21/ECTrivia/internal/handlers"
	"github.com/Baguette21/ECTrivia/internal/queue"
	"github.com/Baguette21/ECTrivia/internal/store"
	"github.com/Baguette21/ECTrivia/pkg/common/env"
)

type Application struct {
	cfg      *Config
	logger   *slog.Logger
	st       store.Store
	registry *channels.Registry
	handlers *handlers.HandlerRepo
}

type Config struct {
	Port        int
	RoomGrace   time.Duration
	DatabaseURL string
	AmqpURL     string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{
		Port:        env.GetInt("PORT", 8080),
		RoomGrace:   env.GetDuration("ROOM_GRACE_PERIOD", 5*time.Minute),
		DatabaseURL: env.GetString("DATABASE_URL", ""),
		AmqpURL:     env.GetString("AMQP_URL", ""),
	}

	slogHandler := tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug})
	logger := slog.New(slogHandler)
	slog.SetDefault(logger)

	// Without a DATABASE_URL the service runs on the in-memory store,
	// which is enough for local play.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPool(cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		st = store.NewPostgresStore(pool, logger)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory store")
		st = store.NewMemoryStore()
	}

	var pub channels.Publisher = queue.NopPublisher{}
	if cfg.AmqpURL != "" {
		rp, err := queue.NewRabbitPublisher(cfg.AmqpURL, logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer rp.Close()
		pub = rp
	} else {
		logger.Warn("AMQP_URL not set, events will not be published")
	}

	registry := channels.NewRegistry(st, pub, logger, cfg.RoomGrace)
	handlerRepo := handlers.NewHandlerRepo(logger, registry, st)

	app := &Application{
		cfg:      cfg,
		logger:   logger,
		st:       st,
		registry: registry,
		handlers: handlerRepo,
	}

	if err := app.run(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
