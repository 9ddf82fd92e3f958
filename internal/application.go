package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-wager/internal/config"
	"github.com/rocketscienceinc/tictactoe-wager/internal/events"
	"github.com/rocketscienceinc/tictactoe-wager/internal/repository"
	"github.com/rocketscienceinc/tictactoe-wager/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-wager/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-wager/transport/rest"
	"github.com/rocketscienceinc/tictactoe-wager/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, err := newStore(ctx, log, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = store.Close(); err != nil {
			log.Error("could not close store", "error", err)
		}
	}()

	publishers := &events.Fanout{}

	if conf.NATS.URL != "" {
		conn, err := events.ConnectNATS(events.NATSOptions{URL: conf.NATS.URL, Token: conf.NATS.Token})
		if err != nil {
			return fmt.Errorf("could not connect to nats: %w", err)
		}
		defer conn.Close()

		*publishers = append(*publishers, events.NewNATSPublisher(conn, conf.NATS.Subject))
		log.Info("Publishing game events to NATS", "subject", conf.NATS.Subject)
	}

	engine := usecase.NewGameEngine(logger, store, publishers, conf.Stake.Max)
	leaderboard := usecase.NewLeaderboard(logger, store)

	// the hub reads snapshots from the engine and receives its events
	hub := websocket.NewHub(logger, engine, conf.CORS.AllowedOrigins)
	defer hub.Close()

	*publishers = append(*publishers, hub)

	router := rest.NewRouter(logger, engine, leaderboard, hub, rest.Options{
		RateLimit:      conf.RateLimit.Requests,
		RateWindow:     conf.RateLimit.Window,
		AllowedOrigins: conf.CORS.AllowedOrigins,
	})

	log.Info("Starting HTTP server", "port", conf.HTTPPort)
	if err = rest.Start(ctx, conf.HTTPPort, router); err != nil {
		return fmt.Errorf("HTTP server error: %w", err)
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

func newStore(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.Store, error) {
	if conf.Store.Driver == config.DriverMemory {
		log.Warn("Using in-memory store, state is lost on restart")
		return repository.NewMemoryStore(), nil
	}

	client, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
		Addr:     conf.Redis.GetRedisAddr(),
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	return repository.NewRedisStore(client, conf.Store.MaxRetries), nil
}
