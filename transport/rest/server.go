package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const (
	defaultRateLimit  = 120
	defaultRateWindow = time.Minute

	requestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type Options struct {
	RateLimit      int
	RateWindow     time.Duration
	AllowedOrigins []string
}

// NewRouter - builds the HTTP API. A nil feed leaves /ws unmounted.
func NewRouter(logger *slog.Logger, engine gameEngine, leaderboard leaderboard, feed http.Handler, opts Options) http.Handler {
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if opts.RateWindow <= 0 {
		opts.RateWindow = defaultRateWindow
	}

	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	h := NewHandlers(logger, engine, leaderboard)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", playerHeader},
		MaxAge:         300,
	}).Handler)

	r.Get("/ping", h.Ping)

	if feed != nil {
		r.Handle("/ws", feed)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Use(httprate.LimitByIP(opts.RateLimit, opts.RateWindow))

		r.Route("/games", func(r chi.Router) {
			r.Post("/", h.CreateGame)
			r.Get("/latest", h.GetLatestGameID)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetGame)
				r.Get("/escrow", h.GetEscrow)
				r.Post("/join", h.JoinGame)
				r.Post("/play", h.PlayGame)
			})
		})

		r.Get("/players/{player}/stats", h.GetPlayerStats)
		r.Get("/leaderboard", h.GetLeaderboard)
	})

	return r
}

// Start - serves handler on port until ctx is canceled, then shuts down gracefully.
func Start(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}

		return nil
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With("component", "http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
