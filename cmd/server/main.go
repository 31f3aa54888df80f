// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	mux_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/config"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/handlers"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/middleware"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/payment"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session/postgres"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/telemetry"
)

func main() {
	// --- Load config (config.yaml + env overrides) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	setupLogging(cfg.LogLevel)

	shutdownTelemetry := telemetry.Setup("hoa-portal")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Session store: Postgres when configured, memory otherwise ---
	var store session.Store = session.NewMemoryStore()
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("db connect error: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		pg := postgres.NewStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("db migrate error: %v", err)
		}
		store = pg
	}

	api := hoaapi.New(cfg.API.BaseURL, hoaapi.Options{Timeout: cfg.API.Timeout})
	sessions := session.NewManager(store, cfg.Session.TTL)
	flows := payment.NewRegistry(api)
	// In-flight payment intents die with the session.
	sessions.OnLogout(flows.Drop)
	go purgeSessions(ctx, sessions, cfg.Session.PurgeEvery)

	// --- Router ---
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(mux_middleware.RealIP)
	mux.Use(mux_middleware.Recoverer)
	mux.Use(middleware.Logging)

	// --- CORS middleware ---
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by browsers
	}))

	handlers.RegisterRoutes(mux, handlers.Deps{
		API:          api,
		Sessions:     sessions,
		Payments:     flows,
		LoginPath:    cfg.Session.LoginPath,
		CookieSecure: cfg.Session.CookieSecure,
	})

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// --- Start server ---
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      otelhttp.NewHandler(mux, "hoa-portal"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (HOA_API_URL=%s)", server.Addr, cfg.API.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func purgeSessions(ctx context.Context, sessions *session.Manager, every time.Duration) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				slog.Error("session purge failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions purged", "count", n)
			}
		}
	}
}

func setupLogging(level string) {
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
