package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"symptom-triage/internal/catalog"
	"symptom-triage/internal/config"
	"symptom-triage/internal/consultation"
	"symptom-triage/internal/diagnosis"
	"symptom-triage/internal/platform/logging"
	"symptom-triage/internal/platform/telegram"
	"symptom-triage/internal/report"
	"symptom-triage/internal/sessionlog"
	"symptom-triage/internal/symptom"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logging.Configure(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return a.serve(ctx)
}

type app struct {
	cfg     *config.Config
	cat     *catalog.Catalog
	memory  *consultation.MemoryRepository
	handler http.Handler
	closers []func() error
}

// newApp performs every fallible setup step. It starts no goroutines, so a
// failed step leaves nothing running.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	// 1. Catalog
	a.cat, err = catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	engine := diagnosis.NewEngine(a.cat, diagnosis.DefaultOptions())
	resolver := symptom.NewResolver(a.cat.Symptoms(), symptom.WithCutoff(cfg.MatchCutoff))

	// 2. Session store
	var repo consultation.Repository
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, err
		}
		slog.Info("using redis session store", "addr", cfg.RedisAddr, "ttl", cfg.SessionIdleTimeout)
		repo = consultation.NewRedisRepository(client, cfg.SessionIdleTimeout)
	} else {
		a.memory = consultation.NewMemoryRepository()
		repo = a.memory
	}

	// 3. Session audit log
	var recorder sessionlog.Recorder = sessionlog.NopRecorder{}
	if cfg.DatabaseURL != "" {
		db, err := sessionlog.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if err := sessionlog.Migrate(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			return nil, err
		}
		recorder = sessionlog.NewPostgresRecorder(db)
	} else {
		slog.Warn("DATABASE_URL is not set, finished sessions will not be recorded")
	}

	// 4. Reports
	var reportSvc *report.Service
	if cfg.ReportDelivery() {
		reportSvc = report.NewService(telegram.NewClient(cfg.TelegramBotToken), cfg.DoctorChatID, cfg.ReportFontPath)
	} else {
		slog.Warn("TELEGRAM_BOT_TOKEN or DOCTOR_CHAT_ID is not set, reports will not be sent")
		reportSvc = report.NewService(nil, 0, cfg.ReportFontPath)
	}

	consultationSvc := consultation.NewService(repo, engine, resolver, reportSvc, recorder)
	consultationHandler := consultation.NewHandler(consultationSvc)

	// 5. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		consultation.RegisterRoutes(r, consultationHandler)
	})
	a.handler = r
	return a, nil
}

// serve runs the HTTP server and, for the in-memory store, the idle
// session sweeper until ctx is done.
func (a *app) serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.memory != nil && a.cfg.SessionIdleTimeout > 0 {
		g.Go(func() error {
			return a.memory.RunSweeper(ctx, time.Minute, a.cfg.SessionIdleTimeout)
		})
	}

	server := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		slog.Info("server starting", "port", a.cfg.Port, "conditions", a.cat.Len(), "symptoms", len(a.cat.Symptoms()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// cors lets the browser frontend call the API from another origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
