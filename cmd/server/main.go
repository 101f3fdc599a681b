// Command server runs the donation coordination API: auth, donation
// lifecycle, inventory, directory and the audit pipeline.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bloodlink/db"
	"bloodlink/internal/audit"
	"bloodlink/internal/auth"
	authhandler "bloodlink/internal/auth/handler"
	"bloodlink/internal/auth/session"
	authstore "bloodlink/internal/auth/store"
	"bloodlink/internal/certificate"
	"bloodlink/internal/directory"
	directoryhandler "bloodlink/internal/directory/handler"
	directorystore "bloodlink/internal/directory/store"
	donationhandler "bloodlink/internal/donation/handler"
	donationservice "bloodlink/internal/donation/service"
	donationstore "bloodlink/internal/donation/store"
	"bloodlink/internal/platform/config"
	"bloodlink/internal/platform/httpserver"
	"bloodlink/internal/platform/logger"
	"bloodlink/internal/platform/metrics"
	"bloodlink/internal/platform/middleware"
	"bloodlink/internal/platform/redis"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pool, err := sql.Open("pgx", cfg.DB.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer pool.Close()
	pool.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	if err := pool.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	if err := db.Migrate(ctx, pool); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	m := metrics.New()

	// Sessions fall back to memory when Redis is not configured.
	var sessions auth.SessionStore
	if redisClient != nil {
		defer redisClient.Close()
		sessions = session.NewRedis(redisClient)
	} else {
		log.Warn("redis not configured, using in-memory sessions")
		sessions = session.NewMemory()
	}

	publisher := audit.NewPublisher(log)
	var sink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Kafka)
		if err != nil {
			return fmt.Errorf("connect kafka: %w", err)
		}
		sink = kafkaSink
	} else {
		log.Warn("kafka not configured, audit events stay in memory")
		sink = audit.NewMemorySink()
	}
	defer sink.Close()
	worker := audit.NewWorker(publisher, sink, log)

	uploader, err := certificate.NewMinioUploader(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("connect object storage: %w", err)
	}
	certWorkflow := certificate.NewWorkflow(certificate.NewPDFGenerator(), uploader, log, m)

	tokens := auth.NewTokenManager(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.AccessTokenTTL)
	authService := auth.NewService(authstore.NewPostgres(pool), sessions, tokens, publisher, m, log)

	donationSvc := donationservice.New(
		donationstore.NewPostgres(pool),
		newDonationPostgresTx(pool),
		certWorkflow,
		publisher,
		m,
		log,
	)
	directorySvc := directory.NewService(directorystore.NewPostgres(pool))

	router := newRouter(routerDeps{
		log:       log,
		metrics:   m,
		verifier:  auth.NewVerifier(tokens, sessions),
		auth:      authhandler.New(authService, log),
		donations: donationhandler.New(donationSvc, log),
		directory: directoryhandler.New(directorySvc, log),
		health:    newHealthHandler(pool, redisClient),
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := worker.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type routerDeps struct {
	log       *slog.Logger
	metrics   *metrics.Metrics
	verifier  middleware.JWTValidator
	auth      *authhandler.Handler
	donations *donationhandler.Handler
	directory *directoryhandler.Handler
	health    http.HandlerFunc
}

func newRouter(deps routerDeps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.log))
	r.Use(middleware.Logger(deps.log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", deps.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.auth.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.verifier, deps.log))
		r.Use(middleware.Latency(deps.metrics, "api"))
		deps.auth.RegisterProtected(r)
		deps.donations.Register(r)
		deps.directory.Register(r)
	})
	return r
}

func newHealthHandler(pool *sql.DB, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := pool.PingContext(ctx); err != nil {
			http.Error(w, `{"status":"unhealthy","component":"db"}`, http.StatusServiceUnavailable)
			return
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"unhealthy","component":"redis"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
