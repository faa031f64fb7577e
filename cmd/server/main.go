// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal packages.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"lobby/internal/auth/backend"
	authservice "lobby/internal/auth/service"
	"lobby/internal/auth/session"
	"lobby/internal/auth/store/revocation"
	"lobby/internal/platform/config"
	"lobby/internal/platform/httpserver"
	"lobby/internal/platform/logger"
	"lobby/internal/platform/metrics"
	"lobby/internal/platform/middleware"
	platformredis "lobby/internal/platform/redis"
	httptransport "lobby/internal/transport/http"
	"lobby/pkg/platform/audit"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// Revocation store: redis when configured, in-process otherwise.
	var revocations revocation.Store
	var redisHealth httptransport.HealthChecker
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		revocations = revocation.NewRedisStore(redisClient)
		redisHealth = redisClient
		defer redisClient.Close()
	} else {
		revocations = revocation.NewMemoryStore()
		log.Warn("redis not configured, using in-process revocation store")
	}

	// Audit: kafka when brokers are configured, in-memory otherwise.
	var sink audit.Sink
	if len(cfg.Audit.Brokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.Audit.Brokers, cfg.Audit.Topic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		sink = audit.NewMemorySink()
		log.Warn("audit brokers not configured, events stay in memory")
	}
	publisher := audit.NewPublisher(sink, log, 256)

	codec := session.NewCodec(cfg.Session.Secret, cfg.Session.MaxAge, cfg.Session.RenewWindow)
	sessions := session.NewManager(codec, cfg.Session.CookieName, cfg.Session.SecureCookie, cfg.Session.MaxAge)
	guard := middleware.NewGuard(sessions, revocations, m, log)

	backendClient := backend.NewClient(cfg.APIBaseURL, cfg.BackendTimeout, log, m)
	svc := authservice.New(backendClient, revocations, cfg.Session.MaxAge, cfg.Session.ReauthGrace,
		authservice.WithLogger(log),
		authservice.WithMetrics(m),
		authservice.WithAuditor(publisher),
	)

	handler := httptransport.NewHandler(svc, sessions, guard, log, m, registry, redisHealth)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting lobby", "addr", cfg.Addr, "env", string(cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		publisher.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
