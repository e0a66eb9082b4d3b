package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	httpctx "github.com/dtroode/postkeeper-server/internal/api/http/context"
	"github.com/dtroode/postkeeper-server/internal/api/http/handler"
	"github.com/dtroode/postkeeper-server/internal/api/http/router"
	"github.com/dtroode/postkeeper-server/internal/auth"
	"github.com/dtroode/postkeeper-server/internal/config"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/metrics"
	"github.com/dtroode/postkeeper-server/internal/model"
	"github.com/dtroode/postkeeper-server/internal/render"
	"github.com/dtroode/postkeeper-server/internal/repository/memory"
	"github.com/dtroode/postkeeper-server/internal/repository/postgres"
	"github.com/dtroode/postkeeper-server/internal/revocation"
	"github.com/dtroode/postkeeper-server/internal/server"
	"github.com/dtroode/postkeeper-server/internal/service"
	storage "github.com/dtroode/postkeeper-server/internal/storage/minio"
	"github.com/dtroode/postkeeper-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	postStore, pinger, closeStore := newPostStore(ctx, cfg.Database, logger)
	defer closeStore()

	revocationChecker, closeRevocation := newRevocationChecker(ctx, cfg.Revocation, m, logger)
	defer closeRevocation()

	postService := service.NewPost(postStore, render.NewMarkdown(), newAttachmentStorage(ctx, cfg.Storage, logger), cfg.Posts.PageSize, logger)

	authenticator := auth.NewAuthenticator(
		auth.NewCredentialExtractor(logger),
		token.NewJWT(cfg.JWT.Secret, cfg.JWT.Issuer),
		revocationChecker,
		logger,
	)

	r := router.New(
		postService,
		authenticator,
		auth.NewAuthorizer(logger),
		httpctx.NewManager(),
		m,
		router.Options{Pinger: pinger, Gatherer: registry, AllowedOrigins: cfg.HTTP.CORSAllowedOrigins},
		logger,
	)
	httpServer := server.NewHTTPServer(r.Register(), cfg.HTTP, logger)
	sl := server.NewSecurityLayer(cfg.HTTP)

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func newPostStore(ctx context.Context, cfg config.Database, logger *logger.Logger) (model.PostStore, handler.Pinger, func()) {
	if cfg.Driver == "memory" {
		logger.Warn("using in-memory post store, data is lost on restart")
		return memory.NewPostRepository(), nil, func() {}
	}

	db, err := postgres.NewConnection(ctx, cfg.DSN, cfg.ConnectTimeout, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	return postgres.NewPostRepository(db), db, func() { _ = db.Close() }
}

func newRevocationChecker(ctx context.Context, cfg config.Revocation, m *metrics.Metrics, logger *logger.Logger) (model.RevocationChecker, func()) {
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			ReadTimeout:  cfg.Timeout,
			WriteTimeout: cfg.Timeout,
		})
		checker := revocation.NewRedisChecker(client, m, logger)
		if err := checker.WaitReady(ctx, cfg.ConnectTimeout); err != nil {
			logger.Fatal("failed to initialize revocation cache", "error", err)
		}
		return checker, func() { _ = client.Close() }
	}
	return revocation.NewHTTPChecker(cfg.URL, cfg.Timeout, m, logger), func() {}
}

// newAttachmentStorage returns nil when attachments are disabled or the object store is unreachable.
func newAttachmentStorage(ctx context.Context, cfg config.Storage, logger *logger.Logger) model.Storage {
	if !cfg.Enabled {
		logger.Info("attachment storage disabled")
		return nil
	}
	client, err := storage.NewClientFromConfig(ctx, cfg, logger)
	if err != nil {
		logger.Warn("attachment storage unavailable, attachments disabled", "error", err)
		return nil
	}
	return client
}
