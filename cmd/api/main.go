package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	"github.com/BruksfildServices01/salon-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/salon-scheduler/internal/db"
	"github.com/BruksfildServices01/salon-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/salon-scheduler/internal/logging"
	"github.com/BruksfildServices01/salon-scheduler/internal/metrics"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
	"github.com/BruksfildServices01/salon-scheduler/internal/routes"
	"github.com/BruksfildServices01/salon-scheduler/internal/storage"
)

func main() {

	cfg := config.Load()

	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	slog.SetDefault(logger)

	norm := normalize.New()
	observer := repo.NewObserver(logger)
	m := metrics.New()
	stopWatch := m.Watch(observer)
	defer stopWatch()

	app := routes.App{
		Cfg:      cfg,
		Norm:     norm,
		Observer: observer,
		Metrics:  m,
		Log:      logger,
	}

	var sink audit.Sink
	var closers []func() error

	if cfg.IsDBMode() {
		db, err := dbpkg.NewDB(cfg, logger)
		if err != nil {
			logger.Error("database unavailable", "err", err)
			os.Exit(1)
		}
		store := repository.NewSalonGormRepository(db, norm, repo.NewTokenGenerator(logger), logger)

		app.Repo = store
		app.DB = db
		app.Pinger = store
		sink = audit.NewGormSink(db)

		if sqlDB, err := db.DB(); err == nil {
			closers = append(closers, sqlDB.Close)
		}
	} else {
		var kv storage.KV = storage.NewMemoryKV()
		if cfg.RedisURL != "" {
			rkv, err := storage.NewRedisKV(cfg.RedisURL)
			if err != nil {
				logger.Error("redis unavailable", "err", err)
				os.Exit(1)
			}
			kv = rkv
			closers = append(closers, rkv.Close)
		}

		app.Repo = repo.NewLocalStore(kv,
			repo.WithNormalizer(norm),
			repo.WithLogger(logger),
		)
		sink = audit.NewLogSink(logger)
	}

	dispatcher := audit.NewDispatcher(sink, logger)
	app.Audit = dispatcher

	r := gin.New()
	r.Use(gin.Recovery())
	routes.RegisterRoutes(r, app)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server running", "addr", cfg.Addr(), "mode", cfg.DataMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "err", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("audit queue not drained", "err", err)
	}
	for _, c := range closers {
		_ = c()
	}
	logger.Info("server stopped")
}
