package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/smart-mermaid/go-mermaid-backend/config"
	"github.com/smart-mermaid/go-mermaid-backend/internal/bootstrap"
	editorservice "github.com/smart-mermaid/go-mermaid-backend/internal/editor/service"
	"github.com/smart-mermaid/go-mermaid-backend/internal/history/repository"
	historyservice "github.com/smart-mermaid/go-mermaid-backend/internal/history/service"
	"github.com/smart-mermaid/go-mermaid-backend/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zlog := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	// The Postgres archive is optional; without it dropped records are
	// simply gone, matching the original browser-only behavior.
	pool, poolErr := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:       cfg.Archive.DSN,
		ConnectTO: cfg.Archive.ConnectTO,
		PingTO:    cfg.Archive.PingTO,
	})
	if poolErr != nil {
		zlog.Warn().Err(poolErr).Msg("archive database unavailable, archiving disabled")
	} else {
		defer pool.Close()
	}

	var archive historyservice.Archiver
	if pool != nil {
		archiveDB, err := sql.Open("postgres", cfg.Archive.DSN)
		if err != nil {
			zlog.Warn().Err(err).Msg("failed to open archive connection, archiving disabled")
		} else {
			defer archiveDB.Close()
			archive = repository.NewArchiveRepository(archiveDB)
		}
	}

	session := editorservice.NewSession(cfg.History.MaxUndoEntries, zlog)
	catalog := repository.NewCatalogRepository(redisClient)
	manager := historyservice.NewManager(session, catalog, archive, cfg.History.MaxRecords, zlog)

	autoSaver := historyservice.NewAutoSaver(manager, cfg.History.AutoSaveInterval, zlog)
	if err := autoSaver.Start(); err != nil {
		zlog.Fatal().Err(err).Msg("failed to start auto-save")
	}
	defer autoSaver.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:    "smart-mermaid-api",
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DB:             pool,
		Redis:          redisClient,
		Session:        session,
		History:        manager,
		Logger:         zlog,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		zlog.Info().Str("port", cfg.Server.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	zlog.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown error")
	}
}
