package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gerry004/fendrapp/internal/config"
	"github.com/gerry004/fendrapp/internal/repository"
	"github.com/gerry004/fendrapp/internal/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err) // zap's default config cannot fail to build
	}
	defer func() {
		_ = logger.Sync()
	}()

	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repository.MigrateDB(db, logger)

	// Age out ledger rows for comments the platform stopped returning.
	// The sync never guesses at remote deletions, so this sweep is the
	// only path that clears them.
	if cfg.Ledger.RetentionDays > 0 {
		ledger := repository.NewAnalyzedCommentRepository(db, logger)
		cutoff := time.Now().AddDate(0, 0, -cfg.Ledger.RetentionDays)
		purged, err := ledger.PurgeOlderThan(context.Background(), cutoff)
		if err != nil {
			logger.Error("Ledger retention sweep failed", zap.Error(err))
		} else if purged > 0 {
			logger.Info("Ledger retention sweep removed stale rows", zap.Int64("rows", purged))
		}
	}

	srv := server.NewServer(db, cfg, logger)
	if err := srv.Run(cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
