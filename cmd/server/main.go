package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lawyerjames/KanaLearning/internal/config"
	"github.com/lawyerjames/KanaLearning/internal/delivery/httpapi"
	"github.com/lawyerjames/KanaLearning/internal/infra/kvstore"
	"github.com/lawyerjames/KanaLearning/internal/logger"
	"github.com/lawyerjames/KanaLearning/internal/repository"
	"github.com/lawyerjames/KanaLearning/internal/service"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kanaRepo, err := repository.NewKanaRepository(cfg.KanaJSONPath, zl)
	if err != nil {
		zl.Fatal("kana dataset load failed", zap.Error(err))
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		zl.Fatal("key-value store open failed", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	boardRepo := repository.NewLeaderboardRepository(store, zl)
	unlockRepo := repository.NewUnlockRepository(store, zl)

	gen := service.NewGenerator(kanaRepo.Entries())
	boards := service.NewLeaderboardService(boardRepo)
	unlocks := service.NewUnlockService(unlockRepo, zl)
	orch := service.NewOrchestrator(kanaRepo, gen, boards, unlocks, pronouncer{zl}, zl)

	api := httpapi.New(orch, boards, unlocks, zl)
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zl.Info("listening", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("shutdown incomplete", zap.Error(err))
	}
}

// openStore picks the key-value backend from configuration.
func openStore(ctx context.Context, cfg *config.Config) (kvstore.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite", "":
		return kvstore.OpenSQLite(cfg.Storage.SQLitePath)
	case "postgres":
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, err
		}
		return kvstore.OpenPostgres(ctx, dsn, int32(cfg.DB.MaxConnections), cfg.DB.MaxConnLifetime)
	case "memory":
		return kvstore.NewMemory(), nil
	default:
		return nil, errors.New("unknown storage backend: " + cfg.Storage.Backend)
	}
}

// pronouncer logs pronunciation requests; actual speech synthesis happens
// in the browser.
type pronouncer struct {
	log *zap.Logger
}

func (p pronouncer) Pronounce(text string) {
	p.log.Debug("pronounce", zap.String("text", text))
}
