package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/catalyst-engine/whatsapp-relay/internal/api"
	"github.com/catalyst-engine/whatsapp-relay/internal/config"
	"github.com/catalyst-engine/whatsapp-relay/internal/dedup"
	"github.com/catalyst-engine/whatsapp-relay/internal/store"
	"github.com/catalyst-engine/whatsapp-relay/internal/whatsapp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	var guard dedup.Guard
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		guard = dedup.NewRedisGuard(rdb, cfg.Dedup.Window)
	} else {
		guard = dedup.NewMemoryGuard(cfg.Dedup.Window)
	}

	statusStore := store.NewStatusStore()

	newClient := func() (api.Provider, error) {
		return whatsapp.NewClient(cfg.WhatsApp)
	}

	h := api.NewHandler(cfg.WhatsApp, statusStore, guard, newClient, logger)

	logger.Info("whatsapp relay starting",
		zap.String("addr", cfg.Server.Address),
		zap.String("api_version", cfg.WhatsApp.APIVersion),
		zap.Duration("dedup_window", cfg.Dedup.Window),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("signature_enforced", cfg.WhatsApp.AppSecret != ""),
	)

	if err := http.ListenAndServe(cfg.Server.Address, api.Router(h)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
