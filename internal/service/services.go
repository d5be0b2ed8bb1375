package service

import (
	"log/slog"

	postgres "github.com/evensta/evensta-go/internal/repository/postgres"
	redis "github.com/evensta/evensta-go/internal/repository/redis"
	"github.com/evensta/evensta-go/internal/service/admin"
	"github.com/evensta/evensta-go/internal/service/catalog"
	"github.com/evensta/evensta-go/internal/service/checkout"
	"github.com/evensta/evensta-go/internal/service/promoter"
)

type Services struct {
	Checkout *checkout.Service
	Promoter *promoter.Service
	Catalog  *catalog.Service
	Admin    *admin.Service
}

type Config struct {
	Checkout checkout.Config
	Catalog  catalog.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redis.EventsPubSub,
	limiter *redis.SlidingWindowLimiter,
	tombstones *redis.Tombstones,
	logger *slog.Logger,
	cfg Config,
) *Services {
	return &Services{
		Checkout: checkout.New(store, cache, pubsub, limiter, logger, cfg.Checkout),
		Promoter: promoter.New(store, tombstones, logger),
		Catalog:  catalog.New(store, cache, cfg.Catalog),
		Admin:    admin.New(store, cache, pubsub),
	}
}
