package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/repository"
	postgresrepo "github.com/evensta/evensta-go/internal/repository/postgres"
	redisrepo "github.com/evensta/evensta-go/internal/repository/redis"
)

type Config struct {
	EventTTL        time.Duration
	DefaultPageSize int
	MaxPageSize     int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventTTL <= 0 {
		cfg.EventTTL = 60 * time.Second
	}

	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}

	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEvent retrieves an event with its ticket/add-on catalog through the
// cache-aside layer.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.catalog.GetEvent"

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventCatalog(id),
		s.cfg.EventTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Catalog().GetEvent(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListEvents returns a page of events. Limits are clamped to the configured
// bounds.
func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "service.catalog.ListEvents"

	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}

	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	events, err := s.store.Catalog().ListEvents(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}
