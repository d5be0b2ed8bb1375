package admin

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/pricing"
	"github.com/evensta/evensta-go/internal/repository"
	postgresrepo "github.com/evensta/evensta-go/internal/repository/postgres"
	redisrepo "github.com/evensta/evensta-go/internal/repository/redis"
	"github.com/evensta/evensta-go/internal/uow"
)

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.EventsPubSub
	uow    *uow.UoW
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, pubsub *redisrepo.EventsPubSub) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
	}
}

// CreateEventWithCatalog creates an event together with its ticket and add-on
// catalog in one transaction.
//
// Returns:
//   - int64: the created event ID.
//   - error: admin.ErrEventConflict or admin.ErrCatalogConflict on uniqueness
//     violations.
func (s *Service) CreateEventWithCatalog(
	ctx context.Context,
	event *domain.Event,
	tickets, addOns []domain.CatalogItem,
) (int64, error) {
	const op = "service.admin.CreateEventWithCatalog"

	var eventID int64

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		id, err := s.store.Catalog().With(tx).CreateEvent(ctx, event)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrEventConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		eventID = id

		if err := s.store.Catalog().
			With(tx).
			BatchCreateItems(ctx, eventID, tickets, addOns); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s: %w", op, ErrCatalogConflict)
			}
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, eventID)
			_ = s.pubsub.PublishEventChanged(ctx, eventID)
		})

		return nil
	})

	return eventID, err
}

// UpdateFeeConfig replaces the platform fee settings. The cached copy is
// invalidated after commit so open checkouts pick up the new values on their
// next session.
func (s *Service) UpdateFeeConfig(ctx context.Context, fees domain.FeeConfig) error {
	const op = "service.admin.UpdateFeeConfig"

	if fees.PercentFee < 0 || fees.FixedFee < 0 ||
		math.IsNaN(fees.PercentFee) || math.IsNaN(fees.FixedFee) {
		return fmt.Errorf("%s: %w", op, ErrInvalidFees)
	}

	err := s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Settings().With(tx).UpdateFeeConfig(ctx, fees); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateFeeConfig(ctx)
		})

		return nil
	})

	return err
}

// GetFeeConfig reads the stored fee settings without cache, for the admin
// settings view.
func (s *Service) GetFeeConfig(ctx context.Context) (domain.FeeConfig, error) {
	const op = "service.admin.GetFeeConfig"

	f, err := s.store.Settings().GetFeeConfig(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No row yet: the platform runs on defaults.
			return pricing.DefaultFeeConfig, nil
		}

		return domain.FeeConfig{}, fmt.Errorf("%s: %w", op, err)
	}

	return *f, nil
}
