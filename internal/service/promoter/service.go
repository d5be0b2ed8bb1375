package promoter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evensta/evensta-go/internal/commission"
	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/repository"
	postgresrepo "github.com/evensta/evensta-go/internal/repository/postgres"
	redisrepo "github.com/evensta/evensta-go/internal/repository/redis"
	"github.com/google/uuid"
)

type Service struct {
	store      *postgresrepo.Store
	tombstones *redisrepo.Tombstones
	logger     *slog.Logger
}

func New(store *postgresrepo.Store, tombstones *redisrepo.Tombstones, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		tombstones: tombstones,
		logger:     logger,
	}
}

// Stats returns the promoter's earnings summary with the local tombstone
// overlay applied: a campaign stopped on this client stays hidden even when
// the store still reports it active. Tombstones the store has confirmed as
// stopped are cleared along the way.
func (s *Service) Stats(ctx context.Context, promoterID int64) (commission.Balance, error) {
	const op = "service.promoter.Stats"

	stats, err := s.store.Promos().ListStats(ctx, promoterID)
	if err != nil {
		return commission.Balance{}, fmt.Errorf("%s: %w", op, err)
	}

	retracted, err := s.tombstones.List(ctx, promoterID)
	if err != nil {
		// Overlay unavailable: show server truth rather than fail the view.
		s.logger.Warn("tombstone overlay unavailable", "promoter_id", promoterID, "error", err)
		retracted = nil
	}

	var confirmed []int64
	for _, st := range stats {
		if retracted[st.EventID] && st.Status == domain.PromoStopped {
			confirmed = append(confirmed, st.EventID)
		}
	}
	if len(confirmed) > 0 {
		if err := s.tombstones.Remove(ctx, promoterID, confirmed...); err != nil {
			s.logger.Warn("failed to clear confirmed tombstones", "promoter_id", promoterID, "error", err)
		}
	}

	return commission.Balances(stats, retracted), nil
}

// StopPromotion retires a campaign. The tombstone is written first so the
// view hides the campaign immediately; if the store update then fails the
// tombstone is left in place and reconciliation happens on the next
// authoritative refresh.
func (s *Service) StopPromotion(ctx context.Context, promoterID, eventID int64) error {
	const op = "service.promoter.StopPromotion"

	if err := s.tombstones.Add(ctx, promoterID, eventID); err != nil {
		s.logger.Warn("failed to record tombstone", "promoter_id", promoterID, "event_id", eventID, "error", err)
	}

	if err := s.store.Promos().Stop(ctx, promoterID, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrPromotionNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PayoutQuote is the early-payout preview: the promoter's payable balance and
// the net amount after the instant-transfer fee. It mutates nothing.
type PayoutQuote struct {
	GrossAmount float64
	FeeAmount   float64
	NetAmount   float64
	HasPending  bool
}

func (s *Service) QuotePayout(ctx context.Context, promoterID int64) (PayoutQuote, error) {
	const op = "service.promoter.QuotePayout"

	balance, err := s.Stats(ctx, promoterID)
	if err != nil {
		return PayoutQuote{}, fmt.Errorf("%s: %w", op, err)
	}

	pending, err := s.store.Payouts().HasPending(ctx, promoterID)
	if err != nil {
		return PayoutQuote{}, fmt.Errorf("%s: %w", op, err)
	}

	net := commission.EarlyPayoutNet(balance.Current)

	return PayoutQuote{
		GrossAmount: balance.Current,
		FeeAmount:   balance.Current - net,
		NetAmount:   net,
		HasPending:  pending,
	}, nil
}

// RequestPayout submits an early payout of the promoter's full current
// balance. The pending-request check is advisory; the unique partial index on
// pending requests is the authoritative guard.
func (s *Service) RequestPayout(ctx context.Context, promoterID int64) (*domain.PayoutRequest, error) {
	const op = "service.promoter.RequestPayout"

	balance, err := s.Stats(ctx, promoterID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	pending, err := s.store.Payouts().HasPending(ctx, promoterID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !commission.CanRequestPayout(balance.Current, pending) {
		if pending {
			return nil, fmt.Errorf("%s: %w", op, ErrPayoutPending)
		}
		return nil, fmt.Errorf("%s: %w", op, ErrNothingToPayOut)
	}

	req := &domain.PayoutRequest{
		ID:          uuid.New(),
		PromoterID:  promoterID,
		GrossAmount: balance.Current,
		NetAmount:   commission.EarlyPayoutNet(balance.Current),
		Status:      domain.PayoutPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.store.Payouts().Create(ctx, req); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrPayoutPending)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return req, nil
}

// ListPayouts returns the promoter's payout request history.
func (s *Service) ListPayouts(ctx context.Context, promoterID int64) ([]domain.PayoutRequest, error) {
	const op = "service.promoter.ListPayouts"

	requests, err := s.store.Payouts().ListByPromoter(ctx, promoterID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return requests, nil
}
