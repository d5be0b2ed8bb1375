package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/pricing"
	"github.com/evensta/evensta-go/internal/repository"
	postgresrepo "github.com/evensta/evensta-go/internal/repository/postgres"
	redisrepo "github.com/evensta/evensta-go/internal/repository/redis"
	"github.com/evensta/evensta-go/internal/uow"
	"github.com/google/uuid"
)

type Config struct {
	CatalogTTL   time.Duration
	FeeConfigTTL time.Duration
	// FeeFetchTimeout bounds the async settings fetch of a freshly opened
	// session.
	FeeFetchTimeout time.Duration
}

type Service struct {
	store    *postgresrepo.Store
	cache    *redisrepo.Cache
	pubsub   *redisrepo.EventsPubSub
	limiter  *redisrepo.SlidingWindowLimiter
	sessions *Sessions
	uow      *uow.UoW
	logger   *slog.Logger
	cfg      Config
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.CatalogTTL <= 0 {
		cfg.CatalogTTL = 60 * time.Second
	}

	if cfg.FeeConfigTTL <= 0 {
		cfg.FeeConfigTTL = 5 * time.Minute
	}

	if cfg.FeeFetchTimeout <= 0 {
		cfg.FeeFetchTimeout = 3 * time.Second
	}

	return &Service{
		store:    store,
		cache:    cache,
		pubsub:   pubsub,
		limiter:  limiter,
		sessions: NewSessions(),
		uow:      uow.NewUoW(store),
		logger:   logger,
		cfg:      cfg,
	}
}

// OpenSession starts a checkout for buyerID on eventID. The session is usable
// immediately with the default fee configuration; the platform settings are
// resolved in the background and applied only while this session is still the
// buyer's live one.
func (s *Service) OpenSession(ctx context.Context, buyerID, eventID int64) (Session, error) {
	const op = "service.checkout.OpenSession"

	if _, err := s.getEvent(ctx, eventID); err != nil {
		return Session{}, fmt.Errorf("%s: %w", op, err)
	}

	sess := s.sessions.Open(buyerID, eventID)

	token := sess.Token
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FeeFetchTimeout)
		defer cancel()

		fees, err := s.feeConfig(ctx)
		if err != nil {
			// Non-fatal: the session keeps the defaults.
			s.logger.Warn("fee config fetch failed, using defaults", "error", err)
			return
		}

		if !s.sessions.ResolveFees(token, fees) {
			s.logger.Debug("dropping stale fee config resolution", "token", token)
		}
	}()

	return *sess, nil
}

// CloseSession discards an open checkout. In-flight fee resolutions for it
// become no-ops.
func (s *Service) CloseSession(token uuid.UUID) {
	s.sessions.Close(token)
}

// QuoteInput is one pricing request. Donation nil means "use the suggested
// default"; a non-nil value is the buyer's override, clamped to >= 0.
type QuoteInput struct {
	SessionToken uuid.UUID
	EventID      int64
	Cart         domain.Cart
	PromoCode    string
	Donation     *float64
}

// Quote prices the cart. The computation itself is pure (internal/pricing);
// this method only assembles its inputs: catalog snapshot, session fee
// config, and the discount resolved from the promo code.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (domain.PricingResult, error) {
	const op = "service.checkout.Quote"

	event, err := s.getEvent(ctx, in.EventID)
	if err != nil {
		return domain.PricingResult{}, fmt.Errorf("%s: %w", op, err)
	}

	fees := pricing.DefaultFeeConfig
	if sess, ok := s.sessions.Get(in.SessionToken); ok {
		fees = sess.Fees
	}

	discountPct, _ := s.resolveDiscount(ctx, event, in.PromoCode)

	params := pricing.Params{PromoDiscountPercent: discountPct}
	if in.Donation != nil {
		params.PlatformDonation = *in.Donation
		return pricing.Quote(in.Cart, event, fees, params), nil
	}

	// No explicit donation: run once to learn the post-discount subtotal,
	// then apply the suggested default.
	base := pricing.Quote(in.Cart, event, fees, params)
	params.PlatformDonation = pricing.SuggestedDonation(base.Subtotal, base.DiscountAmount)

	return pricing.Quote(in.Cart, event, fees, params), nil
}

// SubmitInput is a checkout commit. RecipientID is set for gifted/competition
// purchases. RateKey identifies the client for rate limiting.
type SubmitInput struct {
	SessionToken uuid.UUID
	BuyerID      int64
	EventID      int64
	RecipientID  *int64
	PromoCode    string
	Cart         domain.Cart
	Donation     float64
	RateKey      string
}

// Submit prices the cart server-side, persists the order with its computed
// {mandatory, donation} fee pair, and accrues promoter commission when the
// purchase carries a valid promo code. The session, if any, is closed after a
// successful commit.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (uuid.UUID, error) {
	const op = "service.checkout.Submit"

	if len(in.Cart) == 0 {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	if s.limiter != nil && in.RateKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, in.RateKey)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return uuid.Nil, fmt.Errorf("%s: %w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	event, err := s.getEvent(ctx, in.EventID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	fees := pricing.DefaultFeeConfig
	if sess, ok := s.sessions.Get(in.SessionToken); ok {
		fees = sess.Fees
	} else if fetched, err := s.feeConfig(ctx); err == nil {
		fees = fetched
	}

	discountPct, promo := s.resolveDiscount(ctx, event, in.PromoCode)

	result := pricing.Quote(in.Cart, event, fees, pricing.Params{
		PromoDiscountPercent: discountPct,
		PlatformDonation:     in.Donation,
	})

	// A cart whose every line is unknown prices to zero silently; reject it
	// here so an integration bug cannot commit an empty order.
	if len(result.UnknownKeys) == len(result.LineItems) {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrUnknownItems)
	}

	order := &domain.Order{
		ID:             uuid.New(),
		EventID:        event.ID,
		BuyerID:        in.BuyerID,
		RecipientID:    in.RecipientID,
		PromoCode:      in.PromoCode,
		Subtotal:       result.Subtotal,
		DiscountAmount: result.DiscountAmount,
		MandatoryFees:  result.MandatoryFees,
		Donation:       result.Donation,
		GrandTotal:     result.GrandTotal,
		CreatedAt:      time.Now().UTC(),
	}

	lines := make([]domain.OrderLine, 0, len(result.LineItems))
	for _, li := range result.LineItems {
		lines = append(lines, domain.OrderLine{
			OrderID:      order.ID,
			TypeKey:      li.TypeKey,
			Quantity:     li.Quantity,
			UnitPrice:    li.UnitPrice,
			LineSubtotal: li.LineSubtotal,
		})
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx postgresrepo.DB, after func(uow.AfterCommit)) error {
		if err := s.store.Orders().With(tx).Create(ctx, order, lines); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if promo != nil {
			if err := s.accrueCommission(ctx, tx, promo, result); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		after(func(ctx context.Context) {
			_ = s.cache.InvalidateEvent(ctx, event.ID)
			_ = s.pubsub.PublishEventChanged(ctx, event.ID)
		})

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.sessions.Close(in.SessionToken)

	return order.ID, nil
}

// GetOrder loads a committed order with its line items.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*domain.OrderWithLines, error) {
	const op = "service.checkout.GetOrder"

	order, err := s.store.Orders().Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrOrderNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return order, nil
}

// accrueCommission credits the promoter the campaign's commission percentage
// of the discounted ticket subtotal.
func (s *Service) accrueCommission(
	ctx context.Context,
	tx postgresrepo.DB,
	promo *domain.PromoCode,
	result domain.PricingResult,
) error {
	stat, err := s.store.Promos().With(tx).GetStat(ctx, promo.PromoterID, promo.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Campaign gone; the sale still stands, the credit is dropped.
			s.logger.Warn("promo code without campaign, skipping accrual",
				"code", promo.Code, "promoter_id", promo.PromoterID)
			return nil
		}
		return err
	}

	if stat.Status != domain.PromoActive {
		return nil
	}

	var ticketSubtotal float64
	for _, li := range result.LineItems {
		if li.IsTicket {
			ticketSubtotal += li.LineSubtotal
		}
	}

	amount := (ticketSubtotal - result.DiscountAmount) * (stat.CommissionPercent / 100)
	if amount <= 0 {
		return nil
	}

	if err := s.store.Promos().With(tx).Accrue(ctx, promo.PromoterID, promo.EventID, amount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	return nil
}

// resolveDiscount maps a promo code to its discount percentage. Unknown or
// mismatched codes degrade to zero discount rather than failing the quote;
// discounts never apply to fundraiser events.
func (s *Service) resolveDiscount(
	ctx context.Context,
	event *domain.Event,
	code string,
) (float64, *domain.PromoCode) {
	if code == "" || event.Type != domain.EventTicketed {
		return 0, nil
	}

	promo, err := s.store.Promos().GetPromoCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("promo code lookup failed", "code", code, "error", err)
		}
		return 0, nil
	}

	if promo.EventID != event.ID {
		return 0, nil
	}

	return promo.DiscountPercent, promo
}

func (s *Service) getEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventCatalog(eventID),
		s.cfg.CatalogTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Catalog().GetEvent(ctx, eventID)
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
		return nil, err
	}

	return &event, nil
}

// feeConfig loads the platform fee settings through the cache. Errors bubble
// up so callers can decide between failing and falling back to defaults.
func (s *Service) feeConfig(ctx context.Context) (domain.FeeConfig, error) {
	fees, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyFeeConfig(),
		s.cfg.FeeConfigTTL,
		func(ctx context.Context) (domain.FeeConfig, error) {
			f, err := s.store.Settings().GetFeeConfig(ctx)
			if err != nil {
				return domain.FeeConfig{}, err
			}

			return *f, nil
		},
	)
	if err != nil {
		return domain.FeeConfig{}, err
	}

	return pricing.NormalizeFees(fees), nil
}
