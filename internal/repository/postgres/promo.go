package postgresrepo

import (
	"context"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/evensta/evensta-go/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PromoRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PromoRepo) With(db DB) *PromoRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PromoRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ListStats returns every campaign of a promoter, active or stopped.
func (r *PromoRepo) ListStats(ctx context.Context, promoterID int64) ([]domain.PromoStat, error) {
	const op = "postgresrepo.PromoRepo.ListStats"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT promoter_id, event_id, commission_pct, earned, status
		 FROM promo_stats
		 WHERE promoter_id = $1
		 ORDER BY event_id`,
		promoterID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var stats []domain.PromoStat
	for rows.Next() {
		var s domain.PromoStat
		if err := rows.Scan(&s.PromoterID, &s.EventID, &s.CommissionPercent, &s.EarnedAmount, &s.Status); err != nil {
			return nil, wrapDBErr(op, err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return stats, nil
}

// Stop marks a campaign stopped. Accrued earnings are retained; the transition
// is one-way.
func (r *PromoRepo) Stop(ctx context.Context, promoterID, eventID int64) error {
	const op = "postgresrepo.PromoRepo.Stop"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE promo_stats SET status = 'stopped'
		 WHERE promoter_id = $1 AND event_id = $2 AND status = 'active'`,
		promoterID, eventID,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// Accrue credits commission earnings to an active campaign.
func (r *PromoRepo) Accrue(ctx context.Context, promoterID, eventID int64, amount float64) error {
	const op = "postgresrepo.PromoRepo.Accrue"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE promo_stats SET earned = earned + $3
		 WHERE promoter_id = $1 AND event_id = $2 AND status = 'active'`,
		promoterID, eventID, amount,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// GetPromoCode resolves a promo code to its campaign.
func (r *PromoRepo) GetPromoCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	const op = "postgresrepo.PromoRepo.GetPromoCode"

	db := r.handle()

	var pc domain.PromoCode
	err := db.QueryRow(ctx,
		`SELECT code, event_id, promoter_id, discount_pct
		 FROM promo_codes WHERE code = $1`,
		code,
	).Scan(&pc.Code, &pc.EventID, &pc.PromoterID, &pc.DiscountPercent)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &pc, nil
}

// GetStat loads one campaign row.
func (r *PromoRepo) GetStat(ctx context.Context, promoterID, eventID int64) (*domain.PromoStat, error) {
	const op = "postgresrepo.PromoRepo.GetStat"

	db := r.handle()

	var s domain.PromoStat
	err := db.QueryRow(ctx,
		`SELECT promoter_id, event_id, commission_pct, earned, status
		 FROM promo_stats
		 WHERE promoter_id = $1 AND event_id = $2`,
		promoterID, eventID,
	).Scan(&s.PromoterID, &s.EventID, &s.CommissionPercent, &s.EarnedAmount, &s.Status)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &s, nil
}
