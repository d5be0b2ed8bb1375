package postgresrepo

import (
	"context"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PayoutRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *PayoutRepo) With(db DB) *PayoutRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *PayoutRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// ListByPromoter returns the promoter's payout requests, newest first.
func (r *PayoutRepo) ListByPromoter(ctx context.Context, promoterID int64) ([]domain.PayoutRequest, error) {
	const op = "postgresrepo.PayoutRepo.ListByPromoter"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, promoter_id, gross_amount, net_amount, status, created_at
		 FROM payout_requests
		 WHERE promoter_id = $1
		 ORDER BY created_at DESC`,
		promoterID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var requests []domain.PayoutRequest
	for rows.Next() {
		var p domain.PayoutRequest
		if err := rows.Scan(&p.ID, &p.PromoterID, &p.GrossAmount, &p.NetAmount, &p.Status, &p.CreatedAt); err != nil {
			return nil, wrapDBErr(op, err)
		}
		requests = append(requests, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return requests, nil
}

// HasPending reports whether the promoter already has a pending request.
func (r *PayoutRepo) HasPending(ctx context.Context, promoterID int64) (bool, error) {
	const op = "postgresrepo.PayoutRepo.HasPending"

	db := r.handle()

	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM payout_requests
			WHERE promoter_id = $1 AND status = 'pending')`,
		promoterID,
	).Scan(&exists)
	if err != nil {
		return false, wrapDBErr(op, err)
	}

	return exists, nil
}

func (r *PayoutRepo) Create(ctx context.Context, p *domain.PayoutRequest) error {
	const op = "postgresrepo.PayoutRepo.Create"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO payout_requests(id, promoter_id, gross_amount, net_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.PromoterID, p.GrossAmount, p.NetAmount, p.Status, p.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
