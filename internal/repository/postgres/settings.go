package postgresrepo

import (
	"context"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SettingsRepo) With(db DB) *SettingsRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SettingsRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetFeeConfig reads the single platform settings row.
func (r *SettingsRepo) GetFeeConfig(ctx context.Context) (*domain.FeeConfig, error) {
	const op = "postgresrepo.SettingsRepo.GetFeeConfig"

	db := r.handle()

	var f domain.FeeConfig
	err := db.QueryRow(ctx,
		`SELECT percent_fee, fixed_fee FROM platform_settings WHERE id = 1`,
	).Scan(&f.PercentFee, &f.FixedFee)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &f, nil
}

// UpdateFeeConfig upserts the platform settings row.
func (r *SettingsRepo) UpdateFeeConfig(ctx context.Context, f domain.FeeConfig) error {
	const op = "postgresrepo.SettingsRepo.UpdateFeeConfig"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO platform_settings(id, percent_fee, fixed_fee)
		 VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE
		 SET percent_fee = EXCLUDED.percent_fee, fixed_fee = EXCLUDED.fixed_fee`,
		f.PercentFee, f.FixedFee,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
