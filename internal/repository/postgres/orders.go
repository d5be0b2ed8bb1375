package postgresrepo

import (
	"context"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *OrderRepo) With(db DB) *OrderRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *OrderRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Create persists an order and its line items.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order, lines []domain.OrderLine) error {
	const op = "postgresrepo.OrderRepo.Create"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO orders(
			id, event_id, buyer_id, recipient_id, promo_code,
			subtotal, discount, mandatory_fees, donation, grand_total, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		o.ID, o.EventID, o.BuyerID, o.RecipientID, o.PromoCode,
		o.Subtotal, o.DiscountAmount, o.MandatoryFees, o.Donation, o.GrandTotal, o.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(
			`INSERT INTO order_lines(order_id, type_key, quantity, unit_price, line_subtotal)
			 VALUES ($1, $2, $3, $4, $5)`,
			o.ID, l.TypeKey, l.Quantity, l.UnitPrice, l.LineSubtotal,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Get loads an order with its lines.
func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.OrderWithLines, error) {
	const op = "postgresrepo.OrderRepo.Get"

	db := r.handle()

	var out domain.OrderWithLines
	o := &out.Order
	err := db.QueryRow(ctx,
		`SELECT id, event_id, buyer_id, recipient_id, promo_code,
		        subtotal, discount, mandatory_fees, donation, grand_total, created_at
		 FROM orders WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.EventID, &o.BuyerID, &o.RecipientID, &o.PromoCode,
		&o.Subtotal, &o.DiscountAmount, &o.MandatoryFees, &o.Donation, &o.GrandTotal, &o.CreatedAt)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	rows, err := db.Query(ctx,
		`SELECT order_id, type_key, quantity, unit_price, line_subtotal
		 FROM order_lines WHERE order_id = $1
		 ORDER BY type_key`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.OrderID, &l.TypeKey, &l.Quantity, &l.UnitPrice, &l.LineSubtotal); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out.Lines = append(out.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &out, nil
}
