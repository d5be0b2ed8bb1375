package postgresrepo

import (
	"context"

	"github.com/evensta/evensta-go/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatalogRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *CatalogRepo) With(db DB) *CatalogRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *CatalogRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetEvent loads an event together with its ticket and add-on catalog.
func (r *CatalogRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgresrepo.CatalogRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, host_id, title, event_type, starts_at, ends_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.HostID, &e.Title, &e.Type, &e.Starts, &e.Ends)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	rows, err := db.Query(ctx,
		`SELECT type_key, kind, unit_price, min_donation
		 FROM event_items
		 WHERE event_id = $1
		 ORDER BY kind, type_key`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CatalogItem
		var kind string
		if err := rows.Scan(&item.TypeKey, &kind, &item.UnitPrice, &item.MinimumDonation); err != nil {
			return nil, wrapDBErr(op, err)
		}
		if kind == "ticket" {
			e.Tickets = append(e.Tickets, item)
		} else {
			e.AddOns = append(e.AddOns, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// ListEvents returns a page of events without their catalogs.
func (r *CatalogRepo) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "postgresrepo.CatalogRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, host_id, title, event_type, starts_at, ends_at
		 FROM events
		 ORDER BY starts_at, id
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.HostID, &e.Title, &e.Type, &e.Starts, &e.Ends); err != nil {
			return nil, wrapDBErr(op, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return events, nil
}

func (r *CatalogRepo) CreateEvent(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgresrepo.CatalogRepo.CreateEvent"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO events(host_id, title, event_type, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.HostID, e.Title, e.Type, e.Starts, e.Ends,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// BatchCreateItems inserts the ticket and add-on catalog for an event.
func (r *CatalogRepo) BatchCreateItems(
	ctx context.Context,
	eventID int64,
	tickets, addOns []domain.CatalogItem,
) error {
	const op = "postgresrepo.CatalogRepo.BatchCreateItems"

	db := r.handle()

	batch := &pgx.Batch{}
	queue := func(kind string, items []domain.CatalogItem) {
		for _, it := range items {
			batch.Queue(
				`INSERT INTO event_items(event_id, type_key, kind, unit_price, min_donation)
				 VALUES ($1, $2, $3, $4, $5)`,
				eventID, it.TypeKey, kind, it.UnitPrice, it.MinimumDonation,
			)
		}
	}
	queue("ticket", tickets)
	queue("addon", addOns)

	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}
