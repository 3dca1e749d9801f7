package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `INSERT INTO items (owner_id, name, daily_rate_cents, deposit_cents, instant_book, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	now := time.Now()
	item.CreatedOn = now
	item.UpdatedOn = now
	return r.db.QueryRowContext(ctx, query,
		item.OwnerID, item.Name, item.DailyRateCents, item.DepositCents, item.InstantBook, item.Status, now, now,
	).Scan(&item.ID)
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*domain.Item, error) {
	item := &domain.Item{}
	query := `SELECT id, owner_id, name, daily_rate_cents, deposit_cents, instant_book, status, created_on, updated_on
	          FROM items WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.DailyRateCents, &item.DepositCents,
		&item.InstantBook, &item.Status, &item.CreatedOn, &item.UpdatedOn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `UPDATE items SET name=$1, daily_rate_cents=$2, deposit_cents=$3, instant_book=$4, status=$5, updated_on=$6 WHERE id=$7`
	_, err := r.db.ExecContext(ctx, query,
		item.Name, item.DailyRateCents, item.DepositCents, item.InstantBook, item.Status, time.Now(), item.ID,
	)
	return err
}
