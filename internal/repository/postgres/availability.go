package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type availabilityRepository struct {
	db *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func (r *availabilityRepository) Block(ctx context.Context, itemID int64, startDate, endDate string, rentalID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Overlap check and insert in one transaction so two rentals cannot
	// grab the same dates concurrently.
	var conflicts int
	check := `SELECT count(*) FROM date_blocks
	          WHERE item_id = $1 AND rental_request_id != $2 AND start_date <= $3 AND end_date >= $4`
	if err := tx.QueryRowContext(ctx, check, itemID, rentalID, endDate, startDate).Scan(&conflicts); err != nil {
		return err
	}
	if conflicts > 0 {
		return fmt.Errorf("%w: item %d between %s and %s", domain.ErrDatesUnavailable, itemID, startDate, endDate)
	}

	insert := `INSERT INTO date_blocks (item_id, rental_request_id, start_date, end_date, created_on)
	           VALUES ($1, $2, $3, $4, $5)
	           ON CONFLICT (rental_request_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, itemID, rentalID, startDate, endDate, time.Now()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *availabilityRepository) Release(ctx context.Context, rentalID int64) error {
	// Idempotent: releasing an already released block is a no-op.
	_, err := r.db.ExecContext(ctx, `DELETE FROM date_blocks WHERE rental_request_id = $1`, rentalID)
	return err
}

func (r *availabilityRepository) Extend(ctx context.Context, rentalID int64, newEndDate string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE date_blocks SET end_date = $1 WHERE rental_request_id = $2`, newEndDate, rentalID)
	return err
}
