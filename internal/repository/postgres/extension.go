package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type extensionRepository struct {
	db *sql.DB
}

func NewExtensionRepository(db *sql.DB) repository.ExtensionRepository {
	return &extensionRepository{db: db}
}

const extensionColumns = `id, rental_request_id, requested_by_user_id, new_end_date, additional_cost_cents,
	COALESCE(message, ''), status, payment_confirmed, created_on, updated_on`

func (r *extensionRepository) Create(ctx context.Context, e *domain.Extension) error {
	query := `INSERT INTO extensions (rental_request_id, requested_by_user_id, new_end_date, additional_cost_cents, message, status, payment_confirmed, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	e.CreatedOn = now
	e.UpdatedOn = now
	return r.db.QueryRowContext(ctx, query,
		e.RentalRequestID, e.RequestedByUserID, e.NewEndDate, e.AdditionalCostCents,
		e.Message, e.Status, e.PaymentConfirmed, now, now,
	).Scan(&e.ID)
}

func (r *extensionRepository) GetByID(ctx context.Context, id int64) (*domain.Extension, error) {
	e := &domain.Extension{}
	query := `SELECT ` + extensionColumns + ` FROM extensions WHERE id = $1`
	err := r.scanRow(r.db.QueryRowContext(ctx, query, id), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *extensionRepository) Update(ctx context.Context, e *domain.Extension) error {
	query := `UPDATE extensions SET status=$1, payment_confirmed=$2, updated_on=$3 WHERE id=$4`
	e.UpdatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query, e.Status, e.PaymentConfirmed, e.UpdatedOn, e.ID)
	return err
}

func (r *extensionRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Extension, error) {
	query := `SELECT ` + extensionColumns + ` FROM extensions WHERE rental_request_id = $1 ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exts []domain.Extension
	for rows.Next() {
		var e domain.Extension
		if err := rows.Scan(&e.ID, &e.RentalRequestID, &e.RequestedByUserID, &e.NewEndDate,
			&e.AdditionalCostCents, &e.Message, &e.Status, &e.PaymentConfirmed, &e.CreatedOn, &e.UpdatedOn); err != nil {
			return nil, err
		}
		exts = append(exts, e)
	}
	return exts, rows.Err()
}

func (r *extensionRepository) GetOpenByRental(ctx context.Context, rentalID int64) (*domain.Extension, error) {
	e := &domain.Extension{}
	// Pending, or approved but not yet captured: both occupy the slot.
	query := `SELECT ` + extensionColumns + ` FROM extensions
	          WHERE rental_request_id = $1 AND status != $2 AND NOT (status = $3 AND payment_confirmed)
	          ORDER BY created_on DESC LIMIT 1`
	err := r.scanRow(r.db.QueryRowContext(ctx, query, rentalID, domain.ExtensionStatusDeclined, domain.ExtensionStatusApproved), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *extensionRepository) scanRow(row *sql.Row, e *domain.Extension) error {
	return row.Scan(&e.ID, &e.RentalRequestID, &e.RequestedByUserID, &e.NewEndDate,
		&e.AdditionalCostCents, &e.Message, &e.Status, &e.PaymentConfirmed, &e.CreatedOn, &e.UpdatedOn)
}
