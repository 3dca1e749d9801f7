package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, item_id, renter_id, owner_id, start_date, end_date, status,
	total_amount_cents, deposit_cents, fee_cents, daily_rate_cents, return_confirmed,
	COALESCE(decline_reason, ''), COALESCE(cancel_reason, ''),
	last_status_change_at, created_on, updated_on`

func (r *rentalRepository) Create(ctx context.Context, rt *domain.RentalRequest) error {
	query := `INSERT INTO rental_requests (item_id, renter_id, owner_id, start_date, end_date, status,
	          total_amount_cents, deposit_cents, fee_cents, daily_rate_cents, last_status_change_at, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`
	now := time.Now()
	rt.LastStatusChangeAt = now
	rt.CreatedOn = now
	rt.UpdatedOn = now
	return r.db.QueryRowContext(ctx, query,
		rt.ItemID, rt.RenterID, rt.OwnerID, rt.StartDate, rt.EndDate, rt.Status,
		rt.TotalAmountCents, rt.DepositCents, rt.FeeCents, rt.DailyRateCents, now, now, now,
	).Scan(&rt.ID)
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.RentalRequest, error) {
	rt := &domain.RentalRequest{}
	query := `SELECT ` + rentalColumns + ` FROM rental_requests WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rt.ID, &rt.ItemID, &rt.RenterID, &rt.OwnerID, &rt.StartDate, &rt.EndDate, &rt.Status,
		&rt.TotalAmountCents, &rt.DepositCents, &rt.FeeCents, &rt.DailyRateCents, &rt.ReturnConfirmed,
		&rt.DeclineReason, &rt.CancelReason, &rt.LastStatusChangeAt, &rt.CreatedOn, &rt.UpdatedOn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) Update(ctx context.Context, rt *domain.RentalRequest) error {
	query := `UPDATE rental_requests SET status=$1, end_date=$2, total_amount_cents=$3, deposit_cents=$4,
	          fee_cents=$5, return_confirmed=$6, decline_reason=$7, cancel_reason=$8,
	          last_status_change_at=$9, updated_on=$10 WHERE id=$11`
	_, err := r.db.ExecContext(ctx, query,
		rt.Status, rt.EndDate, rt.TotalAmountCents, rt.DepositCents,
		rt.FeeCents, rt.ReturnConfirmed, rt.DeclineReason, rt.CancelReason,
		rt.LastStatusChangeAt, time.Now(), rt.ID,
	)
	return err
}

func (r *rentalRepository) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *rentalRepository) ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *rentalRepository) list(ctx context.Context, column string, userID int64, status string, page, pageSize int32) ([]domain.RentalRequest, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + rentalColumns + ` FROM rental_requests WHERE ` + column + ` = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += " AND status = $2"
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rentals, err := scanRentals(rows)
	if err != nil {
		return nil, 0, err
	}
	return rentals, count, nil
}

func (r *rentalRepository) ListApprovedBefore(ctx context.Context, cutoff time.Time) ([]domain.RentalRequest, error) {
	query := `SELECT ` + rentalColumns + ` FROM rental_requests
	          WHERE status = $1 AND last_status_change_at < $2 ORDER BY last_status_change_at ASC`
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusApproved, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

func (r *rentalRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time) ([]domain.RentalRequest, error) {
	query := `SELECT ` + rentalColumns + ` FROM rental_requests
	          WHERE status = $1 AND last_status_change_at < $2 ORDER BY last_status_change_at ASC`
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusCompleted, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRentals(rows)
}

func scanRentals(rows *sql.Rows) ([]domain.RentalRequest, error) {
	var rentals []domain.RentalRequest
	for rows.Next() {
		var rt domain.RentalRequest
		if err := rows.Scan(
			&rt.ID, &rt.ItemID, &rt.RenterID, &rt.OwnerID, &rt.StartDate, &rt.EndDate, &rt.Status,
			&rt.TotalAmountCents, &rt.DepositCents, &rt.FeeCents, &rt.DailyRateCents, &rt.ReturnConfirmed,
			&rt.DeclineReason, &rt.CancelReason, &rt.LastStatusChangeAt, &rt.CreatedOn, &rt.UpdatedOn,
		); err != nil {
			return nil, err
		}
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}
