package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type escrowRepository struct {
	db *sql.DB
}

func NewEscrowRepository(db *sql.DB) repository.EscrowRepository {
	return &escrowRepository{db: db}
}

func (r *escrowRepository) CreateAccount(ctx context.Context, acct *domain.EscrowAccount) error {
	query := `INSERT INTO escrow_accounts (rental_request_id, amount_cents, fee_cents, deposit_cents, status, processor_txn_id, held_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	acct.HeldAt = time.Now()
	err := r.db.QueryRowContext(ctx, query,
		acct.RentalRequestID, acct.AmountCents, acct.FeeCents, acct.DepositCents,
		acct.Status, acct.ProcessorTxnID, acct.HeldAt,
	).Scan(&acct.ID)
	// rental_request_id carries a unique constraint: the second hold for
	// the same rental surfaces as AlreadyHeld, not a duplicate row.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrAlreadyHeld
	}
	return err
}

func (r *escrowRepository) GetByRental(ctx context.Context, rentalID int64) (*domain.EscrowAccount, error) {
	acct := &domain.EscrowAccount{}
	query := `SELECT id, rental_request_id, amount_cents, fee_cents, deposit_cents, status, COALESCE(processor_txn_id, ''), held_at, released_at
	          FROM escrow_accounts WHERE rental_request_id = $1`
	err := r.db.QueryRowContext(ctx, query, rentalID).Scan(
		&acct.ID, &acct.RentalRequestID, &acct.AmountCents, &acct.FeeCents, &acct.DepositCents,
		&acct.Status, &acct.ProcessorTxnID, &acct.HeldAt, &acct.ReleasedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func (r *escrowRepository) UpdateStatus(ctx context.Context, acctID int64, status domain.EscrowStatus, releasedAt *time.Time) error {
	query := `UPDATE escrow_accounts SET status=$1, released_at=COALESCE($2, released_at) WHERE id=$3`
	_, err := r.db.ExecContext(ctx, query, status, releasedAt, acctID)
	return err
}

func (r *escrowRepository) AddFunds(ctx context.Context, acctID int64, amountDeltaCents, feeDeltaCents int64) error {
	query := `UPDATE escrow_accounts SET amount_cents = amount_cents + $1, fee_cents = fee_cents + $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, amountDeltaCents, feeDeltaCents, acctID)
	return err
}

func (r *escrowRepository) CreateEntry(ctx context.Context, e *domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (rental_request_id, user_id, amount_cents, type, description, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	e.CreatedOn = time.Now()
	return r.db.QueryRowContext(ctx, query,
		e.RentalRequestID, e.UserID, e.AmountCents, e.Type, e.Description, e.CreatedOn,
	).Scan(&e.ID)
}

func (r *escrowRepository) ListEntries(ctx context.Context, rentalID int64) ([]domain.LedgerEntry, error) {
	query := `SELECT id, rental_request_id, user_id, amount_cents, type, COALESCE(description, ''), created_on
	          FROM ledger_entries WHERE rental_request_id = $1 ORDER BY created_on ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.RentalRequestID, &e.UserID, &e.AmountCents, &e.Type, &e.Description, &e.CreatedOn); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
