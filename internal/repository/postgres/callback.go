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

type callbackRepository struct {
	db *sql.DB
}

func NewCallbackRepository(db *sql.DB) repository.CallbackRepository {
	return &callbackRepository{db: db}
}

// Record inserts the processor transaction id. The unique constraint on
// txn_id makes replay detection a single write: a conflict means the
// callback was already applied.
func (r *callbackRepository) Record(ctx context.Context, txnID, kind string, targetID int64, outcome string) error {
	query := `INSERT INTO processor_callbacks (txn_id, kind, target_id, outcome, received_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, txnID, kind, targetID, outcome, time.Now())
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return domain.ErrTxnSeen
	}
	return err
}

func (r *callbackRepository) Delete(ctx context.Context, txnID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM processor_callbacks WHERE txn_id = $1`, txnID)
	return err
}
