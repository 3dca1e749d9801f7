package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type disputeRepository struct {
	db *sql.DB
}

func NewDisputeRepository(db *sql.DB) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

const disputeColumns = `id, rental_request_id, filed_by_user_id, against_user_id, reason,
	COALESCE(description, ''), evidence_refs, status, COALESCE(decision, ''),
	refund_to_renter_cents, charge_to_owner_cents, COALESCE(resolution_message, ''),
	resolved_by_user_id, resolved_at, created_on, updated_on`

func (r *disputeRepository) Create(ctx context.Context, d *domain.Dispute) error {
	evidence, err := json.Marshal(d.EvidenceRefs)
	if err != nil {
		return err
	}
	query := `INSERT INTO disputes (rental_request_id, filed_by_user_id, against_user_id, reason, description, evidence_refs, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	now := time.Now()
	d.CreatedOn = now
	d.UpdatedOn = now
	return r.db.QueryRowContext(ctx, query,
		d.RentalRequestID, d.FiledByUserID, d.AgainstUserID, d.Reason, d.Description, evidence, d.Status, now, now,
	).Scan(&d.ID)
}

func (r *disputeRepository) GetByID(ctx context.Context, id int64) (*domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`
	d, err := scanDispute(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return d, err
}

func (r *disputeRepository) Update(ctx context.Context, d *domain.Dispute) error {
	query := `UPDATE disputes SET status=$1, decision=$2, refund_to_renter_cents=$3, charge_to_owner_cents=$4,
	          resolution_message=$5, resolved_by_user_id=$6, resolved_at=$7, updated_on=$8 WHERE id=$9`
	d.UpdatedOn = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		d.Status, nullIfEmpty(string(d.Decision)), d.RefundToRenterCents, d.ChargeToOwnerCents,
		d.ResolutionMessage, d.ResolvedByUserID, d.ResolvedAt, d.UpdatedOn, d.ID,
	)
	return err
}

func (r *disputeRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE rental_request_id = $1 ORDER BY created_on DESC`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDisputes(rows)
}

func (r *disputeRepository) ListByStatus(ctx context.Context, statuses []domain.DisputeStatus, page, pageSize int32) ([]domain.Dispute, int32, error) {
	offset := (page - 1) * pageSize
	strs := make([]string, len(statuses))
	for i, s := range statuses {
		strs[i] = string(s)
	}

	var count int32
	countQuery := `SELECT count(*) FROM disputes WHERE status = ANY($1)`
	if err := r.db.QueryRowContext(ctx, countQuery, pq.Array(strs)).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE status = ANY($1)
	          ORDER BY created_on DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(strs), pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	disputes, err := scanDisputes(rows)
	if err != nil {
		return nil, 0, err
	}
	return disputes, count, nil
}

func (r *disputeRepository) HasBlocking(ctx context.Context, rentalID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM disputes WHERE rental_request_id = $1 AND status IN ($2, $3))`
	err := r.db.QueryRowContext(ctx, query, rentalID, domain.DisputeStatusOpen, domain.DisputeStatusUnderReview).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDispute(row rowScanner) (*domain.Dispute, error) {
	d := &domain.Dispute{}
	var evidence []byte
	var decision string
	err := row.Scan(&d.ID, &d.RentalRequestID, &d.FiledByUserID, &d.AgainstUserID, &d.Reason,
		&d.Description, &evidence, &d.Status, &decision,
		&d.RefundToRenterCents, &d.ChargeToOwnerCents, &d.ResolutionMessage,
		&d.ResolvedByUserID, &d.ResolvedAt, &d.CreatedOn, &d.UpdatedOn)
	if err != nil {
		return nil, err
	}
	d.Decision = domain.DisputeDecision(decision)
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &d.EvidenceRefs); err != nil {
			return nil, fmt.Errorf("unmarshal evidence refs: %w", err)
		}
	}
	return d, nil
}

func scanDisputes(rows *sql.Rows) ([]domain.Dispute, error) {
	var disputes []domain.Dispute
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, err
		}
		disputes = append(disputes, *d)
	}
	return disputes, rows.Err()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
