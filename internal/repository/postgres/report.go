package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gearshare-backend/internal/domain"
	"gearshare-backend/internal/repository"
)

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, rep *domain.ConditionReport) error {
	photos, err := json.Marshal(rep.Photos)
	if err != nil {
		return err
	}
	damages, err := json.Marshal(rep.Damages)
	if err != nil {
		return err
	}
	query := `INSERT INTO condition_reports (rental_request_id, type, reported_by_user_id, photos, damages, signature, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	now := time.Now()
	rep.CreatedOn = now
	return r.db.QueryRowContext(ctx, query,
		rep.RentalRequestID, rep.Type, rep.ReportedByUserID, photos, damages, rep.Signature, now,
	).Scan(&rep.ID)
}

func (r *reportRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.ConditionReport, error) {
	query := `SELECT id, rental_request_id, type, reported_by_user_id, photos, damages, signature, created_on
	          FROM condition_reports WHERE rental_request_id = $1 ORDER BY created_on ASC`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.ConditionReport
	for rows.Next() {
		var rep domain.ConditionReport
		var photos, damages []byte
		if err := rows.Scan(&rep.ID, &rep.RentalRequestID, &rep.Type, &rep.ReportedByUserID,
			&photos, &damages, &rep.Signature, &rep.CreatedOn); err != nil {
			return nil, err
		}
		if len(photos) > 0 {
			if err := json.Unmarshal(photos, &rep.Photos); err != nil {
				return nil, err
			}
		}
		if len(damages) > 0 {
			if err := json.Unmarshal(damages, &rep.Damages); err != nil {
				return nil, err
			}
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func (r *reportRepository) CountByType(ctx context.Context, rentalID int64, typ domain.ReportType) (int32, error) {
	var count int32
	query := `SELECT count(*) FROM condition_reports WHERE rental_request_id = $1 AND type = $2`
	err := r.db.QueryRowContext(ctx, query, rentalID, typ).Scan(&count)
	return count, err
}

func (r *reportRepository) Exists(ctx context.Context, rentalID int64, typ domain.ReportType, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM condition_reports WHERE rental_request_id = $1 AND type = $2 AND reported_by_user_id = $3)`
	err := r.db.QueryRowContext(ctx, query, rentalID, typ, userID).Scan(&exists)
	return exists, err
}
