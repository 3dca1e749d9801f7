package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare-backend/internal/domain"
)

func rentalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "item_id", "renter_id", "owner_id", "start_date", "end_date", "status",
		"total_amount_cents", "deposit_cents", "fee_cents", "daily_rate_cents", "return_confirmed",
		"decline_reason", "cancel_reason", "last_status_change_at", "created_on", "updated_on",
	})
}

func TestRentalRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRentalRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM rental_requests WHERE id = \$1`).
		WithArgs(int64(100)).
		WillReturnRows(rentalRows().AddRow(
			100, 10, 2, 1, "2026-09-01", "2026-09-05", "PAID",
			10000, 5000, 1500, 2000, false, "", "", now, now, now,
		))

	rt, err := repo.GetByID(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, domain.RentalStatusPaid, rt.Status)
	assert.Equal(t, int64(2000), rt.DailyRateCents)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRentalRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM rental_requests WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnRows(rentalRows())

	_, err = repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRentalRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRentalRepository(db)

	mock.ExpectQuery(`INSERT INTO rental_requests`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(100))

	rt := &domain.RentalRequest{
		ItemID: 10, RenterID: 2, OwnerID: 1,
		StartDate: "2026-09-01", EndDate: "2026-09-05",
		Status: domain.RentalStatusPending, TotalAmountCents: 8000,
	}
	err = repo.Create(context.Background(), rt)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), rt.ID)
	assert.False(t, rt.LastStatusChangeAt.IsZero())
}

func TestRentalRepository_ListApprovedBefore(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewRentalRepository(db)

	stale := time.Now().Add(-30 * time.Hour)
	cutoff := time.Now().Add(-24 * time.Hour)
	mock.ExpectQuery(`SELECT (.+) FROM rental_requests\s+WHERE status = \$1 AND last_status_change_at < \$2`).
		WithArgs("APPROVED", cutoff).
		WillReturnRows(rentalRows().AddRow(
			100, 10, 2, 1, "2026-09-01", "2026-09-05", "APPROVED",
			10000, 5000, 0, 2000, false, "", "", stale, stale, stale,
		))

	rentals, err := repo.ListApprovedBefore(context.Background(), cutoff)
	assert.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, domain.RentalStatusApproved, rentals[0].Status)
}
