package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gearshare-backend/internal/domain"
)

func TestEscrowRepository_CreateAccount_Duplicate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewEscrowRepository(db)

	mock.ExpectQuery(`INSERT INTO escrow_accounts`).
		WillReturnError(&pq.Error{Code: "23505"})

	err = repo.CreateAccount(context.Background(), &domain.EscrowAccount{
		RentalRequestID: 100, AmountCents: 10000, Status: domain.EscrowStatusHeld,
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyHeld)
}

func TestEscrowRepository_CreateAccount(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewEscrowRepository(db)

	mock.ExpectQuery(`INSERT INTO escrow_accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	acct := &domain.EscrowAccount{
		RentalRequestID: 100, AmountCents: 10000, FeeCents: 1500, DepositCents: 5000,
		Status: domain.EscrowStatusHeld, ProcessorTxnID: "txn_1",
	}
	err = repo.CreateAccount(context.Background(), acct)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), acct.ID)
	assert.False(t, acct.HeldAt.IsZero())
}

func TestEscrowRepository_AddFunds(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewEscrowRepository(db)

	mock.ExpectExec(`UPDATE escrow_accounts SET amount_cents = amount_cents \+ \$1, fee_cents = fee_cents \+ \$2`).
		WithArgs(int64(6000), int64(900), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.AddFunds(context.Background(), 1, 6000, 900)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
