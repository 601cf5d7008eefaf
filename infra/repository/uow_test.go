package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/codepay/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockUoW(t *testing.T) (*UoW, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)
	return NewUoW(db), mock
}

func TestUoW_DoAndGetRepository(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	uow, mock := newMockUoW(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		repoAny, err := txUow.GetRepository(repository.AccountRepositoryType)
		require.NoError(err)
		_, ok := repoAny.(*accountRepository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(repository.LedgerRepositoryType)
		require.NoError(err)
		_, ok = repoAny.(*ledgerRepository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(repository.OrderRepositoryType)
		require.NoError(err)
		_, ok = repoAny.(*orderRepository)
		assert.True(ok)

		repoAny, err = txUow.GetRepository(repository.PaymentRepositoryType)
		require.NoError(err)
		_, ok = repoAny.(*paymentRepository)
		assert.True(ok)
		return nil
	})
	assert.NoError(err)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	uow, mock := newMockUoW(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_TypeSafeMethods(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	uow, _ := newMockUoW(t)

	accounts, err := uow.AccountRepository()
	require.NoError(err)
	assert.NotNil(accounts)

	aliases, err := uow.AliasRepository()
	require.NoError(err)
	assert.NotNil(aliases)

	audits, err := uow.AuditRepository()
	require.NoError(err)
	assert.NotNil(audits)

	_, err = uow.GetRepository(reflect.TypeOf(""))
	assert.Error(err)
}

func TestOrderTransition_ConditionalUpdate(t *testing.T) {
	uow, mock := newMockUoW(t)
	orders, err := uow.OrderRepository()
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := orders.Transition(context.Background(), "o1", "pending", "confirmed", "p1", fixedTime)
	require.NoError(t, err)
	assert.False(t, changed, "a row no longer pending is not updated")
	assert.NoError(t, mock.ExpectationsWereMet())
}
