package repository

import (
	"context"
	"reflect"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Do runs the given function in a transaction boundary, providing a UnitOfWork
// whose repositories all share that transaction. Repositories obtained from the
// outer UnitOfWork run outside any transaction.
//
//	repoAny, err := uow.GetRepository(reflect.TypeOf((*AccountRepository)(nil)).Elem())
//	repo := repoAny.(AccountRepository)
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error,
	// the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	// GetRepository returns a repository of the requested type bound to the current session.
	GetRepository(repoType reflect.Type) (any, error)

	AccountRepository() (AccountRepository, error)
	LedgerRepository() (LedgerRepository, error)
	OrderRepository() (OrderRepository, error)
	PaymentRepository() (PaymentRepository, error)
	AliasRepository() (AliasRepository, error)
	AuditRepository() (AuditRepository, error)
}

// Type helpers for GetRepository.
var (
	AccountRepositoryType = reflect.TypeOf((*AccountRepository)(nil)).Elem()
	LedgerRepositoryType  = reflect.TypeOf((*LedgerRepository)(nil)).Elem()
	OrderRepositoryType   = reflect.TypeOf((*OrderRepository)(nil)).Elem()
	PaymentRepositoryType = reflect.TypeOf((*PaymentRepository)(nil)).Elem()
	AliasRepositoryType   = reflect.TypeOf((*AliasRepository)(nil)).Elem()
	AuditRepositoryType   = reflect.TypeOf((*AuditRepository)(nil)).Elem()
)
