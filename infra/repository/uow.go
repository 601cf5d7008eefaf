package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// All repositories handed out inside Do share the same transaction.
type UoW struct {
	db           *gorm.DB
	tx           *gorm.DB
	repoRegistry map[reflect.Type]func(*gorm.DB) any
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{
		db: db,
		repoRegistry: map[reflect.Type]func(*gorm.DB) any{
			repository.AccountRepositoryType: func(db *gorm.DB) any { return NewAccountRepository(db) },
			repository.LedgerRepositoryType:  func(db *gorm.DB) any { return NewLedgerRepository(db) },
			repository.OrderRepositoryType:   func(db *gorm.DB) any { return NewOrderRepository(db) },
			repository.PaymentRepositoryType: func(db *gorm.DB) any { return NewPaymentRepository(db) },
			repository.AliasRepositoryType:   func(db *gorm.DB) any { return NewAliasRepository(db) },
			repository.AuditRepositoryType:   func(db *gorm.DB) any { return NewAuditRepository(db) },
		},
	}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
// Calling Do on a transactional UoW nests through a savepoint.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.session().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx, repoRegistry: u.repoRegistry})
	})
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// GetRepository provides type-safe access to repositories using the current session.
func (u *UoW) GetRepository(repoType reflect.Type) (any, error) {
	constructor, ok := u.repoRegistry[repoType]
	if !ok {
		return nil, fmt.Errorf("unsupported repository type: %v", repoType)
	}
	return constructor(u.session()), nil
}

func getTyped[T any](u *UoW, t reflect.Type) (T, error) {
	var zero T
	repoAny, err := u.GetRepository(t)
	if err != nil {
		return zero, err
	}
	repo, ok := repoAny.(T)
	if !ok {
		return zero, fmt.Errorf("repository %v has unexpected type %T", t, repoAny)
	}
	return repo, nil
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return getTyped[repository.AccountRepository](u, repository.AccountRepositoryType)
}

func (u *UoW) LedgerRepository() (repository.LedgerRepository, error) {
	return getTyped[repository.LedgerRepository](u, repository.LedgerRepositoryType)
}

func (u *UoW) OrderRepository() (repository.OrderRepository, error) {
	return getTyped[repository.OrderRepository](u, repository.OrderRepositoryType)
}

func (u *UoW) PaymentRepository() (repository.PaymentRepository, error) {
	return getTyped[repository.PaymentRepository](u, repository.PaymentRepositoryType)
}

func (u *UoW) AliasRepository() (repository.AliasRepository, error) {
	return getTyped[repository.AliasRepository](u, repository.AliasRepositoryType)
}

func (u *UoW) AuditRepository() (repository.AuditRepository, error) {
	return getTyped[repository.AuditRepository](u, repository.AuditRepositoryType)
}

var _ repository.UnitOfWork = (*UoW)(nil)
