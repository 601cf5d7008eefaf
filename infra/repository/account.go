package repository

import (
	"context"
	"strings"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/account"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new AccountRepository using the provided *gorm.DB.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id string) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, kind account.Kind, email string) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Where("kind = ? AND email = ?", string(kind), strings.ToLower(email)).
		First(&m).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *accountRepository) FindByName(
	ctx context.Context,
	kind account.Kind,
	fragment string,
	limit int,
) ([]*account.Account, error) {
	var rows []Account
	pattern := "%" + escapeLike(strings.ToLower(fragment)) + "%"
	err := r.db.WithContext(ctx).
		Where("kind = ? AND LOWER(name) LIKE ? ESCAPE '\\'", string(kind), pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Account, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := toAccountModel(a)
	if m.Email != nil {
		lower := strings.ToLower(*m.Email)
		m.Email = &lower
	}
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(m).Error
	})
}

func (r *accountRepository) SetBalance(ctx context.Context, id string, balance money.Amount, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]any{"balance": int64(balance), "updated_at": at})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return MapGormErrorToDomain(gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *accountRepository) SumBalances(ctx context.Context) (money.Amount, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&Account{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return money.Amount(total), nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
