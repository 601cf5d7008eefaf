package repository

import (
	"context"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/ledger"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
)

// ledgerRepository has no update or delete path by construction.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new LedgerRepository using the provided *gorm.DB.
func NewLedgerRepository(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Append(ctx context.Context, e *ledger.Entry) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toLedgerModel(e)).Error
	})
}

func (r *ledgerRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*ledger.Entry, error) {
	var rows []LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*ledger.Entry, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *ledgerRepository) SumByTypeSince(
	ctx context.Context,
	accountID string,
	typ ledger.Type,
	since time.Time,
) (money.Amount, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("account_id = ? AND type = ? AND created_at >= ?", accountID, string(typ), since).
		Scan(&total).Error
	if err != nil {
		return 0, MapGormErrorToDomain(err)
	}
	return money.Amount(total), nil
}
