package repository

import (
	"context"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/payment"
	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository using the provided *gorm.DB.
func NewPaymentRepository(db *gorm.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toPaymentModel(p)).Error
	})
}

func (r *paymentRepository) Get(ctx context.Context, id string) (*payment.Payment, error) {
	var m Payment
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *paymentRepository) MarkReversed(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Payment{}).
		Where("id = ? AND status = ?", id, string(payment.StatusConfirmed)).
		Updates(map[string]any{"status": string(payment.StatusReversed), "reversed_at": at})
	if res.Error != nil {
		return false, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected == 1, nil
}
