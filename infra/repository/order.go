package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/amirasaad/codepay/pkg/domain/order"
	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository using the provided *gorm.DB.
func NewOrderRepository(db *gorm.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toOrderModel(o)).Error
	})
}

func (r *orderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var m Order
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*order.Order, error) {
	var m Order
	if err := r.db.WithContext(ctx).First(&m, "payment_code = ?", code).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}

func (r *orderRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Order{}).Where("payment_code = ?", code).Count(&n).Error
	if err != nil {
		return false, MapGormErrorToDomain(err)
	}
	return n > 0, nil
}

func (r *orderRepository) Transition(
	ctx context.Context,
	id string,
	from, to order.Status,
	paymentID string,
	at time.Time,
) (bool, error) {
	if !order.CanTransition(from, to) {
		return false, fmt.Errorf("order %s: %s -> %s: %w", id, from, to, domain.ErrConflict)
	}
	updates := map[string]any{"status": string(to), "updated_at": at}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	res := r.db.WithContext(ctx).
		Model(&Order{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, MapGormErrorToDomain(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) ListPending(ctx context.Context, limit int) ([]*order.Order, error) {
	return r.list(ctx, limit, "created_at DESC", "status = ?", string(order.StatusPending))
}

func (r *orderRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]*order.Order, error) {
	return r.list(ctx, limit, "created_at ASC", "status = ? AND expires_at < ?", string(order.StatusPending), now)
}

func (r *orderRepository) list(ctx context.Context, limit int, sort, query string, args ...any) ([]*order.Order, error) {
	var rows []Order
	err := r.db.WithContext(ctx).
		Where(query, args...).
		Order(sort).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*order.Order, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
