package repository

import (
	"context"

	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
)

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new AuditRepository using the provided *gorm.DB.
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Append(ctx context.Context, rec *audit.Record) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toAuditModel(rec)).Error
	})
}

func (r *auditRepository) ListRecent(ctx context.Context, action audit.Action, limit int) ([]*audit.Record, error) {
	var rows []AuditRecord
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if action != "" {
		q = q.Where("action = ?", string(action))
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*audit.Record, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}
