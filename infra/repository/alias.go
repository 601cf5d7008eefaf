package repository

import (
	"context"

	"github.com/amirasaad/codepay/pkg/domain/alias"
	"github.com/amirasaad/codepay/pkg/repository"
	"gorm.io/gorm"
)

type aliasRepository struct {
	db *gorm.DB
}

// NewAliasRepository creates a new AliasRepository using the provided *gorm.DB.
func NewAliasRepository(db *gorm.DB) repository.AliasRepository {
	return &aliasRepository{db: db}
}

func (r *aliasRepository) Create(ctx context.Context, a *alias.Alias) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toAliasModel(a)).Error
	})
}

func (r *aliasRepository) GetByValue(ctx context.Context, value string) (*alias.Alias, error) {
	var m Alias
	if err := r.db.WithContext(ctx).First(&m, "value = ?", value).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return m.toDomain(), nil
}
