package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/amirasaad/codepay/pkg/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	assert.NoError(t, MapGormErrorToDomain(nil))
	assert.ErrorIs(t, MapGormErrorToDomain(gorm.ErrRecordNotFound), domain.ErrNotFound)
	assert.ErrorIs(t, MapGormErrorToDomain(fmt.Errorf("first: %w", gorm.ErrRecordNotFound)), domain.ErrNotFound)

	dup := MapGormErrorToDomain(fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey))
	assert.ErrorIs(t, dup, domain.ErrConflict)
	assert.ErrorIs(t, dup, gorm.ErrDuplicatedKey)

	other := errors.New("connection reset")
	assert.Equal(t, other, MapGormErrorToDomain(other))
}

func TestWrapError(t *testing.T) {
	err := WrapError(func() error { return gorm.ErrRecordNotFound })
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, WrapError(func() error { return nil }))
}
