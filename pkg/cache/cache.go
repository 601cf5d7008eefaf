package cache

import (
	"context"
	"time"
)

// AliasCache maps alias values to the id of the user they belong to.
// A miss is reported as ok == false with a nil error.
type AliasCache interface {
	Get(ctx context.Context, alias string) (userID string, ok bool, err error)
	Set(ctx context.Context, alias, userID string, ttl time.Duration) error
	Delete(ctx context.Context, alias string) error
}
