package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/codepay/pkg/lock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_BankLast(t *testing.T) {
	k := lock.NewKeyed("bank", 0)
	assert.Equal(t, []string{"a", "m", "z", "bank"}, k.Order("bank", "z", "a", "m", "a", ""))
	assert.Equal(t, []string{"u1"}, k.Order("u1"))
}

func TestLock_SerializesSameKey(t *testing.T) {
	t.Parallel()
	k := lock.NewKeyed("bank", time.Second)
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "u1", "bank")
			require.NoError(t, err)
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Zero(t, k.Len())
}

func TestLock_OppositeOrderDoesNotDeadlock(t *testing.T) {
	t.Parallel()
	k := lock.NewKeyed("bank", 2*time.Second)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "a", "b", "bank")
			require.NoError(t, err)
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "bank", "b", "a")
			require.NoError(t, err)
			unlock()
		}()
	}
	wg.Wait()
}

func TestLock_Timeout(t *testing.T) {
	t.Parallel()
	k := lock.NewKeyed("bank", 20*time.Millisecond)
	unlock, err := k.Lock(context.Background(), "u1")
	require.NoError(t, err)

	_, err = k.Lock(context.Background(), "u0", "u1")
	require.ErrorIs(t, err, lock.ErrTimeout)

	// u0 was released when acquiring u1 failed.
	unlock2, err := k.Lock(context.Background(), "u0")
	require.NoError(t, err)
	unlock2()

	unlock()
	unlock() // idempotent
	assert.Zero(t, k.Len())
}

func TestLock_ContextCancelled(t *testing.T) {
	t.Parallel()
	k := lock.NewKeyed("bank", 0)
	unlock, err := k.Lock(context.Background(), "bank")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = k.Lock(ctx, "bank")
	assert.ErrorIs(t, err, context.Canceled)
}
