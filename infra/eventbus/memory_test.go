package eventbus

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/amirasaad/codepay/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBus_DispatchesByType(t *testing.T) {
	bus := NewWithMemory(slog.Default())

	var got []string
	bus.Register(events.TypeUserCreated, func(_ context.Context, e events.Event) error {
		got = append(got, "first:"+e.(*events.UserCreated).UserID)
		return nil
	})
	bus.Register(events.TypeUserCreated, func(_ context.Context, e events.Event) error {
		got = append(got, "second:"+e.(*events.UserCreated).UserID)
		return nil
	})
	bus.Register(events.TypeOrderCreated, func(context.Context, events.Event) error {
		t.Fatal("order handler must not run")
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), &events.UserCreated{UserID: "u1"}))
	assert.Equal(t, []string{"first:u1", "second:u1"}, got)
	assert.Len(t, bus.PublishedOf(events.TypeUserCreated), 1)
}

func TestMemoryBus_HandlerFailuresDoNotReachEmitter(t *testing.T) {
	bus := NewWithMemory(nil)
	ran := false
	bus.Register(events.TypePaymentSettled, func(context.Context, events.Event) error {
		return errors.New("boom")
	})
	bus.Register(events.TypePaymentSettled, func(context.Context, events.Event) error {
		panic("kaboom")
	})
	bus.Register(events.TypePaymentSettled, func(context.Context, events.Event) error {
		ran = true
		return nil
	})

	err := bus.Emit(context.Background(), &events.PaymentSettled{PaymentID: "p1", Amount: money.MustParse("75")})
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestMemoryBus_ClearPublished(t *testing.T) {
	bus := NewWithMemory(nil)
	require.NoError(t, bus.Emit(context.Background(), &events.OrderExpired{OrderID: "o1"}))
	require.Len(t, bus.Published(), 1)
	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}
