package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/amirasaad/codepay/pkg/domain/audit"
	"github.com/amirasaad/codepay/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryCoversEveryType(t *testing.T) {
	for name, build := range events.Registry {
		evt := build()
		assert.Equal(t, name, evt.Type())
		_, ok := evt.(events.Stampable)
		assert.True(t, ok, "%s must accept metadata", name)
	}
	assert.Len(t, events.Types(), 10)
}

func TestDecodeThroughRegistry(t *testing.T) {
	src := &events.PaymentSettled{
		PaymentID: "p1", OrderID: "o1", UserID: "u1", MerchantID: "m1",
		Amount: 3333, Fee: 67, AmountToMerchant: 3266, PaymentMethod: "wallet",
	}
	src.SetMeta(events.Meta{
		RequestMeta: audit.RequestMeta{ActorID: "u1", ActorType: audit.ActorUser, IP: "127.0.0.1"},
		OccurredAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	})

	raw, err := json.Marshal(src)
	require.NoError(t, err)

	dst := events.Registry[src.Type()]()
	require.NoError(t, json.Unmarshal(raw, dst))
	assert.Equal(t, src, dst)
	assert.Equal(t, "127.0.0.1", dst.Metadata().IP)
}
