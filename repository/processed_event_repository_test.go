package repository

import (
	"context"
	"testing"

	"sweatstakes/domain/entities"
	"sweatstakes/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedEventRepository_Record(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	repo := NewProcessedEventRepository(testDB.DB)

	t.Run("first delivery inserts", func(t *testing.T) {
		inserted, err := repo.Record(ctx, entities.WebhookProviderPayment, "pi_first", "payment_succeeded")
		require.NoError(t, err)
		assert.True(t, inserted)

		event, err := repo.GetByRef(ctx, entities.WebhookProviderPayment, "pi_first")
		require.NoError(t, err)
		require.NotNil(t, event)
		assert.Equal(t, "payment_succeeded", event.EventType)
		assert.False(t, event.ProcessedAt.IsZero())
	})

	t.Run("redelivery inserts nothing", func(t *testing.T) {
		inserted, err := repo.Record(ctx, entities.WebhookProviderPayment, "pi_first", "payment_succeeded")
		require.NoError(t, err)
		assert.False(t, inserted)
	})

	t.Run("same reference from another provider is a new event", func(t *testing.T) {
		inserted, err := repo.Record(ctx, entities.WebhookProviderFulfillment, "pi_first", "delivery_succeeded")
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("unknown reference reads as nil", func(t *testing.T) {
		event, err := repo.GetByRef(ctx, entities.WebhookProviderPayment, "pi_never_seen")
		require.NoError(t, err)
		assert.Nil(t, event)
	})
}
