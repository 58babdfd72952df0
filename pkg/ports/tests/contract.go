package tests

import (
	"context"
	"testing"

	"github.com/aretw0/meshpanel/pkg/domain"
	"github.com/aretw0/meshpanel/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLedgerStoreContract runs a suite of tests to verify that a LedgerStore implementation
// adheres to the defined interface contract.
func RunLedgerStoreContract(t *testing.T, store ports.LedgerStore) {
	t.Helper()
	ctx := context.Background()

	drone := domain.CreatedNode{
		ID:       42,
		Type:     domain.NodeTypeDrone,
		SubType:  "rust",
		Name:     "Drone42",
		Position: domain.Position{X: 120, Y: 80},
	}

	t.Run("Record and Get", func(t *testing.T) {
		require.NoError(t, store.Record(ctx, drone))

		loaded, err := store.Get(ctx, drone.ID)
		require.NoError(t, err)
		assert.Equal(t, drone, loaded)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, 999999)
		assert.ErrorIs(t, err, domain.ErrCreatedNodeNotFound)
	})

	t.Run("Record Replaces", func(t *testing.T) {
		moved := drone
		moved.Position = domain.Position{X: 1, Y: 2}
		require.NoError(t, store.Record(ctx, moved))

		loaded, err := store.Get(ctx, drone.ID)
		require.NoError(t, err)
		assert.Equal(t, moved.Position, loaded.Position)
	})

	t.Run("List Ordered", func(t *testing.T) {
		client := domain.CreatedNode{ID: 7, Type: domain.NodeTypeClient, SubType: domain.SubTypeWeb, Name: "Client7"}
		require.NoError(t, store.Record(ctx, client))
		defer func() { _ = store.Delete(ctx, client.ID) }()

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(list), 2)
		for i := 1; i < len(list); i++ {
			assert.Less(t, list[i-1].ID, list[i].ID)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, drone.ID))
		_, err := store.Get(ctx, drone.ID)
		assert.ErrorIs(t, err, domain.ErrCreatedNodeNotFound)

		assert.NoError(t, store.Delete(ctx, drone.ID), "deleting twice is not an error")
	})
}
