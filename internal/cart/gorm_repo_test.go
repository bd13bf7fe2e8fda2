package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/mercadito-backend/pkg/db/dbtest"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

func TestGormRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	client := dbtest.NewSQLite(t)
	repo := NewGormRepository(client.DB())
	storeID := uuid.New()

	_, err := repo.Get(ctx, "s1", storeID)
	require.ErrorIs(t, err, ErrCartNotFound)

	cart := &models.Cart{SessionID: "s1", StoreID: storeID, Items: types.CartLines{}}
	require.NoError(t, repo.Create(ctx, cart))
	assert.NotEqual(t, uuid.Nil, cart.ID)

	dup := &models.Cart{SessionID: "s1", StoreID: storeID, Items: types.CartLines{}}
	require.ErrorIs(t, repo.Create(ctx, dup), ErrCartExists)

	cart.Items = types.CartLines{{ProductID: uuid.New(), Name: "Taco", Price: decimal.RequireFromString("2.50"), Quantity: 4}}
	Recompute(cart)
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Get(ctx, "s1", storeID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 4, loaded.TotalItems)
	assert.True(t, loaded.Subtotal.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "Taco", loaded.Items[0].Name)

	missing := &models.Cart{ID: uuid.New(), SessionID: "x", StoreID: storeID}
	require.ErrorIs(t, repo.Save(ctx, missing), ErrCartNotFound)
}

func TestGormRepositoryDeletes(t *testing.T) {
	ctx := context.Background()
	client := dbtest.NewSQLite(t)
	repo := NewGormRepository(client.DB())
	storeA, storeB := uuid.New(), uuid.New()

	for _, session := range []string{"a", "b"} {
		require.NoError(t, repo.Create(ctx, &models.Cart{SessionID: session, StoreID: storeA, Items: types.CartLines{}}))
	}
	require.NoError(t, repo.Create(ctx, &models.Cart{SessionID: "a", StoreID: storeB, Items: types.CartLines{}}))

	n, err := repo.DeleteByStore(ctx, storeA)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	stale := time.Now().Add(-48 * time.Hour).UTC()
	require.NoError(t, client.DB().Model(&models.Cart{}).Where("store_id = ?", storeB).UpdateColumn("updated_at", stale).Error)

	n, err = repo.DeleteIdleBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
