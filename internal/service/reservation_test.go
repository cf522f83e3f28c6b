package service

import (
	"context"
	"testing"

	"pulse-service/internal/backend"
	"pulse-service/internal/identity"
	"pulse-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservationService(store *fakeStore) *ReservationService {
	selector := backend.NewSelector(store, nil, nil, false)
	hasher := identity.NewHasher("test-secret")
	return NewReservationService(selector, hasher, pulseConfig())
}

func TestSyncCartWritesDigestedIdentity(t *testing.T) {
	store := newFakeStore()
	svc := newTestReservationService(store)

	items := []models.LineItem{
		{Type: models.LineItemTypeProduct, ReferencedID: productA, Quantity: 2},
	}

	require.NoError(t, svc.SyncCart(context.Background(), "session-token", "", items))

	cartID := identity.NewHasher("test-secret").Digest("session-token")
	require.Contains(t, store.synced, cartID)
	assert.Equal(t, map[string]int{productA: 2}, store.synced[cartID])

	// Sync also refreshes the cart's presence heartbeat.
	assert.Equal(t, []string{cartID}, store.touchedCarts)
}

func TestSyncCartEmptyTokenIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := newTestReservationService(store)

	require.NoError(t, svc.SyncCart(context.Background(), "", "", nil))
	assert.Empty(t, store.synced)
}

func TestClearCartRemovesLedgerAndPresence(t *testing.T) {
	store := newFakeStore()
	svc := newTestReservationService(store)

	require.NoError(t, svc.ClearCart(context.Background(), "session-token", ""))

	cartID := identity.NewHasher("test-secret").Digest("session-token")
	assert.Equal(t, []string{cartID}, store.clearedCarts)
}
