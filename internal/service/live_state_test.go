package service

import (
	"context"
	"testing"
	"time"

	"pulse-service/config"
	"pulse-service/internal/backend"
	"pulse-service/internal/identity"
	"pulse-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory backend.Store for service tests.
type fakeStore struct {
	reservations map[string][]models.Reservation // productID -> rows
	viewerCounts map[string]int
	touchedCarts []string
	clearedCarts []string
	synced       map[string]map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reservations: make(map[string][]models.Reservation),
		viewerCounts: make(map[string]int),
		synced:       make(map[string]map[string]int),
	}
}

func (f *fakeStore) SyncCart(_ context.Context, cartID string, quantities map[string]int) error {
	f.synced[cartID] = quantities
	return nil
}

func (f *fakeStore) ClearCart(_ context.Context, cartID string) error {
	f.clearedCarts = append(f.clearedCarts, cartID)
	return nil
}

func (f *fakeStore) ActiveReservations(_ context.Context, productID string, _, _ time.Duration) ([]models.Reservation, error) {
	return f.reservations[productID], nil
}

func (f *fakeStore) TouchCartPresence(_ context.Context, cartID string, _ time.Duration) error {
	f.touchedCarts = append(f.touchedCarts, cartID)
	return nil
}

func (f *fakeStore) RemoveCartPresence(_ context.Context, cartID string) error { return nil }

func (f *fakeStore) TouchViewer(_ context.Context, productID, viewerID string, _ time.Duration) error {
	return nil
}

func (f *fakeStore) CountViewers(_ context.Context, productID string, _ time.Duration, _ string) (int, error) {
	return f.viewerCounts[productID], nil
}

func (f *fakeStore) RemoveViewer(_ context.Context, productID, viewerID string) error { return nil }

func (f *fakeStore) SweepExpired(_ context.Context, _, _, _ time.Duration) error { return nil }

// fakeProducts serves canned snapshots.
type fakeProducts struct {
	snapshots map[string]*models.ProductSnapshot
}

func (f *fakeProducts) GetProductSnapshot(_ context.Context, productID string) (*models.ProductSnapshot, error) {
	return f.snapshots[productID], nil
}

func pulseConfig() config.PulseConfig {
	return config.PulseConfig{
		ReservationTTL:  30 * time.Minute,
		CartPresenceTTL: 2 * time.Minute,
		ViewerTTL:       45 * time.Second,
		LockReserved:    true,
		IdentitySecret:  "test-secret",
	}
}

func newTestService(store *fakeStore, products *fakeProducts) *LiveStateService {
	selector := backend.NewSelector(store, nil, nil, false)
	hasher := identity.NewHasher("test-secret")
	return NewLiveStateService(selector, products, hasher, pulseConfig())
}

func TestGetStockStateInvalidProductID(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProducts{})

	state, err := svc.GetStockState(context.Background(), "nope", "", "")

	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestGetStockStateUnknownProduct(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProducts{snapshots: map[string]*models.ProductSnapshot{}})

	state, err := svc.GetStockState(context.Background(), productA, "", "")

	assert.NoError(t, err)
	assert.Nil(t, state)
}

func TestGetStockStateReservedByOther(t *testing.T) {
	store := newFakeStore()
	hasher := identity.NewHasher("test-secret")
	otherCart := hasher.Digest("other-session")
	store.reservations[productA] = []models.Reservation{
		{CartID: otherCart, ProductID: productA, Quantity: 5},
	}

	products := &fakeProducts{snapshots: map[string]*models.ProductSnapshot{
		productA: {ProductID: productA, Active: true, Stock: 5, MinPurchase: 1},
	}}
	svc := newTestService(store, products)

	state, err := svc.GetStockState(context.Background(), productA, "", "my-session")
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, models.StatusReserved, state.StatusCode)
	assert.True(t, state.IsReservedByOther)
	assert.Equal(t, 5, state.ReservedQuantity)
	assert.Equal(t, 0, state.EffectiveStock)
	assert.Equal(t, 0, state.AllocatedQuantity)
	assert.True(t, state.LockEnabled)
}

func TestGetStockStateOwnAllocationWins(t *testing.T) {
	store := newFakeStore()
	hasher := identity.NewHasher("test-secret")
	myCart := hasher.Digest("my-session")
	otherCart := hasher.Digest("other-session")
	store.reservations[productA] = []models.Reservation{
		{CartID: myCart, ProductID: productA, Quantity: 2, CreatedAt: time.Now().Add(-time.Minute)},
		{CartID: otherCart, ProductID: productA, Quantity: 5, CreatedAt: time.Now()},
	}

	products := &fakeProducts{snapshots: map[string]*models.ProductSnapshot{
		productA: {ProductID: productA, Active: true, Stock: 5, MinPurchase: 1},
	}}
	svc := newTestService(store, products)

	state, err := svc.GetStockState(context.Background(), productA, "", "my-session")
	require.NoError(t, err)
	require.NotNil(t, state)

	// Other carts reserve 5, but this cart reserved first: its allocation
	// covers the minimum purchase, so it still sees "available".
	assert.Equal(t, models.StatusAvailable, state.StatusCode)
	assert.Equal(t, 5, state.ReservedQuantity)
	assert.Equal(t, 2, state.AllocatedQuantity)
	assert.False(t, state.IsReservedByOther)
}

func TestGetStockStateAnonymousCartSeesReservations(t *testing.T) {
	store := newFakeStore()
	store.reservations[productA] = []models.Reservation{
		{CartID: "someone", ProductID: productA, Quantity: 5},
	}
	products := &fakeProducts{snapshots: map[string]*models.ProductSnapshot{
		productA: {ProductID: productA, Active: true, Stock: 5, MinPurchase: 1},
	}}
	svc := newTestService(store, products)

	state, err := svc.GetStockState(context.Background(), productA, "", "")
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, models.StatusReserved, state.StatusCode)
	assert.Equal(t, 0, state.AllocatedQuantity)
}

func TestGetViewerStateRejectsBadTokens(t *testing.T) {
	svc := newTestService(newFakeStore(), &fakeProducts{})

	for _, token := range []string{"", "bad token", "tok;en", string(make([]byte, 200))} {
		state, err := svc.GetViewerState(context.Background(), productA, token, "")
		assert.NoError(t, err)
		assert.Nil(t, state)
	}
}

func TestGetViewerStateCounts(t *testing.T) {
	store := newFakeStore()
	store.viewerCounts[productA] = 3
	svc := newTestService(store, &fakeProducts{})

	state, err := svc.GetViewerState(context.Background(), productA, "viewer-1", "")
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.Equal(t, productA, state.ProductID)
	assert.Equal(t, 3, state.ViewerCount)
}

func TestTouchCartPresenceDigestsToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeProducts{})

	require.NoError(t, svc.TouchCartPresence(context.Background(), "raw-session-token", ""))

	require.Len(t, store.touchedCarts, 1)
	// The raw token must never reach the store.
	assert.NotEqual(t, "raw-session-token", store.touchedCarts[0])
	assert.Equal(t, identity.NewHasher("test-secret").Digest("raw-session-token"), store.touchedCarts[0])
}

func TestTouchCartPresenceEmptyTokenIsNoop(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &fakeProducts{})

	require.NoError(t, svc.TouchCartPresence(context.Background(), "", ""))
	assert.Empty(t, store.touchedCarts)
}
