package service

import (
	"context"
	"fmt"
	"time"

	"pulse-service/config"
	"pulse-service/internal/backend"
	"pulse-service/internal/identity"
	"pulse-service/internal/models"
	"pulse-service/internal/util"

	"go.uber.org/zap"
)

// ProductProvider supplies read-only stock facts. The catalog owns these;
// the pulse engine never writes them.
type ProductProvider interface {
	GetProductSnapshot(ctx context.Context, productID string) (*models.ProductSnapshot, error)
}

// LiveStateService resolves the near-real-time stock and viewer state a
// product page polls for.
type LiveStateService struct {
	selector *backend.Selector
	products ProductProvider
	hasher   *identity.Hasher
	cfg      config.PulseConfig
	logger   *zap.Logger
}

// NewLiveStateService creates a new live state service
func NewLiveStateService(
	selector *backend.Selector,
	products ProductProvider,
	hasher *identity.Hasher,
	cfg config.PulseConfig,
) *LiveStateService {
	return &LiveStateService{
		selector: selector,
		products: products,
		hasher:   hasher,
		cfg:      cfg,
		logger:   util.GetLogger(),
	}
}

// GetStockState resolves the display status of a product for the requesting
// cart. A malformed or unknown product id yields (nil, nil) rather than an
// error, since both are routinely produced by untrusted clients.
func (s *LiveStateService) GetStockState(ctx context.Context, productID, scope, cartToken string) (*models.StockState, error) {
	ctx, span := util.StartSpan(ctx, "LiveStateService.GetStockState")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockStateLatency.Observe(time.Since(start).Seconds())
	}()

	if !identity.IsValidProductID(productID) {
		util.StockStateRequestsTotal.WithLabelValues("invalid_id").Inc()
		return nil, nil
	}

	product, err := s.products.GetProductSnapshot(ctx, productID)
	if err != nil {
		util.StockStateRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load product snapshot: %w", err)
	}
	if product == nil {
		util.StockStateRequestsTotal.WithLabelValues("not_found").Inc()
		return nil, nil
	}

	store := s.selector.Resolve(ctx, scope)
	rows, err := store.ActiveReservations(ctx, productID, s.cfg.ReservationTTL, s.cfg.CartPresenceTTL)
	if err != nil {
		util.StockStateRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load reservations: %w", err)
	}

	cartID := ""
	if cartToken != "" {
		cartID = s.hasher.Digest(cartToken)
	}

	stock := product.Stock
	if stock < 0 {
		stock = 0
	}
	minPurchase := product.MinPurchase
	if minPurchase < 1 {
		minPurchase = 1
	}

	reserved := ReservedQuantity(rows, cartID)
	effectiveStock := stock - reserved
	if effectiveStock < 0 {
		effectiveStock = 0
	}

	allocated := 0
	if cartID != "" {
		allocated = AllocatedQuantity(rows, cartID, stock)
	}

	statusCode := ResolveStatus(StatusFacts{
		Active:            product.Active,
		Stock:             stock,
		EffectiveStock:    effectiveStock,
		ReservedQuantity:  reserved,
		AllocatedQuantity: allocated,
		MinPurchase:       minPurchase,
		IsCloseout:        product.IsCloseout,
		RestockTime:       product.RestockTime,
		HasDeliveryTime:   product.HasDeliveryTime,
		ReleaseDate:       product.ReleaseDate,
	})

	util.StockStateRequestsTotal.WithLabelValues(statusCode).Inc()

	return &models.StockState{
		ProductID:         productID,
		Stock:             stock,
		EffectiveStock:    effectiveStock,
		ReservedQuantity:  reserved,
		AllocatedQuantity: allocated,
		StatusCode:        statusCode,
		IsReservedByOther: statusCode == models.StatusReserved,
		LockEnabled:       s.cfg.LockReserved,
		RestockTime:       product.RestockTime,
		IsCloseout:        product.IsCloseout,
		MinPurchase:       minPurchase,
	}, nil
}

// GetViewerState records the viewer's heartbeat on a product page and
// reports how many other viewers are live on it. Invalid product ids and
// malformed viewer tokens yield (nil, nil).
func (s *LiveStateService) GetViewerState(ctx context.Context, productID, viewerToken, scope string) (*models.ViewerState, error) {
	ctx, span := util.StartSpan(ctx, "LiveStateService.GetViewerState")
	defer span.End()

	if !identity.IsValidProductID(productID) {
		return nil, nil
	}

	normalized, ok := identity.NormalizeViewerToken(viewerToken)
	if !ok {
		return nil, nil
	}
	viewerID := s.hasher.Digest(normalized)

	store := s.selector.Resolve(ctx, scope)
	if err := store.TouchViewer(ctx, productID, viewerID, s.cfg.ViewerTTL); err != nil {
		return nil, fmt.Errorf("failed to touch viewer: %w", err)
	}
	util.ViewerHeartbeatsTotal.Inc()

	count, err := store.CountViewers(ctx, productID, s.cfg.ViewerTTL, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to count viewers: %w", err)
	}

	return &models.ViewerState{
		ProductID:   productID,
		ViewerCount: count,
	}, nil
}

// RemoveViewer drops a viewer heartbeat when the shopper leaves the page.
// No-op on malformed input.
func (s *LiveStateService) RemoveViewer(ctx context.Context, productID, viewerToken, scope string) error {
	if !identity.IsValidProductID(productID) {
		return nil
	}
	normalized, ok := identity.NormalizeViewerToken(viewerToken)
	if !ok {
		return nil
	}

	store := s.selector.Resolve(ctx, scope)
	return store.RemoveViewer(ctx, productID, s.hasher.Digest(normalized))
}

// TouchCartPresence records a cart session heartbeat.
func (s *LiveStateService) TouchCartPresence(ctx context.Context, cartToken, scope string) error {
	if cartToken == "" {
		return nil
	}
	util.CartHeartbeatsTotal.Inc()
	store := s.selector.Resolve(ctx, scope)
	return store.TouchCartPresence(ctx, s.hasher.Digest(cartToken), s.cfg.CartPresenceTTL)
}

// ClearCartPresence drops a cart session heartbeat on explicit leave.
func (s *LiveStateService) ClearCartPresence(ctx context.Context, cartToken, scope string) error {
	if cartToken == "" {
		return nil
	}
	store := s.selector.Resolve(ctx, scope)
	return store.RemoveCartPresence(ctx, s.hasher.Digest(cartToken))
}
