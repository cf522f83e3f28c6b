package service

import (
	"context"
	"fmt"

	"pulse-service/config"
	"pulse-service/internal/backend"
	"pulse-service/internal/identity"
	"pulse-service/internal/models"
	"pulse-service/internal/util"

	"go.uber.org/zap"
)

// ReservationService applies cart lifecycle events to the reservation ledger
// and the cart presence store. It is invoked from the cart event worker;
// failures here must never block the triggering cart flow, so the worker
// logs and swallows anything these methods return.
type ReservationService struct {
	selector *backend.Selector
	hasher   *identity.Hasher
	cfg      config.PulseConfig
	logger   *zap.Logger
}

// NewReservationService creates a new reservation service
func NewReservationService(selector *backend.Selector, hasher *identity.Hasher, cfg config.PulseConfig) *ReservationService {
	return &ReservationService{
		selector: selector,
		hasher:   hasher,
		cfg:      cfg,
		logger:   util.GetLogger(),
	}
}

// SyncCart reconciles the ledger with the cart's current line items and
// refreshes the cart's presence heartbeat. Called on "cart mutated" and
// "cart saved".
func (s *ReservationService) SyncCart(ctx context.Context, cartToken, scope string, items []models.LineItem) error {
	ctx, span := util.StartSpan(ctx, "ReservationService.SyncCart")
	defer span.End()

	if cartToken == "" {
		return nil
	}

	cartID := s.hasher.Digest(cartToken)
	quantities := CollectProductQuantities(items)

	store := s.selector.Resolve(ctx, scope)
	if err := store.SyncCart(ctx, cartID, quantities); err != nil {
		util.ReservationSyncFailures.WithLabelValues("sync").Inc()
		return fmt.Errorf("failed to sync cart reservations: %w", err)
	}
	util.ReservationSyncsTotal.Inc()

	if err := store.TouchCartPresence(ctx, cartID, s.cfg.CartPresenceTTL); err != nil {
		util.ReservationSyncFailures.WithLabelValues("presence").Inc()
		return fmt.Errorf("failed to touch cart presence: %w", err)
	}

	s.logger.Debug("Cart reservations synced",
		zap.Int("products", len(quantities)),
		zap.String("scope", scope))
	return nil
}

// ClearCart deletes the cart's reservations and presence record. Called on
// "cart converted to order": once the cart became an order, its soft holds
// must stop shadowing stock for everyone else.
func (s *ReservationService) ClearCart(ctx context.Context, cartToken, scope string) error {
	ctx, span := util.StartSpan(ctx, "ReservationService.ClearCart")
	defer span.End()

	if cartToken == "" {
		return nil
	}

	cartID := s.hasher.Digest(cartToken)
	store := s.selector.Resolve(ctx, scope)

	if err := store.ClearCart(ctx, cartID); err != nil {
		util.ReservationSyncFailures.WithLabelValues("clear").Inc()
		return fmt.Errorf("failed to clear cart reservations: %w", err)
	}
	if err := store.RemoveCartPresence(ctx, cartID); err != nil {
		util.ReservationSyncFailures.WithLabelValues("presence").Inc()
		return fmt.Errorf("failed to remove cart presence: %w", err)
	}

	return nil
}
