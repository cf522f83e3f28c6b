package store

import (
	"context"
	"fmt"
	"time"

	"pulse-service/internal/models"
)

// SyncCart reconciles one cart's full product→quantity view against the
// ledger: quantities are replaced in place, products no longer in the map are
// deleted. Safe to call repeatedly with the same map.
func (s *Store) SyncCart(ctx context.Context, cartID string, quantities map[string]int) error {
	var existing []string
	err := s.db.SelectContext(ctx, &existing,
		"SELECT product_id FROM pulse_cart_reservations WHERE cart_id = $1", cartID)
	if err != nil {
		return fmt.Errorf("failed to load existing reservations: %w", err)
	}

	for _, productID := range existing {
		if qty, ok := quantities[productID]; ok && qty >= 1 {
			continue
		}
		_, err := s.db.ExecContext(ctx,
			"DELETE FROM pulse_cart_reservations WHERE cart_id = $1 AND product_id = $2",
			cartID, productID)
		if err != nil {
			return fmt.Errorf("failed to delete stale reservation: %w", err)
		}
	}

	for productID, qty := range quantities {
		if qty < 1 {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO pulse_cart_reservations (cart_id, product_id, quantity, created_at, updated_at)
			VALUES ($1, $2, $3, NOW(), NOW())
			ON CONFLICT (cart_id, product_id) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				updated_at = EXCLUDED.updated_at`,
			cartID, productID, qty)
		if err != nil {
			return fmt.Errorf("failed to upsert reservation: %w", err)
		}
	}

	return nil
}

// ClearCart deletes all reservations held by a cart (checkout conversion).
func (s *Store) ClearCart(ctx context.Context, cartID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pulse_cart_reservations WHERE cart_id = $1", cartID)
	return err
}

// ActiveReservations returns the product's live ledger rows. Liveness is a
// join condition: the row must be fresh within reservationTTL and its owning
// cart's presence heartbeat fresh within presenceTTL. Ordering is
// load-bearing for the FIFO allocation walk.
func (s *Store) ActiveReservations(ctx context.Context, productID string, reservationTTL, presenceTTL time.Duration) ([]models.Reservation, error) {
	cutoff := time.Now().Add(-reservationTTL)
	presenceCutoff := time.Now().Add(-presenceTTL)

	var rows []models.Reservation
	err := s.db.SelectContext(ctx, &rows, `
		SELECT r.cart_id, r.product_id, r.quantity, r.created_at, r.updated_at
		FROM pulse_cart_reservations r
		INNER JOIN pulse_cart_presence cp
			ON cp.cart_id = r.cart_id
			AND cp.last_seen_at >= $3
		WHERE r.product_id = $1
		  AND r.updated_at >= $2
		ORDER BY r.created_at ASC, r.cart_id ASC`,
		productID, cutoff, presenceCutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load active reservations: %w", err)
	}
	return rows, nil
}

// SweepExpired deletes reservation and presence rows that have aged out.
// Advisory: reads re-filter by timestamp regardless.
func (s *Store) SweepExpired(ctx context.Context, reservationTTL, cartPresenceTTL, viewerTTL time.Duration) error {
	now := time.Now()

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM pulse_cart_reservations WHERE updated_at < $1",
		now.Add(-reservationTTL)); err != nil {
		return fmt.Errorf("failed to sweep reservations: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM pulse_cart_presence WHERE last_seen_at < $1",
		now.Add(-cartPresenceTTL)); err != nil {
		return fmt.Errorf("failed to sweep cart presence: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM pulse_viewer_presence WHERE last_seen_at < $1",
		now.Add(-viewerTTL)); err != nil {
		return fmt.Errorf("failed to sweep viewer presence: %w", err)
	}

	return nil
}
