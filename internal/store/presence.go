package store

import (
	"context"
	"fmt"
	"time"
)

// TouchCartPresence upserts the cart's heartbeat. created_at is set once;
// last_seen_at always advances to now. The ttl parameter is unused here
// because the SQL backend filters by timestamp at read time; it is part of
// the contract for the Redis backend's eager eviction.
func (s *Store) TouchCartPresence(ctx context.Context, cartID string, _ time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pulse_cart_presence (cart_id, created_at, last_seen_at)
		VALUES ($1, NOW(), NOW())
		ON CONFLICT (cart_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at`,
		cartID)
	if err != nil {
		return fmt.Errorf("failed to touch cart presence: %w", err)
	}
	return nil
}

// RemoveCartPresence deletes the cart's heartbeat (explicit leave or
// checkout conversion).
func (s *Store) RemoveCartPresence(ctx context.Context, cartID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pulse_cart_presence WHERE cart_id = $1", cartID)
	return err
}

// TouchViewer upserts a viewer heartbeat scoped to one product.
func (s *Store) TouchViewer(ctx context.Context, productID, viewerID string, _ time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pulse_viewer_presence (product_id, viewer_id, created_at, last_seen_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (product_id, viewer_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at`,
		productID, viewerID)
	if err != nil {
		return fmt.Errorf("failed to touch viewer presence: %w", err)
	}
	return nil
}

// CountViewers counts live viewers of the product other than the caller.
func (s *Store) CountViewers(ctx context.Context, productID string, ttl time.Duration, excludingViewerID string) (int, error) {
	cutoff := time.Now().Add(-ttl)

	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM pulse_viewer_presence
		WHERE product_id = $1
		  AND last_seen_at >= $2
		  AND viewer_id <> $3`,
		productID, cutoff, excludingViewerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count viewers: %w", err)
	}
	return count, nil
}

// RemoveViewer deletes one viewer heartbeat.
func (s *Store) RemoveViewer(ctx context.Context, productID, viewerID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM pulse_viewer_presence WHERE product_id = $1 AND viewer_id = $2",
		productID, viewerID)
	return err
}
