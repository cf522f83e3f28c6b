package backend

import (
	"context"
	"time"

	"pulse-service/internal/models"
)

// Store is the contract both the durable (Postgres) and volatile (Redis)
// backends satisfy. Identities are always keyed digests; TTLs are passed per
// call so reads re-filter by timestamp even if no sweep has run. The two
// implementations must return identical quantities for identical operation
// sequences.
type Store interface {
	// SyncCart reconciles a cart's full product set: quantities in the map
	// are replaced (not added), products missing from the map are deleted.
	SyncCart(ctx context.Context, cartID string, quantities map[string]int) error

	// ClearCart deletes every reservation held by the cart.
	ClearCart(ctx context.Context, cartID string) error

	// ActiveReservations returns the product's live ledger rows: updated
	// within reservationTTL and owned by a cart whose presence heartbeat is
	// within presenceTTL. Rows are ordered by created_at ascending, ties
	// broken by cart identity ascending.
	ActiveReservations(ctx context.Context, productID string, reservationTTL, presenceTTL time.Duration) ([]models.Reservation, error)

	// TouchCartPresence upserts the cart's heartbeat, advancing last_seen_at.
	TouchCartPresence(ctx context.Context, cartID string, ttl time.Duration) error

	// RemoveCartPresence deletes the cart's heartbeat.
	RemoveCartPresence(ctx context.Context, cartID string) error

	// TouchViewer upserts a viewer heartbeat for the product.
	TouchViewer(ctx context.Context, productID, viewerID string, ttl time.Duration) error

	// CountViewers counts live viewers of the product, excluding the given
	// viewer so a shopper never counts as another viewer of themselves.
	CountViewers(ctx context.Context, productID string, ttl time.Duration, excludingViewerID string) (int, error)

	// RemoveViewer deletes one viewer heartbeat.
	RemoveViewer(ctx context.Context, productID, viewerID string) error

	// SweepExpired deletes rows that have aged out of their TTL windows.
	// Advisory only: reads never depend on it having run.
	SweepExpired(ctx context.Context, reservationTTL, cartPresenceTTL, viewerTTL time.Duration) error
}
