package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"pulse-service/internal/models"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/prune_reservations.lua
var pruneReservationsScript string

//go:embed scripts/count_viewers.lua
var countViewersScript string

// Key layout. Reservation state for one product is split across a quantity
// hash and two zsets scored by unix milliseconds, so staleness can be evicted
// by score range. A per-cart set indexes which products the cart reserves.
const (
	reservationQtyKey     = "pulse:resv:qty:%s"
	reservationCreatedKey = "pulse:resv:created:%s"
	reservationUpdatedKey = "pulse:resv:updated:%s"
	cartIndexKey          = "pulse:cart:%s"
	cartPresenceKey       = "pulse:presence:carts"
	viewersKey            = "pulse:viewers:%s"
)

// Client is the volatile reservation/presence backend on Redis. It satisfies
// the same contract as the SQL store; because Redis has no ambient
// "DELETE WHERE" sweep, every mutating call evicts its own expired entries by
// score range.
type Client struct {
	rdb            *redis.Client
	pruneScript    *redis.Script
	countScript    *redis.Script
	reservationTTL time.Duration
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int, reservationTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:            rdb,
		pruneScript:    redis.NewScript(pruneReservationsScript),
		countScript:    redis.NewScript(countViewersScript),
		reservationTTL: reservationTTL,
	}, nil
}

// Ping probes the connection. The backend selector uses it to decide whether
// Redis is usable for a scope.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SyncCart reconciles the cart's product set. Quantities are replaced, the
// created score is written only once per (cart, product) via ZADD NX, and
// products absent from the map are removed.
func (c *Client) SyncCart(ctx context.Context, cartID string, quantities map[string]int) error {
	indexKey := fmt.Sprintf(cartIndexKey, cartID)

	existing, err := c.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to load cart index: %w", err)
	}

	now := float64(time.Now().UnixMilli())
	pipe := c.rdb.Pipeline()

	for _, productID := range existing {
		if qty, ok := quantities[productID]; ok && qty >= 1 {
			continue
		}
		pipe.HDel(ctx, fmt.Sprintf(reservationQtyKey, productID), cartID)
		pipe.ZRem(ctx, fmt.Sprintf(reservationCreatedKey, productID), cartID)
		pipe.ZRem(ctx, fmt.Sprintf(reservationUpdatedKey, productID), cartID)
		pipe.SRem(ctx, indexKey, productID)
	}

	for productID, qty := range quantities {
		if qty < 1 {
			continue
		}
		pipe.HSet(ctx, fmt.Sprintf(reservationQtyKey, productID), cartID, qty)
		pipe.ZAddNX(ctx, fmt.Sprintf(reservationCreatedKey, productID), &redis.Z{Score: now, Member: cartID})
		pipe.ZAdd(ctx, fmt.Sprintf(reservationUpdatedKey, productID), &redis.Z{Score: now, Member: cartID})
		pipe.SAdd(ctx, indexKey, productID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to sync cart reservations: %w", err)
	}

	cutoff := float64(time.Now().Add(-c.reservationTTL).UnixMilli())
	for productID := range quantities {
		c.pruneReservations(ctx, productID, cutoff)
	}

	return nil
}

// ClearCart deletes every reservation the cart holds and its product index.
func (c *Client) ClearCart(ctx context.Context, cartID string) error {
	indexKey := fmt.Sprintf(cartIndexKey, cartID)

	products, err := c.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("failed to load cart index: %w", err)
	}

	pipe := c.rdb.Pipeline()
	for _, productID := range products {
		pipe.HDel(ctx, fmt.Sprintf(reservationQtyKey, productID), cartID)
		pipe.ZRem(ctx, fmt.Sprintf(reservationCreatedKey, productID), cartID)
		pipe.ZRem(ctx, fmt.Sprintf(reservationUpdatedKey, productID), cartID)
	}
	pipe.Del(ctx, indexKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear cart reservations: %w", err)
	}
	return nil
}

// ActiveReservations returns live ledger rows for the product: fresh within
// reservationTTL, owned by a cart with a fresh presence heartbeat, ordered by
// created score then cart identity.
func (c *Client) ActiveReservations(ctx context.Context, productID string, reservationTTL, presenceTTL time.Duration) ([]models.Reservation, error) {
	now := time.Now()
	cutoff := fmt.Sprintf("%d", now.Add(-reservationTTL).UnixMilli())

	fresh, err := c.rdb.ZRangeByScore(ctx, fmt.Sprintf(reservationUpdatedKey, productID), &redis.ZRangeBy{
		Min: cutoff,
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load fresh reservations: %w", err)
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	pipe := c.rdb.Pipeline()
	qtyCmd := pipe.HMGet(ctx, fmt.Sprintf(reservationQtyKey, productID), fresh...)
	createdCmd := pipe.ZMScore(ctx, fmt.Sprintf(reservationCreatedKey, productID), fresh...)
	updatedCmd := pipe.ZMScore(ctx, fmt.Sprintf(reservationUpdatedKey, productID), fresh...)
	presenceCmd := pipe.ZMScore(ctx, cartPresenceKey, fresh...)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load reservation details: %w", err)
	}

	qtys := qtyCmd.Val()
	created := createdCmd.Val()
	updated := updatedCmd.Val()
	presence := presenceCmd.Val()
	presenceCutoff := float64(now.Add(-presenceTTL).UnixMilli())

	rows := make([]models.Reservation, 0, len(fresh))
	for i, cartID := range fresh {
		if i >= len(presence) || presence[i] < presenceCutoff {
			continue
		}
		qty := 0
		if i < len(qtys) {
			if str, ok := qtys[i].(string); ok {
				fmt.Sscanf(str, "%d", &qty)
			}
		}
		if qty < 1 {
			continue
		}
		row := models.Reservation{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
		}
		if i < len(created) {
			row.CreatedAt = time.UnixMilli(int64(created[i]))
		}
		if i < len(updated) {
			row.UpdatedAt = time.UnixMilli(int64(updated[i]))
		}
		rows = append(rows, row)
	}

	models.SortReservations(rows)
	return rows, nil
}

// TouchCartPresence advances the cart's heartbeat score and evicts expired
// heartbeats by score range.
func (c *Client) TouchCartPresence(ctx context.Context, cartID string, ttl time.Duration) error {
	now := time.Now()
	pipe := c.rdb.Pipeline()
	pipe.ZAdd(ctx, cartPresenceKey, &redis.Z{Score: float64(now.UnixMilli()), Member: cartID})
	pipe.ZRemRangeByScore(ctx, cartPresenceKey, "-inf",
		fmt.Sprintf("(%d", now.Add(-ttl).UnixMilli()))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch cart presence: %w", err)
	}
	return nil
}

// RemoveCartPresence deletes the cart's heartbeat.
func (c *Client) RemoveCartPresence(ctx context.Context, cartID string) error {
	return c.rdb.ZRem(ctx, cartPresenceKey, cartID).Err()
}

// TouchViewer advances a viewer heartbeat for the product.
func (c *Client) TouchViewer(ctx context.Context, productID, viewerID string, ttl time.Duration) error {
	now := time.Now()
	key := fmt.Sprintf(viewersKey, productID)
	pipe := c.rdb.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(now.UnixMilli()), Member: viewerID})
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", now.Add(-ttl).UnixMilli()))
	pipe.Expire(ctx, key, ttl*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch viewer presence: %w", err)
	}
	return nil
}

// CountViewers prunes and counts live viewers, excluding the caller, in one
// scripted round trip.
func (c *Client) CountViewers(ctx context.Context, productID string, ttl time.Duration, excludingViewerID string) (int, error) {
	key := fmt.Sprintf(viewersKey, productID)
	cutoff := time.Now().Add(-ttl).UnixMilli()

	result, err := c.countScript.Run(ctx, c.rdb, []string{key}, cutoff, excludingViewerID).Result()
	if err != nil {
		return 0, fmt.Errorf("count viewers script failed: %w", err)
	}

	count, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}
	if count < 0 {
		count = 0
	}
	return int(count), nil
}

// RemoveViewer deletes one viewer heartbeat.
func (c *Client) RemoveViewer(ctx context.Context, productID, viewerID string) error {
	return c.rdb.ZRem(ctx, fmt.Sprintf(viewersKey, productID), viewerID).Err()
}

// SweepExpired walks reservation and viewer keys with SCAN and evicts aged
// entries. The per-call eviction on the write path already keeps hot keys
// tidy; this catches keys that stopped receiving writes.
func (c *Client) SweepExpired(ctx context.Context, reservationTTL, cartPresenceTTL, viewerTTL time.Duration) error {
	now := time.Now()

	if err := c.rdb.ZRemRangeByScore(ctx, cartPresenceKey, "-inf",
		fmt.Sprintf("(%d", now.Add(-cartPresenceTTL).UnixMilli())).Err(); err != nil {
		return fmt.Errorf("failed to sweep cart presence: %w", err)
	}

	reservationCutoff := float64(now.Add(-reservationTTL).UnixMilli())
	iter := c.rdb.Scan(ctx, 0, fmt.Sprintf(reservationUpdatedKey, "*"), 100).Iterator()
	prefix := fmt.Sprintf(reservationUpdatedKey, "")
	for iter.Next(ctx) {
		productID := iter.Val()[len(prefix):]
		c.pruneReservations(ctx, productID, reservationCutoff)
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan reservation keys: %w", err)
	}

	viewerCutoff := fmt.Sprintf("(%d", now.Add(-viewerTTL).UnixMilli())
	iter = c.rdb.Scan(ctx, 0, fmt.Sprintf(viewersKey, "*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.ZRemRangeByScore(ctx, iter.Val(), "-inf", viewerCutoff).Err(); err != nil {
			return fmt.Errorf("failed to sweep viewers: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan viewer keys: %w", err)
	}

	return nil
}

// pruneReservations evicts stale entries for one product. Best effort: a
// failed prune never fails the write it rides along with.
func (c *Client) pruneReservations(ctx context.Context, productID string, cutoff float64) {
	keys := []string{
		fmt.Sprintf(reservationQtyKey, productID),
		fmt.Sprintf(reservationCreatedKey, productID),
		fmt.Sprintf(reservationUpdatedKey, productID),
	}
	_ = c.pruneScript.Run(ctx, c.rdb, keys, cutoff).Err()
}
