package models

import (
	"sort"
	"time"
)

// Reservation is one (cart, product) row in the reservation ledger.
// CartID is a one-way keyed digest of the cart session token, hex encoded;
// raw tokens are never persisted.
type Reservation struct {
	CartID    string    `db:"cart_id" json:"cart_id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CartPresence is the liveness heartbeat for one cart session.
type CartPresence struct {
	CartID     string    `db:"cart_id" json:"cart_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// ViewerPresence is the liveness heartbeat for one viewer on one product page.
type ViewerPresence struct {
	ProductID  string    `db:"product_id" json:"product_id"`
	ViewerID   string    `db:"viewer_id" json:"viewer_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// ProductSnapshot is the read-only stock fact for a product. It is owned by
// the catalog, not by this service.
type ProductSnapshot struct {
	ProductID       string     `db:"product_id"`
	Active          bool       `db:"active"`
	Stock           int        `db:"stock"`
	MinPurchase     float64    `db:"min_purchase"`
	IsCloseout      bool       `db:"is_closeout"`
	RestockTime     int        `db:"restock_time"`
	HasDeliveryTime bool       `db:"has_delivery_time"`
	ReleaseDate     *time.Time `db:"release_date"`
}

// Status codes returned to polling clients.
const (
	StatusAvailable    = "available"
	StatusReserved     = "reserved"
	StatusSoldout      = "soldout"
	StatusRestock      = "restock"
	StatusPreorder     = "preorder"
	StatusNotAvailable = "not_available"
)

// StockState is the payload answered to a stock-state query.
type StockState struct {
	ProductID         string  `json:"productId"`
	Stock             int     `json:"stock"`
	EffectiveStock    int     `json:"effectiveStock"`
	ReservedQuantity  int     `json:"reservedQuantity"`
	AllocatedQuantity int     `json:"allocatedQuantity"`
	StatusCode        string  `json:"statusCode"`
	IsReservedByOther bool    `json:"isReservedByOther"`
	LockEnabled       bool    `json:"lockEnabled"`
	RestockTime       int     `json:"restockTime"`
	IsCloseout        bool    `json:"isCloseout"`
	MinPurchase       float64 `json:"minPurchase"`
}

// ViewerState is the payload answered to a viewer heartbeat.
type ViewerState struct {
	ProductID   string `json:"productId"`
	ViewerCount int    `json:"viewerCount"`
}

// SortReservations orders ledger rows by first-reservation time, ties broken
// by cart identity. Both backends must present rows in this order so the
// FIFO allocation walk gives the same answer regardless of which backend
// produced them.
func SortReservations(rows []Reservation) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CartID < rows[j].CartID
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})
}
