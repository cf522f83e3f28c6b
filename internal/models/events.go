package models

import "time"

// Event types consumed from the cart pipeline
const (
	EventTypeCartUpdated   = "CartUpdated"
	EventTypeCartSaved     = "CartSaved"
	EventTypeCartConverted = "CartConverted"
)

// BaseEvent contains common event fields
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LineItem is one entry of a cart snapshot. Items of type "product" carry a
// referenced product id; container items (bundles, promotions) nest their
// contents under Children.
type LineItem struct {
	Type         string     `json:"type"`
	ReferencedID string     `json:"referenced_id,omitempty"`
	Quantity     int        `json:"quantity"`
	Children     []LineItem `json:"children,omitempty"`
}

// LineItemTypeProduct marks line items that reference a purchasable product.
const LineItemTypeProduct = "product"

// CartEvent is emitted by the cart pipeline whenever a cart changes, is
// persisted, or is converted to an order. CartToken is the raw session token;
// it is digested before anything touches storage.
type CartEvent struct {
	BaseEvent
	CartToken string     `json:"cart_token"`
	Scope     string     `json:"scope,omitempty"`
	LineItems []LineItem `json:"line_items,omitempty"`
}
