package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"pulse-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventHandler routes incoming cart events
type EventHandler struct {
	onCartMutated   func(context.Context, *models.CartEvent) error
	onCartConverted func(context.Context, *models.CartEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnCartMutated registers a handler for CartUpdated and CartSaved events
func (eh *EventHandler) OnCartMutated(handler func(context.Context, *models.CartEvent) error) {
	eh.onCartMutated = handler
}

// OnCartConverted registers a handler for CartConverted events
func (eh *EventHandler) OnCartConverted(handler func(context.Context, *models.CartEvent) error) {
	eh.onCartConverted = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.CartEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal cart event: %w", err)
	}

	switch event.EventType {
	case models.EventTypeCartUpdated, models.EventTypeCartSaved:
		if eh.onCartMutated != nil {
			return eh.onCartMutated(ctx, &event)
		}

	case models.EventTypeCartConverted:
		if eh.onCartConverted != nil {
			return eh.onCartConverted(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", event.EventType)
	}

	return nil
}
