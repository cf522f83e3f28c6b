package worker

import (
	"context"
	"log"

	"pulse-service/internal/broker"
	"pulse-service/internal/models"
	"pulse-service/internal/service"
	"pulse-service/internal/util"

	"go.uber.org/zap"
)

// CartWorker consumes cart lifecycle events and keeps the reservation ledger
// and cart presence in step with them. Reservation bookkeeping is a
// best-effort side channel of the cart flow, so every failure is logged and
// swallowed here.
type CartWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	reservations *service.ReservationService
	logger       *zap.Logger
}

// NewCartWorker creates a new cart worker
func NewCartWorker(consumer *broker.Consumer, reservations *service.ReservationService) *CartWorker {
	logger := util.GetLogger()
	eventHandler := broker.NewEventHandler()

	w := &CartWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		reservations: reservations,
		logger:       logger,
	}

	eventHandler.OnCartMutated(w.handleCartMutated)
	eventHandler.OnCartConverted(w.handleCartConverted)

	return w
}

func (w *CartWorker) handleCartMutated(ctx context.Context, event *models.CartEvent) error {
	if err := w.reservations.SyncCart(ctx, event.CartToken, event.Scope, event.LineItems); err != nil {
		w.logger.Error("Failed to sync cart reservations on cart event",
			zap.String("event_type", event.EventType),
			zap.Error(err))
	}
	return nil
}

func (w *CartWorker) handleCartConverted(ctx context.Context, event *models.CartEvent) error {
	if err := w.reservations.ClearCart(ctx, event.CartToken, event.Scope); err != nil {
		w.logger.Error("Failed to clear cart reservations on checkout",
			zap.Error(err))
	}
	return nil
}

// Start starts the worker
func (w *CartWorker) Start(ctx context.Context) error {
	log.Println("Starting cart worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CartWorker) Stop() error {
	log.Println("Stopping cart worker...")
	return w.consumer.Close()
}
