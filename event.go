package travelpay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Gateway notification types. The notification is only a hint that the order
// changed; processing always re-reads the order from the gateway.
const (
	EventTypeOrderCompleted      = "order.completed"
	EventTypeOrderFailed         = "order.failed"
	EventTypeOrderExpired        = "order.expired"
	EventTypeTransactionRefunded = "transaction.refunded"
	EventTypeTransactionVoided   = "transaction.voided"
)

// GatewayEvent is a notification pushed by the card gateway about one of our
// orders.
type GatewayEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	OrderID   string    `json:"orderId"`
	Timestamp time.Time `json:"timestamp"`
}

type EventHandler func(context.Context, *GatewayEvent) error

type EventManager struct {
	natsConn *nats.Conn
	handlers map[string]EventHandler
	logger   *zap.Logger
}

func NewEventManager(natsConn *nats.Conn, logger *zap.Logger) *EventManager {
	return &EventManager{
		natsConn: natsConn,
		handlers: make(map[string]EventHandler),
		logger:   logger,
	}
}

func (em *EventManager) RegisterHandler(eventType string, handler EventHandler) {
	em.handlers[eventType] = handler
}

func (em *EventManager) GetHandler(eventType string) (EventHandler, bool) {
	handler, exists := em.handlers[eventType]
	return handler, exists
}

func (em *EventManager) PublishEvent(event *GatewayEvent) error {
	subject := fmt.Sprintf("gateway.event.%s", event.Type)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return em.natsConn.Publish(subject, data)
}

func (em *EventManager) SubscribeToEvents(wp *WorkerPool) error {
	_, err := em.natsConn.Subscribe("gateway.event.>", func(msg *nats.Msg) {
		var event GatewayEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			em.logger.Error("Failed to unmarshal event", zap.Error(err))
			return
		}

		wp.Submit(context.Background(), &event)
	})

	return err
}

func (tp *travelPayments) registerEventHandlers() {
	eventHandlers := map[string]EventHandler{
		EventTypeOrderCompleted:      tp.handleOrderEvent,
		EventTypeOrderFailed:         tp.handleOrderEvent,
		EventTypeOrderExpired:        tp.handleOrderEvent,
		EventTypeTransactionRefunded: tp.handleOrderEvent,
		EventTypeTransactionVoided:   tp.handleOrderEvent,
	}

	for eventType, handler := range eventHandlers {
		tp.eventManager.RegisterHandler(eventType, handler)
	}
}
