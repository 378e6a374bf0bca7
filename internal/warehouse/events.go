package warehouse

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
)

const (
	EventOrderCreated = "OrderCreated"
	EventOrderShipped = "OrderShipped"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	OrderDate    Date   `json:"order_date"`
}

type OrderShippedPayload struct {
	OrderID      string `json:"order_id"`
	CustomerName string `json:"customer_name"`
	ShippedOn    Date   `json:"shipped_on"`
}

// Publisher is the slice of the kafka producer the Emitter needs.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Emitter publishes domain events after the owning transaction commits. A nil
// Emitter (or nil publisher) is a no-op, so the Engine runs without a broker
// in tests and one-shot commands.
type Emitter struct {
	Created Publisher
	Shipped Publisher
	Service string
}

func (e *Emitter) OrderCreated(o Order) {
	if e == nil {
		return
	}
	e.emit(e.Created, EventOrderCreated, o.ID, OrderCreatedPayload{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		OrderDate:    o.OrderDate,
	})
}

func (e *Emitter) OrderShipped(o Order, day Date) {
	if e == nil {
		return
	}
	e.emit(e.Shipped, EventOrderShipped, o.ID, OrderShippedPayload{
		OrderID:      o.ID,
		CustomerName: o.CustomerName,
		ShippedOn:    day,
	})
}

func (e *Emitter) emit(p Publisher, eventType, orderID string, payload any) {
	if p == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Service,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
