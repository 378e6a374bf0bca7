// Package shipping consumes order-shipped events and surfaces them as
// operator notifications.
package shipping

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-warehouse-orders.git/internal/kafka"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/redisx"
	"github.com/ariefcatur/go-warehouse-orders.git/internal/warehouse"
)

type Service struct {
	Redis *redis.Client
	Log   *zap.Logger
}

// HandleOrderShipped is mounted as the consumer handler for the shipped topic.
func (s *Service) HandleOrderShipped(ctx context.Context, m kafkago.Message) error {
	var env warehouse.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != warehouse.EventOrderShipped {
		return nil // ignore anything else on the topic
	}

	// dedup on event_id so redelivery does not double-notify
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "shipping", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	p, err := kafkax.UnwrapPayload[warehouse.OrderShippedPayload](env.Payload)
	if err != nil {
		return err
	}
	s.log().Info("order shipped",
		zap.String("order_id", p.OrderID),
		zap.String("customer", p.CustomerName),
		zap.String("shipped_on", p.ShippedOn.String()))
	return nil
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
