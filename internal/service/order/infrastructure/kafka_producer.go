// internal/service/order/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"ordercore/internal/service/order/domain"
)

// KafkaEventProducer 是 port.EventProducer 的 Kafka 实现。
// 消息以客户 ID 作为分区键，同一客户的事件保持有序。
type KafkaEventProducer struct {
	writer *kafka.Writer
}

// NewKafkaEventProducer 创建事件生产者。
func NewKafkaEventProducer(brokers []string, topic string) *KafkaEventProducer {
	return &KafkaEventProducer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// OrderCreated 发布订单创建事件，链路上下文通过消息头向下游传播。
func (p *KafkaEventProducer) OrderCreated(ctx context.Context, event *domain.OrderCreatedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal order created event")
	}

	msg := kafka.Message{
		Key:   []byte(event.CustomerID),
		Value: payload,
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, "write order created event")
	}
	return nil
}

// Close 关闭底层 writer。
func (p *KafkaEventProducer) Close() error {
	return p.writer.Close()
}
