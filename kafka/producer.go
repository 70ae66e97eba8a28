package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes order lifecycle events to a single Kafka topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("kafka producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers))
	return &Producer{writer: w, topic: topic, logger: logger}
}

// Publish writes one message keyed by order id.
func (p *Producer) Publish(ctx context.Context, orderID string, message []byte) error {
	msg := kafka.Message{
		Key:   []byte(orderID),
		Value: message,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka publish failed",
			zap.String("order_id", orderID),
			zap.String("topic", p.topic),
			zap.Error(err))
		return err
	}
	return nil
}

func (p *Producer) Close() error {
	p.logger.Info("kafka producer closing", zap.String("topic", p.topic))
	return p.writer.Close()
}
