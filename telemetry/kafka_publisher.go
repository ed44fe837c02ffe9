package telemetry

import (
	"context"

	"github.com/goccy/go-json"
	kafka "github.com/segmentio/kafka-go"
)

// KafkaPublisher writes one message per snapshot to a Kafka topic using
// the standard kafka-go producer idiom.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher that writes to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(s Snapshot) error {
	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(context.Background(), kafka.Message{Value: body})
}

// Close releases the underlying Kafka writer's connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
