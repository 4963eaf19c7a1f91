package kafka

import (
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"Athena/internal/config"
)

// NewWriter creates a Kafka writer for the given topic. Topic auto-creation
// is left to the broker configuration.
func NewWriter(cfg *config.KafkaConfig, topic string) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("no Kafka brokers configured")
	}
	return kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}), nil
}
