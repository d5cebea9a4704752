package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns a writer for outbox dispatch. The topic is taken from each
// message, and records with the same key land on the same partition.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}
