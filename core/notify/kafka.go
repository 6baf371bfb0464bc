// Package notify publishes catalog changes to a message broker
package notify

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/sahnaf-tech/storefront/core"
	"github.com/sahnaf-tech/storefront/core/logger"
)

// DefaultTimeout is the time a single notification may take to be written
const DefaultTimeout = 5 * time.Second

// messageWriter is the part of *kafka.Writer the notifier uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes one message per catalog change to a Kafka topic. The
// message key is the resource id, so all changes of one entity land in the
// same partition in order.
type KafkaNotifier struct {
	writer  messageWriter
	timeout time.Duration
}

// KafkaNotifierBuilder is a builder helper for the KafkaNotifier
type KafkaNotifierBuilder struct {
	// Brokers are the addresses of the Kafka brokers. This is mandatory.
	Brokers []string
	// Topic is the topic the changes are written to. This is mandatory.
	Topic string
	// Timeout limits a single write. Optional, defaults to DefaultTimeout
	Timeout time.Duration
}

// NewKafkaNotifier returns a notifier writing to the configured topic
func NewKafkaNotifier(knb *KafkaNotifierBuilder) *KafkaNotifier {
	if len(knb.Brokers) == 0 {
		panic("Brokers are missing")
	}
	if knb.Topic == "" {
		panic("Topic is missing")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(knb.Brokers...),
		Topic:                  knb.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newKafkaNotifier(writer, knb.Timeout)
}

func newKafkaNotifier(writer messageWriter, timeout time.Duration) *KafkaNotifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &KafkaNotifier{writer: writer, timeout: timeout}
}

// Notify implements core.Notifier. The write outlives a cancelled request,
// failures are logged.
func (n *KafkaNotifier) Notify(ctx context.Context, resource string, operation core.Operation, resourceID string, payload []byte) {
	rlog := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	message := kafka.Message{
		Key:   []byte(resourceID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "resource", Value: []byte(resource)},
			{Key: "operation", Value: []byte(operation)},
			{Key: "request_id", Value: []byte(logger.RequestIDFromContext(ctx))},
		},
		Time: time.Now().UTC(),
	}
	if err := n.writer.WriteMessages(ctx, message); err != nil {
		rlog.WithError(err).Errorf("Error 5001: cannot publish %s %s %s", operation, resource, resourceID)
		return
	}
	rlog.Debugln("published", operation, resource, resourceID)
}

// Close flushes pending messages and closes the writer
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
