package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahnaf-tech/storefront/core"
)

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
	deadline bool
	closed   bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, w.deadline = ctx.Deadline()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := newKafkaNotifier(w, 0)
	assert.Equal(t, DefaultTimeout, n.timeout)

	n.Notify(context.Background(), core.ResourceProduct, core.OperationCreate, "42", []byte(`{"id":"42"}`))

	require.Len(t, w.messages, 1)
	m := w.messages[0]
	assert.Equal(t, "42", string(m.Key))
	assert.JSONEq(t, `{"id":"42"}`, string(m.Value))
	assert.Equal(t, "product", header(m, "resource"))
	assert.Equal(t, "create", header(m, "operation"))
	assert.True(t, w.deadline)

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifierSurvivesCancelledRequest(t *testing.T) {
	w := &fakeWriter{}
	n := newKafkaNotifier(w, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Notify(ctx, core.ResourceSolarProject, core.OperationDelete, "7", []byte(`{}`))
	assert.Len(t, w.messages, 1)
}

func TestKafkaNotifierFailure(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	n := newKafkaNotifier(w, time.Second)
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), core.ResourceGasPrice, core.OperationPatch, "1", []byte(`{}`))
	})
	assert.Empty(t, w.messages)
}

func TestNewKafkaNotifierPanics(t *testing.T) {
	assert.PanicsWithValue(t, "Brokers are missing", func() {
		NewKafkaNotifier(&KafkaNotifierBuilder{Topic: "catalog"})
	})
	assert.PanicsWithValue(t, "Topic is missing", func() {
		NewKafkaNotifier(&KafkaNotifierBuilder{Brokers: []string{"localhost:9092"}})
	})
	n := NewKafkaNotifier(&KafkaNotifierBuilder{Brokers: []string{"localhost:9092"}, Topic: "catalog"})
	require.NoError(t, n.Close())
}
