package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go-stock-engine/internal/model"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher_KeysByOperation(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaPublisher{writer: w, timeout: time.Second}
	op := uuid.New()

	err := p.Publish(context.Background(), model.StockEvent{
		Type:        model.EventStockUpdate,
		Action:      "production_committed",
		OperationID: op,
		Timestamp:   time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, op.String(), string(msg.Key))
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, model.EventStockUpdate, string(msg.Headers[0].Value))

	var decoded model.StockEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, op, decoded.OperationID)
}

func TestKafkaPublisher_AlertKeyedByType(t *testing.T) {
	w := &fakeWriter{}
	p := &kafkaPublisher{writer: w, timeout: time.Second}

	require.NoError(t, p.Publish(context.Background(), model.StockEvent{Type: model.EventStockAlert}))
	assert.Equal(t, model.EventStockAlert, string(w.msgs[0].Key))
}

func TestKafkaPublisher_WrapsWriteError(t *testing.T) {
	broker := errors.New("leader not available")
	p := &kafkaPublisher{writer: &fakeWriter{err: broker}, timeout: time.Second}

	err := p.Publish(context.Background(), model.StockEvent{Type: model.EventStockUpdate})
	assert.ErrorIs(t, err, broker)
}
