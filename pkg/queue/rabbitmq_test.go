package queue

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"blogsphere/pkg/config"
	"blogsphere/pkg/ledger"
	"blogsphere/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	published  []amqp.Publishing
	keys       []string
	deliveries chan amqp.Delivery
	publishErr error
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, exchange+"/"+key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	return f.deliveries, nil
}

func (f *fakeChannel) QueueInspect(name string) (amqp.Queue, error) {
	return amqp.Queue{Name: name, Messages: len(f.deliveries)}, nil
}

func (f *fakeChannel) Close() error { return nil }

type ackRecorder struct {
	mu     sync.Mutex
	acked  []uint64
	nacked map[uint64]bool
	done   chan struct{}
}

func newAckRecorder() *ackRecorder {
	return &ackRecorder{nacked: map[uint64]bool{}, done: make(chan struct{}, 10)}
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	a.acked = append(a.acked, tag)
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	a.nacked[tag] = requeue
	a.mu.Unlock()
	a.done <- struct{}{}
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func (a *ackRecorder) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-a.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for ack")
		}
	}
}

func TestURL(t *testing.T) {
	cfg := &config.Config{RabbitMQUser: "u", RabbitMQPassword: "p", RabbitMQHost: "mq", RabbitMQPort: "5672"}
	assert.Equal(t, "amqp://u:p@mq:5672/", URL(cfg))
}

func TestPublishChargeEvent(t *testing.T) {
	ch := &fakeChannel{}
	client := NewWithChannel(ch, logger.New())

	ev := ledger.ChargeEvent{EventID: "evt_1", Type: "charge.succeeded", ChargeID: "ch_1", Status: "succeeded"}
	require.NoError(t, client.PublishChargeEvent(ev))

	require.Len(t, ch.published, 1)
	assert.Equal(t, BillingExchange+"/"+ChargeRoutingKey, ch.keys[0])
	assert.Equal(t, "evt_1", ch.published[0].MessageId)
	assert.Equal(t, uint8(9), ch.published[0].Priority)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)

	var decoded ledger.ChargeEvent
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &decoded))
	assert.Equal(t, ev, decoded)
}

func TestPublishChargeEvent_LowPriorityForFailures(t *testing.T) {
	ch := &fakeChannel{}
	client := NewWithChannel(ch, logger.New())

	require.NoError(t, client.PublishChargeEvent(ledger.ChargeEvent{EventID: "evt_2", Status: "failed"}))
	assert.Equal(t, uint8(1), ch.published[0].Priority)
}

func TestPublishChargeEvent_Error(t *testing.T) {
	client := NewWithChannel(&fakeChannel{publishErr: errors.New("closed")}, logger.New())

	err := client.PublishChargeEvent(ledger.ChargeEvent{EventID: "evt_3"})
	assert.Error(t, err)
}

func TestConsumeChargeEvents(t *testing.T) {
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 3)}
	client := NewWithChannel(ch, logger.New())
	acks := newAckRecorder()

	good, _ := json.Marshal(ledger.ChargeEvent{EventID: "evt_ok", UserID: "user-1"})
	failing, _ := json.Marshal(ledger.ChargeEvent{EventID: "evt_fail"})
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: good}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: failing}
	ch.deliveries <- amqp.Delivery{Acknowledger: acks, DeliveryTag: 3, Body: []byte("not json")}
	close(ch.deliveries)

	var mu sync.Mutex
	var seen []string
	err := client.ConsumeChargeEvents(func(ev ledger.ChargeEvent) error {
		mu.Lock()
		seen = append(seen, ev.EventID)
		mu.Unlock()
		if ev.EventID == "evt_fail" {
			return errors.New("db down")
		}
		return nil
	})
	require.NoError(t, err)

	acks.wait(t, 3)

	acks.mu.Lock()
	defer acks.mu.Unlock()
	assert.Equal(t, []uint64{1}, acks.acked)
	assert.True(t, acks.nacked[2], "handler failure is requeued")
	assert.False(t, acks.nacked[3], "bad payload is dropped")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"evt_ok", "evt_fail"}, seen)
}

func TestGetQueueLength(t *testing.T) {
	channel := &fakeChannel{deliveries: make(chan amqp.Delivery, 4)}
	channel.deliveries <- amqp.Delivery{}
	channel.deliveries <- amqp.Delivery{}
	client := NewWithChannel(channel, logger.New())

	length, err := client.GetQueueLength()

	require.NoError(t, err)
	assert.Equal(t, 2, length)
}
