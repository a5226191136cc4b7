package rabbitmq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

func (c *fakeChannel) Close() error {
	c.closed = true
	return nil
}

func newTestPublisher(channels ...*fakeChannel) (*Publisher, *int) {
	dials := 0
	p := &Publisher{
		queue:  DefaultQueue,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	p.dial = func(_, _ string) (*amqp.Connection, channel, error) {
		ch := channels[dials]
		dials++
		return nil, ch, nil
	}
	return p, &dials
}

func TestPublisher_PublishesJSONEvent(t *testing.T) {
	ch := &fakeChannel{}
	p, _ := newTestPublisher(ch)
	require.NoError(t, p.reconnect())

	event := ports.CalculationRecorded{
		CalculationID: "calc-1",
		BMI:           22.9,
		Category:      "normal",
		RecordedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishCalculationRecorded(context.Background(), event))

	require.Len(t, ch.published, 1)
	msg := ch.published[0]
	assert.Equal(t, DefaultQueue, ch.keys[0])
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, "calc-1", msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "calc-1", decoded["calculationId"])
	assert.Equal(t, 22.9, decoded["bmi"])
	assert.NotContains(t, decoded, "subjectId")
}

func TestPublisher_ReconnectsOnClosedChannel(t *testing.T) {
	broken := &fakeChannel{err: amqp.ErrClosed}
	healthy := &fakeChannel{}
	p, dials := newTestPublisher(broken, healthy)
	require.NoError(t, p.reconnect())

	require.NoError(t, p.PublishCalculationRecorded(context.Background(), ports.CalculationRecorded{CalculationID: "calc-1"}))
	assert.Equal(t, 2, *dials)
	assert.Len(t, healthy.published, 1)
}

func TestPublisher_CloseReleasesChannel(t *testing.T) {
	ch := &fakeChannel{}
	p, _ := newTestPublisher(ch)
	require.NoError(t, p.reconnect())

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)

	err := p.publish(context.Background(), amqp.Publishing{})
	assert.ErrorIs(t, err, errNotConnected)
}

func TestDial_RejectsEmptyAddress(t *testing.T) {
	_, err := Dial(" ", "", nil)
	require.Error(t, err)
}
