package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Apurer/go-gin-bmi-server/internal/domains/bmi/ports"
)

// DefaultQueue receives CalculationRecorded events when no queue is configured.
const DefaultQueue = "bmi.calculations.recorded"

const (
	eventType      = "bmi.calculation.recorded"
	publishTimeout = 5 * time.Second
)

var errNotConnected = errors.New("not connected to a server")

var _ ports.EventPublisher = (*Publisher)(nil)

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends calculation events to a durable RabbitMQ queue.
type Publisher struct {
	mu      sync.Mutex
	addr    string
	queue   string
	conn    *amqp.Connection
	channel channel
	logger  *slog.Logger
	dial    func(addr, queue string) (*amqp.Connection, channel, error)
}

// Dial connects to the broker and declares the queue.
func Dial(addr, queue string, logger *slog.Logger) (*Publisher, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("rabbitmq address is empty")
	}
	if strings.TrimSpace(queue) == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{addr: addr, queue: queue, logger: logger, dial: connect}
	if err := p.reconnect(); err != nil {
		return nil, err
	}
	return p, nil
}

func connect(addr, queue string) (*amqp.Connection, channel, error) {
	conn, err := amqp.Dial(addr)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func (p *Publisher) reconnect() error {
	conn, ch, err := p.dial(p.addr, p.queue)
	if err != nil {
		return err
	}
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn = conn
	p.channel = ch
	p.logger.Info("rabbitmq publisher connected", slog.String("queue", p.queue))
	return nil
}

// PublishCalculationRecorded serialises the event as JSON and publishes it persistently.
// A closed channel is re-established once before giving up.
func (p *Publisher) PublishCalculationRecorded(ctx context.Context, event ports.CalculationRecorded) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         eventType,
		MessageId:    event.CalculationID,
		Timestamp:    event.RecordedAt,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, msg)
	if err == nil || (!errors.Is(err, amqp.ErrClosed) && !errors.Is(err, errNotConnected)) {
		return err
	}
	p.logger.Warn("rabbitmq channel closed, reconnecting", slog.String("error", err.Error()))
	if err := p.reconnect(); err != nil {
		return err
	}
	return p.publish(ctx, msg)
}

func (p *Publisher) publish(ctx context.Context, msg amqp.Publishing) error {
	if p.channel == nil {
		return errNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.channel.PublishWithContext(ctx, "", p.queue, false, false, msg)
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error
	if p.channel != nil {
		errs = append(errs, p.channel.Close())
		p.channel = nil
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
		p.conn = nil
	}
	return errors.Join(errs...)
}
