package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/queue"
)

// ActivityPublisher emits activity events for the feed.  Publishing is
// best effort: callers log a failure and carry on.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, queue.ActivityEvent) error { return nil }

var (
	ErrPublisherFull   = errors.New("activity publisher buffer full")
	ErrPublisherClosed = errors.New("activity publisher closed")
)

const (
	defaultPublishBuffer = 256
	defaultDialTimeout   = 3 * time.Second
	defaultRetryDelay    = 5 * time.Second
)

// AMQPPublisher publishes ActivityEvents as persistent JSON messages to a
// durable RabbitMQ queue through the default exchange.
//
// Publish only enqueues.  A single goroutine owns the connection, dials
// lazily with a bounded handshake and, after a failed dial, discards events
// until RetryDelay has passed.  Events that do not fit in the buffer are
// dropped.
type AMQPPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	DialTimeout time.Duration
	RetryDelay  time.Duration

	events    chan amqp.Publishing
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	// owned by run
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewAMQPPublisher returns a publisher for queueName on the broker at url.
// Nothing is dialled until the first event arrives.
func NewAMQPPublisher(url, queueName string, log *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{
		url:         url,
		queue:       queueName,
		log:         log,
		DialTimeout: defaultDialTimeout,
		RetryDelay:  defaultRetryDelay,
		events:      make(chan amqp.Publishing, defaultPublishBuffer),
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

// Publish queues ev for delivery.  A zero OccurredAt is set to now.  It
// never waits on the broker.
func (p *AMQPPublisher) Publish(_ context.Context, ev queue.ActivityEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity event: %w", err)
	}

	select {
	case <-p.done:
		return ErrPublisherClosed
	default:
	}
	p.startOnce.Do(func() { go p.run() })

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	}
	select {
	case p.events <- pub:
		return nil
	default:
		return ErrPublisherFull
	}
}

// Close stops the sender after it flushes what is already queued and
// releases the broker connection.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		// make sure stopped gets closed even if nothing was ever published
		p.startOnce.Do(func() { go p.run() })
	})
	<-p.stopped
	return nil
}

func (p *AMQPPublisher) run() {
	defer close(p.stopped)
	defer p.closeConn()
	for {
		select {
		case pub := <-p.events:
			p.send(pub)
		case <-p.done:
			for {
				select {
				case pub := <-p.events:
					p.send(pub)
				default:
					return
				}
			}
		}
	}
}

func (p *AMQPPublisher) send(pub amqp.Publishing) {
	if time.Now().Before(p.retryAt) {
		p.log.Debug("activity event dropped, broker unavailable")
		return
	}
	ch, err := p.channel()
	if err != nil {
		p.retryAt = time.Now().Add(p.RetryDelay)
		p.log.Warn("activity publish failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.DialTimeout)
	defer cancel()
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.closeConn()
		p.log.Warn("activity publish failed", zap.Error(err))
	}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeConn()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(p.DialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) closeConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// publishBestEffort sends ev and logs instead of failing the caller.
func publishBestEffort(ctx context.Context, pub ActivityPublisher, log *zap.Logger, ev queue.ActivityEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("activity publish failed", zap.String("module", ev.Module), zap.Error(err))
	}
}
