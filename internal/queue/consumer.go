package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/repository"
)

const (
	maxBackoff          = 30 * time.Second
	defaultRequeueDelay = time.Second
)

// Consumer reads ActivityEvents from a durable queue and appends them to
// the system log table.
type Consumer struct {
	URL   string
	Queue string
	Logs  repository.SystemLogRepository
	Log   *zap.Logger

	// RequeueDelay is how long a delivery is held before it is requeued
	// after a failed append.  Zero means one second.
	RequeueDelay time.Duration
}

// acknowledger is the part of amqp.Delivery that settles a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled.  Broker failures trigger a reconnect with exponential backoff
// (1s doubling up to 30s).  Malformed messages are rejected without requeue
// so a poison payload cannot spin the loop; messages whose append failed
// are requeued.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Log.Warn("activity-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Log.Warn("activity-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Log.Warn("activity-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(ctx, d, d.Body)
		}
	}
}

// settle handles body and acks, drops or requeues the delivery.
func (c *Consumer) settle(ctx context.Context, d acknowledger, body []byte) {
	err := c.Handle(ctx, body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrInvalidEvent):
		c.Log.Warn("activity-consumer: dropping malformed message", zap.Error(err))
		_ = d.Nack(false, false)
	default:
		c.Log.Error("activity-consumer: append failed, requeueing", zap.Error(err))
		delay := c.RequeueDelay
		if delay <= 0 {
			delay = defaultRequeueDelay
		}
		sleepCtx(ctx, delay)
		_ = d.Nack(false, true)
	}
}

// Handle decodes one message body and appends it as a SystemLog row.  A
// body that cannot become a row yields an error wrapping ErrInvalidEvent.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev ActivityEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	row, err := ev.ToSystemLog()
	if err != nil {
		return err
	}
	if err := c.Logs.Create(ctx, row); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
