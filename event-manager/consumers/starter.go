package consumers

import (
	"context"
	"time"

	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/log"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/messaging"
	"github.com/ShayanAhmad11606/FYP-autismart-sub001/common/tracing"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type EventHandler interface {
	CanHandle(event Event) bool
	Handle(ctx context.Context, event Event) error
	Name() string
}

type permanentError struct {
	error
}

// Permanent marks an error that a redelivery would not fix. The message is acked anyway.
func Permanent(err error) error {
	return permanentError{err}
}

func IsPermanent(err error) bool {
	_, ok := err.(permanentError)
	return ok
}

type Consumer struct {
	Logger     *log.Logger `inject:""`
	Subscriber interface {
		Subscribe(ctx context.Context, callback messaging.SubscribeCallbackFunc) error
	} `inject:""`
	EventHandlers []EventHandler
	// RetryDelay is the pause between two subscriptions, one second when zero.
	RetryDelay time.Duration
}

func (c *Consumer) Start(ctx context.Context) {
	delay := c.RetryDelay
	if delay == 0 {
		delay = time.Second
	}
	for {
		select {
		case <-ctx.Done():
			c.Logger.Info(ctx, "consumer stopped")
			return
		default:
			c.Logger.Info(ctx, "starting consumer")
			if err := c.subscribe(ctx); err != nil {
				c.Logger.Warn(ctx, "consumer interrupted", "err", err)
				time.Sleep(delay)
			}
		}
	}
}

func (c *Consumer) subscribe(ctx context.Context) error {
	if err := c.Subscriber.Subscribe(ctx, c.HandleMessage); err != nil {
		return errors.Wrap(err, "failed to subscribe to the messaging system")
	}
	return nil
}

// HandleMessage acks a message once handled, or when it can never be handled. Other failures are nacked so the
// broker redelivers them.
func (c *Consumer) HandleMessage(ctx context.Context, msg messaging.Message) {
	event := EventFromMessage(msg)

	ctx, span := tracing.Start(ctx, "events.handle", attribute.String("event.type", event.Type), attribute.String("event.id", event.Id))
	var err error
	defer func() { tracing.End(span, err) }()

	for _, eventHandler := range c.EventHandlers {
		if !eventHandler.CanHandle(event) {
			continue
		}
		if err = eventHandler.Handle(ctx, event); err != nil {
			if IsPermanent(err) {
				c.Logger.Err(ctx, "dropping message", "err", err, "messageId", msg.ID, "handler", eventHandler.Name())
				msg.Ack()
				return
			}
			c.Logger.Warn(ctx, "failed to handle message, it will be redelivered", "err", err, "messageId", msg.ID, "handler", eventHandler.Name())
			msg.Nack()
			return
		}
		c.Logger.Info(ctx, "message successfully handled", "messageId", msg.ID, "handler", eventHandler.Name())
		msg.Ack()
		return
	}
	c.Logger.Warn(ctx, "no handlers were able to consume this message", "messageId", msg.ID, "type", event.Type)
	msg.Ack()
}
