package event

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoCommon/pkg/events"
	"github.com/DioGolang/GoCommon/pkg/logger"
	carrier "github.com/DioGolang/GoCommon/pkg/otel"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ConsumeChannel is the part of *amqp.Channel the consumer uses.
type ConsumeChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	ConsumeWithContext(ctx context.Context, queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Consumer struct {
	ch       ConsumeChannel
	logger   logger.Logger
	prefetch int
}

func NewConsumer(ch ConsumeChannel, l logger.Logger) *Consumer {
	return &Consumer{ch: ch, logger: l, prefetch: 10}
}

// Start binds queueName to the events named eventName and hands every
// delivery to handler until ctx is done or the channel closes.
func (c *Consumer) Start(ctx context.Context, queueName, eventName string, handler MessageHandler) error {
	if err := c.setupTopology(queueName, eventName); err != nil {
		return fmt.Errorf("error when configuring topology: %w", err)
	}

	msgs, err := c.ch.ConsumeWithContext(ctx, queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "Waiting for messages", logger.String("queue", queueName))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.process(ctx, queueName, d, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, queueName string, d amqp.Delivery, handler MessageHandler) {
	ctx = carrier.ExtractAMQP(ctx, d.Headers)
	ctx, _ = events.WithCallbacks(ctx)
	ctx, span := carrier.Tracer("worker").Start(ctx, "Consume "+d.RoutingKey, trace.WithAttributes(
		attribute.String("queue.name", queueName),
		attribute.String("messaging.message_id", d.MessageId),
	), trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	if err := handler(ctx, d.Body, d.Headers); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Error(ctx, "Message rejected",
			logger.String("queue", queueName),
			logger.String("message_id", d.MessageId),
			logger.WithError(err),
		)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error(ctx, "Failed to nack message", logger.WithError(nackErr))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Error(ctx, "Failed to ack message", logger.WithError(err))
	}
}

func (c *Consumer) setupTopology(queueName, eventName string) error {
	if err := c.ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.QueueBind(queueName, eventName, Exchange, false, nil); err != nil {
		return err
	}
	return c.ch.Qos(c.prefetch, 0, false)
}
