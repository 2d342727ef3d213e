package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DioGolang/GoCommon/pkg/events"
	carrier "github.com/DioGolang/GoCommon/pkg/otel"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the part of *amqp.Channel the publisher uses.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitPublisher forwards dispatched events to RabbitMQ.
type RabbitPublisher struct {
	ch       Channel
	exchange string
}

func NewRabbitPublisher(ch Channel) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, exchange: Exchange}
}

// DeclareTopology creates the exchange when it does not exist yet.
func (p *RabbitPublisher) DeclareTopology() error {
	return p.ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil)
}

func (p *RabbitPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event.GetPayload())
	if err != nil {
		return fmt.Errorf("encode %s: %w", event.GetName(), err)
	}

	id := uuid.NewString()
	headers := amqp.Table{
		HeaderEventID:   id,
		HeaderEventName: event.GetName(),
	}
	carrier.InjectAMQP(ctx, headers)

	return p.ch.PublishWithContext(ctx, p.exchange, event.GetName(), false, false, amqp.Publishing{
		Headers:      headers,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    id,
		Timestamp:    event.GetDateTime(),
		Body:         payload,
	})
}

var _ events.Publisher = (*RabbitPublisher)(nil)
