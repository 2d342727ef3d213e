package otel

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

// AMQPHeadersCarrier lets the text map propagator read and write message
// headers.
type AMQPHeadersCarrier amqp.Table

func (c AMQPHeadersCarrier) Get(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return ""
}

func (c AMQPHeadersCarrier) Set(key string, value string) {
	c[key] = value
}

func (c AMQPHeadersCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// InjectAMQP writes the trace context of ctx into headers.
func InjectAMQP(ctx context.Context, headers amqp.Table) {
	otel.GetTextMapPropagator().Inject(ctx, AMQPHeadersCarrier(headers))
}

// ExtractAMQP returns ctx continuing the trace found in headers.
func ExtractAMQP(ctx context.Context, headers amqp.Table) context.Context {
	if headers == nil {
		return ctx
	}
	return otel.GetTextMapPropagator().Extract(ctx, AMQPHeadersCarrier(headers))
}
