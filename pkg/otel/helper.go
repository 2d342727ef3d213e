package otel

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceJSON serializes the propagated trace context of ctx, for storing
// next to a record written inside a traced request. It is empty when ctx
// carries no trace.
func TraceJSON(ctx context.Context) string {
	c := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, c)
	if len(c) == 0 {
		return ""
	}

	b, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return string(b)
}
