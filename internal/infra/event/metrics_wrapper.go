package event

import (
	"context"
	"time"

	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/sony/gobreaker"
)

// WrapResilientConsumer bounds each message by timeout and stops calling
// next while cb is open. Every outcome is recorded under handlerName.
func WrapResilientConsumer(
	m metrics.Metrics,
	handlerName string,
	timeout time.Duration,
	cb *gobreaker.CircuitBreaker,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]any) error {
		start := time.Now()

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		_, err := cb.Execute(func() (any, error) {
			return nil, next(ctx, msg, headers)
		})

		m.RecordUseCaseExecution(handlerName, err == nil, time.Since(start))
		return err
	}
}

// NewBreaker returns the circuit breaker the worker puts in front of its
// handlers: it opens after five consecutive failures.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
}
