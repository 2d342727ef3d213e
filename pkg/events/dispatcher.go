package events

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
)

var ErrHandlerAlreadyRegistered = errors.New("handler already registered")

// HandlerTag is the container tag under which handlers for eventName are
// discovered when the dispatcher has a resolver.
func HandlerTag(eventName string) string {
	return "event-handler:" + eventName
}

// Dispatcher delivers events to registered handlers in registration order,
// then to handlers tagged in its container, then to its publisher.
type Dispatcher struct {
	mu        sync.RWMutex
	handlers  map[string][]EventHandler
	resolver  container.Resolver
	publisher Publisher
	logger    logger.Logger
	metrics   metrics.Metrics
}

type Option func(*Dispatcher)

func WithResolver(r container.Resolver) Option {
	return func(d *Dispatcher) { d.resolver = r }
}

func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

func WithMetrics(m metrics.Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[string][]EventHandler),
		logger:   logger.NewNop(),
		metrics:  metrics.Nop{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// sameHandler compares handlers with ==. Values that cannot be compared,
// such as func adapters or structs holding a slice, never match.
func sameHandler(a, b EventHandler) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() || !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

func containsHandler(handlers []EventHandler, h EventHandler) bool {
	return slices.ContainsFunc(handlers, func(other EventHandler) bool { return sameHandler(other, h) })
}

// Register adds handler for eventName. Registering a comparable handler
// twice fails with ErrHandlerAlreadyRegistered; uncomparable handlers are
// always appended and can only be dropped with Clear.
func (d *Dispatcher) Register(eventName string, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("%s: nil handler", eventName)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if containsHandler(d.handlers[eventName], handler) {
		return fmt.Errorf("%s: %w", eventName, ErrHandlerAlreadyRegistered)
	}
	d.handlers[eventName] = append(d.handlers[eventName], handler)
	return nil
}

// Dispatch runs every handler even when one fails and returns the joined
// errors.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	name := event.GetName()

	d.mu.RLock()
	handlers := slices.Clone(d.handlers[name])
	d.mu.RUnlock()

	if d.resolver != nil {
		tagged, err := container.All[EventHandler](d.resolver, HandlerTag(name))
		if err != nil {
			d.metrics.IncEventsDispatched(name, "error")
			return fmt.Errorf("resolve handlers for %s: %w", name, err)
		}
		handlers = append(handlers, tagged...)
	}

	var errs []error
	for _, h := range handlers {
		if err := h.Handle(ctx, event); err != nil {
			d.logger.Warn(ctx, "Event handler failed",
				logger.String("event", name),
				logger.WithError(err),
			)
			errs = append(errs, err)
		}
	}
	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		d.metrics.IncEventsDispatched(name, "error")
		return err
	}
	d.metrics.IncEventsDispatched(name, "success")
	return nil
}

func (d *Dispatcher) Remove(eventName string, handler EventHandler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventName] = slices.DeleteFunc(d.handlers[eventName], func(h EventHandler) bool {
		return sameHandler(h, handler)
	})
	if len(d.handlers[eventName]) == 0 {
		delete(d.handlers, eventName)
	}
	return nil
}

func (d *Dispatcher) Has(eventName string, handler EventHandler) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return containsHandler(d.handlers[eventName], handler)
}

func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[string][]EventHandler)
}

var _ EventDispatcher = (*Dispatcher)(nil)
