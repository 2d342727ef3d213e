package events

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
)

var ErrNoCallbackScope = errors.New("no callback scope in context")

type callbackScopeKey struct{}

// CallbackScope holds the callbacks registered while handling one request
// or message. Callbacks never leak into another scope.
type CallbackScope struct {
	mu        sync.Mutex
	callbacks []func(context.Context, Event)
}

// WithCallbacks returns ctx carrying a fresh CallbackScope.
func WithCallbacks(ctx context.Context) (context.Context, *CallbackScope) {
	s := &CallbackScope{}
	return context.WithValue(ctx, callbackScopeKey{}, s), s
}

func callbacksFrom(ctx context.Context) *CallbackScope {
	s, _ := ctx.Value(callbackScopeKey{}).(*CallbackScope)
	return s
}

// RegisterCallback adds fn to the callback scope of ctx. fn runs for every
// event of type T raised through that context.
func RegisterCallback[T Event](ctx context.Context, fn func(ctx context.Context, event T)) error {
	s := callbacksFrom(ctx)
	if s == nil {
		return ErrNoCallbackScope
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, func(ctx context.Context, e Event) {
		if typed, ok := e.(T); ok {
			fn(ctx, typed)
		}
	})
	return nil
}

// ClearCallbacks drops every callback of the scope in ctx.
func ClearCallbacks(ctx context.Context) {
	if s := callbacksFrom(ctx); s != nil {
		s.mu.Lock()
		s.callbacks = nil
		s.mu.Unlock()
	}
}

// Raise dispatches event to the handlers of d, then runs the callbacks in
// ctx registered for the event's type. Callbacks run even when a handler
// failed.
func Raise(ctx context.Context, d *Dispatcher, event Event) error {
	err := d.Dispatch(ctx, event)

	if s := callbacksFrom(ctx); s != nil {
		s.mu.Lock()
		callbacks := slices.Clone(s.callbacks)
		s.mu.Unlock()

		for _, fn := range callbacks {
			fn(ctx, event)
		}
	}
	return err
}

// RaiseOnCommit defers Raise until the unit of work in ctx commits. The
// event is dropped when it rolls back.
func RaiseOnCommit(ctx context.Context, d *Dispatcher, event Event) error {
	return data.CurrentScope(ctx).AfterCommit(func(hookCtx context.Context) {
		if s := callbacksFrom(ctx); s != nil && callbacksFrom(hookCtx) == nil {
			hookCtx = context.WithValue(hookCtx, callbackScopeKey{}, s)
		}
		if err := Raise(hookCtx, d, event); err != nil {
			d.logger.Error(hookCtx, "Failed to raise event after commit",
				logger.String("event", event.GetName()),
				logger.WithError(err),
			)
		}
	})
}
