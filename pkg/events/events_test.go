package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/events"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderPlaced struct {
	events.Base
}

func newOrderPlaced(id string) *orderPlaced {
	return &orderPlaced{Base: events.NewBase("order.placed", id)}
}

type orderCancelled struct {
	events.Base
}

type recordingHandler struct {
	seen []string
	err  error
}

func (h *recordingHandler) Handle(_ context.Context, e events.Event) error {
	h.seen = append(h.seen, e.GetPayload().(string))
	return h.err
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

type countingMetrics struct {
	metrics.Nop
	statuses []string
}

func (m *countingMetrics) IncEventsDispatched(_ string, status string) {
	m.statuses = append(m.statuses, status)
}

func TestDispatcher_RegisterHasRemove(t *testing.T) {
	d := events.NewDispatcher()
	h := &recordingHandler{}

	require.NoError(t, d.Register("order.placed", h))
	assert.True(t, d.Has("order.placed", h))
	assert.ErrorIs(t, d.Register("order.placed", h), events.ErrHandlerAlreadyRegistered)

	require.NoError(t, d.Remove("order.placed", h))
	assert.False(t, d.Has("order.placed", h))

	require.NoError(t, d.Register("order.placed", h))
	d.Clear()
	assert.False(t, d.Has("order.placed", h))
}

func TestDispatcher_Dispatch(t *testing.T) {
	//Arrange
	m := &countingMetrics{}
	pub := &recordingPublisher{}
	d := events.NewDispatcher(events.WithMetrics(m), events.WithPublisher(pub))
	first := &recordingHandler{err: errors.New("first failed")}
	second := &recordingHandler{}
	other := &recordingHandler{}
	require.NoError(t, d.Register("order.placed", first))
	require.NoError(t, d.Register("order.placed", second))
	require.NoError(t, d.Register("order.cancelled", other))

	//Act
	err := d.Dispatch(context.Background(), newOrderPlaced("o-1"))

	//Assert
	assert.EqualError(t, err, "first failed")
	assert.Equal(t, []string{"o-1"}, first.seen)
	assert.Equal(t, []string{"o-1"}, second.seen)
	assert.Empty(t, other.seen)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, []string{"error"}, m.statuses)
}

func TestDispatcher_ContainerHandlers(t *testing.T) {
	reg := container.NewRegistry()
	tagged := &recordingHandler{}
	require.NoError(t, reg.RegisterInstance("handlers.audit", tagged))
	require.NoError(t, reg.Tag(events.HandlerTag("order.placed"), "handlers.audit"))
	d := events.NewDispatcher(events.WithResolver(reg))

	err := d.Dispatch(context.Background(), newOrderPlaced("o-2"))

	require.NoError(t, err)
	assert.Equal(t, []string{"o-2"}, tagged.seen)
}

func TestRaise_Callbacks(t *testing.T) {
	d := events.NewDispatcher()
	ctx, _ := events.WithCallbacks(context.Background())

	var placed []string
	var cancelled int
	require.NoError(t, events.RegisterCallback(ctx, func(_ context.Context, e *orderPlaced) {
		placed = append(placed, e.GetPayload().(string))
	}))
	require.NoError(t, events.RegisterCallback(ctx, func(context.Context, *orderCancelled) {
		cancelled++
	}))

	require.NoError(t, events.Raise(ctx, d, newOrderPlaced("o-3")))
	assert.Equal(t, []string{"o-3"}, placed)
	assert.Zero(t, cancelled)

	events.ClearCallbacks(ctx)
	require.NoError(t, events.Raise(ctx, d, newOrderPlaced("o-4")))
	assert.Equal(t, []string{"o-3"}, placed)
}

func TestRaise_CallbacksAreScoped(t *testing.T) {
	d := events.NewDispatcher()
	first, _ := events.WithCallbacks(context.Background())
	second, _ := events.WithCallbacks(context.Background())

	calls := 0
	require.NoError(t, events.RegisterCallback(first, func(context.Context, *orderPlaced) { calls++ }))

	require.NoError(t, events.Raise(second, d, newOrderPlaced("o-5")))
	assert.Zero(t, calls)

	err := events.RegisterCallback(context.Background(), func(context.Context, *orderPlaced) {})
	assert.ErrorIs(t, err, events.ErrNoCallbackScope)
}

func TestRaiseOnCommit(t *testing.T) {
	tests := []struct {
		name     string
		commit   bool
		wantSeen []string
	}{
		{name: "raised after commit", commit: true, wantSeen: []string{"o-6"}},
		{name: "dropped on rollback", commit: false, wantSeen: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//Arrange
			d := events.NewDispatcher()
			h := &recordingHandler{}
			require.NoError(t, d.Register("order.placed", h))
			manager := data.NewManager(data.NewResolver())
			ctx, scope, err := manager.Start(context.Background())
			require.NoError(t, err)

			//Act
			require.NoError(t, events.RaiseOnCommit(ctx, d, newOrderPlaced("o-6")))
			assert.Empty(t, h.seen)
			if tt.commit {
				require.NoError(t, scope.Commit())
			}
			require.NoError(t, scope.Dispose())

			//Assert
			assert.Equal(t, tt.wantSeen, h.seen)
		})
	}
}

func TestRaiseOnCommit_NoScope(t *testing.T) {
	err := events.RaiseOnCommit(context.Background(), events.NewDispatcher(), newOrderPlaced("o-7"))

	assert.ErrorIs(t, err, data.ErrNoScope)
}

type handlerFunc func(ctx context.Context, e events.Event) error

func (f handlerFunc) Handle(ctx context.Context, e events.Event) error { return f(ctx, e) }

type batchHandler struct {
	seen []string
}

func (h batchHandler) Handle(context.Context, events.Event) error { return nil }

func TestDispatcher_UncomparableHandlers(t *testing.T) {
	//Arrange
	d := events.NewDispatcher()
	var calls []string
	audit := handlerFunc(func(context.Context, events.Event) error {
		calls = append(calls, "audit")
		return nil
	})
	notify := handlerFunc(func(context.Context, events.Event) error {
		calls = append(calls, "notify")
		return nil
	})
	batch := batchHandler{seen: []string{"x"}}

	//Act
	require.NoError(t, d.Register("order.shipped", audit))
	require.NoError(t, d.Register("order.shipped", notify))
	require.NoError(t, d.Register("order.shipped", batch))
	require.NoError(t, d.Register("order.shipped", batchHandler{}))
	err := d.Dispatch(context.Background(), &orderPlaced{Base: events.NewBase("order.shipped", "o-8")})

	//Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "notify"}, calls)
	assert.False(t, d.Has("order.shipped", audit))
	assert.NoError(t, d.Remove("order.shipped", notify))
	d.Clear()
	assert.False(t, d.Has("order.shipped", batch))
}
