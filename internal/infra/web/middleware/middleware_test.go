package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/DioGolang/GoCommon/internal/infra/storage"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ledger struct{}

type tx struct {
	f *fakeFactory
}

func (t tx) Commit() error {
	t.f.outcomes = append(t.f.outcomes, "commit")
	return t.f.commitErr
}

func (t tx) Rollback() error {
	t.f.outcomes = append(t.f.outcomes, "rollback")
	return nil
}

type session struct{ f *fakeFactory }

func (s session) Begin(context.Context, data.TxOptions) (data.Transaction, error) { return tx(s), nil }
func (s session) Close() error                                                    { return nil }

type fakeFactory struct {
	outcomes  []string
	commitErr error
}

func (f *fakeFactory) Name() string                                      { return "fake" }
func (f *fakeFactory) MappedTypes() []reflect.Type                       { return []reflect.Type{data.TypeOf[ledger]()} }
func (f *fakeFactory) OpenSession(context.Context) (data.Session, error) { return session{f}, nil }

func newUnitOfWork(t *testing.T, scope FilterScope) (*UnitOfWork, *fakeFactory) {
	t.Helper()
	f := &fakeFactory{}
	r := data.NewResolver()
	_, err := r.RegisterFactory(func() (data.SessionFactory, error) { return f, nil })
	require.NoError(t, err)
	return NewUnitOfWork(data.NewManager(r), Options{Scope: scope}, logger.NewNop()), f
}

// touch opens the session of the request's unit of work, as a repository
// would.
func touch(t *testing.T, r *http.Request) {
	_, err := data.SessionOf[ledger](r.Context())
	require.NoError(t, err)
}

func TestUnitOfWork_Outcomes(t *testing.T) {
	tests := []struct {
		name      string
		scope     FilterScope
		status    int
		commitErr error
		outcomes  []string
		wantCode  int
		wantBody  string
	}{
		{name: "action commits success", scope: FilterScopeAction, status: http.StatusCreated, outcomes: []string{"commit"}, wantCode: http.StatusCreated, wantBody: "done"},
		{name: "action rolls back server error", scope: FilterScopeAction, status: http.StatusBadGateway, outcomes: []string{"rollback"}, wantCode: http.StatusBadGateway, wantBody: "done"},
		{name: "action keeps client error", scope: FilterScopeAction, status: http.StatusNotFound, outcomes: []string{"commit"}, wantCode: http.StatusNotFound, wantBody: "done"},
		{name: "action commit failure is 500", scope: FilterScopeAction, status: http.StatusOK, commitErr: errors.New("disk full"), outcomes: []string{"commit"}, wantCode: http.StatusInternalServerError},
		{name: "result streams then commits", scope: FilterScopeResult, status: http.StatusOK, outcomes: []string{"commit"}, wantCode: http.StatusOK, wantBody: "done"},
		{name: "result rolls back server error", scope: FilterScopeResult, status: http.StatusInternalServerError, outcomes: []string{"rollback"}, wantCode: http.StatusInternalServerError, wantBody: "done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//Arrange
			uow, f := newUnitOfWork(t, tt.scope)
			f.commitErr = tt.commitErr
			h := uow.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				touch(t, r)
				w.Header().Set("X-Handler", "yes")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("done"))
			}))
			rec := httptest.NewRecorder()

			//Act
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", nil))

			//Assert
			assert.Equal(t, tt.outcomes, f.outcomes)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
				assert.Equal(t, "yes", rec.Header().Get("X-Handler"))
			} else {
				assert.Empty(t, rec.Header().Get("X-Handler"))
			}
		})
	}
}

func TestUnitOfWork_ActionBuffersUntilCommit(t *testing.T) {
	uow, f := newUnitOfWork(t, FilterScopeAction)
	var seenBeforeCommit int
	rec := httptest.NewRecorder()
	h := uow.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		touch(t, r)
		_, _ = w.Write([]byte("partial"))
		seenBeforeCommit = rec.Body.Len()
	}))

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Zero(t, seenBeforeCommit)
	assert.Equal(t, "partial", rec.Body.String())
	assert.Equal(t, []string{"commit"}, f.outcomes)
}

func TestUnitOfWork_PanicRollsBackAndPropagates(t *testing.T) {
	uow, f := newUnitOfWork(t, FilterScopeAction)
	h := uow.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		touch(t, r)
		panic("handler exploded")
	}))

	assert.PanicsWithValue(t, "handler exploded", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, []string{"rollback"}, f.outcomes)
}

func TestCurrentUnitOfWork(t *testing.T) {
	uow, _ := newUnitOfWork(t, FilterScopeAction)
	var scope *data.Scope
	h := uow.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		scope, err = CurrentUnitOfWork(r)
		require.NoError(t, err)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotNil(t, scope)

	_, err := CurrentUnitOfWork(httptest.NewRequest(http.MethodGet, "/customers/1", nil))
	assert.ErrorIs(t, err, ErrNoUnitOfWork)
	assert.ErrorContains(t, err, "GET /customers/1")
}

func TestUnitOfWork_StartAndCleanUpHooks(t *testing.T) {
	uow, f := newUnitOfWork(t, FilterScopeAction)

	r, scope, err := uow.Start(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.True(t, scope.IsRoot())
	touch(t, r)

	require.NoError(t, uow.CleanUp(r, false))
	assert.Equal(t, []string{"rollback"}, f.outcomes)
	require.NoError(t, uow.CleanUp(r, false))
}

func TestParseFilterScope(t *testing.T) {
	for in, want := range map[string]FilterScope{"": FilterScopeAction, "Action": FilterScopeAction, "result": FilterScopeResult} {
		got, err := ParseFilterScope(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFilterScope("controller")
	assert.Error(t, err)
}

type memoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	down   bool
}

func (s *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return false, errors.New("connection refused")
	}
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = []byte(value.(string))
	return true, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value.([]byte)
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrKeyNotFound
	}
	return v, nil
}

func (s *memoryStore) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func TestIdempotency(t *testing.T) {
	t.Run("replays stored response", func(t *testing.T) {
		//Arrange
		store := &memoryStore{values: map[string][]byte{}}
		calls := 0
		h := Idempotency(store, time.Hour, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":1}`))
		}))
		send := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/orders", nil)
			req.Header.Set(IdempotencyKeyHeader, "abc")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			return rec
		}

		//Act
		first := send()
		second := send()

		//Assert
		assert.Equal(t, 1, calls)
		assert.Equal(t, http.StatusCreated, second.Code)
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
		assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	})

	t.Run("in flight key conflicts", func(t *testing.T) {
		store := &memoryStore{values: map[string][]byte{"idempotency:/orders:abc": []byte("processing")}}
		h := Idempotency(store, time.Hour, logger.NewNop())(http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(IdempotencyKeyHeader, "abc")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("server error releases key", func(t *testing.T) {
		store := &memoryStore{values: map[string][]byte{}}
		h := Idempotency(store, time.Hour, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(IdempotencyKeyHeader, "abc")

		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Empty(t, store.values)
	})

	t.Run("store down passes through", func(t *testing.T) {
		calls := 0
		h := Idempotency(&memoryStore{down: true}, time.Hour, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
		}))
		req := httptest.NewRequest(http.MethodPost, "/orders", nil)
		req.Header.Set(IdempotencyKeyHeader, "abc")

		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Equal(t, 1, calls)
	})
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})
	h := rl.Handler(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	other := httptest.NewRecorder()
	h.ServeHTTP(other, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, http.StatusOK, other.Code)
}

type httpObservations struct {
	metrics.Nop
	paths    []string
	statuses []string
}

func (o *httpObservations) ObserveHTTPRequestDuration(_, path, status string, _ float64) {
	o.paths = append(o.paths, path)
	o.statuses = append(o.statuses, status)
}

func TestMetricsWrapper_UsesRoutePattern(t *testing.T) {
	m := &httpObservations{}
	r := chi.NewRouter()
	r.Use(MetricsWrapper(m))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/7", nil))

	assert.Equal(t, []string{"/orders/{id}"}, m.paths)
	assert.Equal(t, []string{"200"}, m.statuses)
}
