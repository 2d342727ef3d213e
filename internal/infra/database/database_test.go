package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/data/sqldata"
	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type fixture struct {
	mock     sqlmock.Sqlmock
	audit    *sql.DB
	manager  *data.Manager
	provider *RepositoryProviderImpl
	uow      *UnitOfWorkImpl
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	ordersDB, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDb, DriverName: "postgres"}),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	auditDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	auditDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = auditDB.Close() })
	require.NoError(t, MigrateAudit(ctx, auditDB))

	orders, err := NewOrdersFactory(ordersDB)
	require.NoError(t, err)
	audit, err := NewAuditFactory(auditDB, sqldata.SQLite)
	require.NoError(t, err)

	resolver := data.NewResolver()
	_, err = resolver.RegisterFactory(orders.Provider())
	require.NoError(t, err)
	_, err = resolver.RegisterFactory(audit.Provider())
	require.NoError(t, err)

	strategies := data.NewStrategyRegistry(nil)
	RegisterStrategies(strategies)
	provider := NewRepositoryProvider(strategies, nil)
	manager := data.NewManager(resolver)

	return &fixture{
		mock:     mock,
		audit:    auditDB,
		manager:  manager,
		provider: provider,
		uow:      NewUnitOfWork(manager, provider),
	}
}

func (f *fixture) auditRows(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, f.audit.QueryRow("SELECT COUNT(*) FROM audit_entries").Scan(&n))
	return n
}

func TestAuditRepository_AddAndHistory(t *testing.T) {
	//Arrange
	f := newFixture(t)
	first := entity.NewAuditEntry("order", "42", "created", map[string]string{"status": "PENDING"})
	first.CreatedAt = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	second := entity.NewAuditEntry("order", "42", "shipped", map[string]string{"status": "SHIPPED", "tracking_code": "TRK"})
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	other := entity.NewAuditEntry("order", "43", "created", nil)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traced := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67},
		TraceFlags: trace.FlagsSampled,
	}))

	//Act
	err := f.uow.Do(traced, func(ctx context.Context, p outbound.RepositoryProvider) error {
		for _, e := range []*entity.AuditEntry{first, second, other} {
			if err := p.Audit().Add(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	var history []*entity.AuditEntry
	err = f.uow.Do(context.Background(), func(ctx context.Context, p outbound.RepositoryProvider) error {
		var err error
		history, err = p.Audit().History(ctx, "order", "42")
		return err
	})

	//Assert
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "shipped", history[0].Action)
	assert.True(t, second.CreatedAt.Equal(history[0].CreatedAt))
	require.Len(t, history[0].Changes, 2)
	assert.Equal(t, "created", history[1].Action)
	require.Len(t, history[1].Changes, 1)
	assert.Equal(t, "PENDING", history[1].Changes[0].Value)
	assert.Contains(t, history[0].Trace, "traceparent")
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUnitOfWork_RollsBackEveryDatabase(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`SELECT \* FROM "customers"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(7, "Ada", "ada@example.com"))
	f.mock.ExpectRollback()
	boom := errors.New("boom")

	err := f.uow.Do(context.Background(), func(ctx context.Context, p outbound.RepositoryProvider) error {
		if err := p.Audit().Add(ctx, entity.NewAuditEntry("customer", "7", "viewed", nil)); err != nil {
			return err
		}
		if _, err := p.Customers().Get(ctx, 7); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, f.auditRows(t))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestUnitOfWork_JoinsAmbientScope(t *testing.T) {
	f := newFixture(t)
	ctx, scope, err := f.manager.Start(context.Background())
	require.NoError(t, err)

	err = f.uow.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
		return p.Audit().Add(ctx, entity.NewAuditEntry("customer", "7", "viewed", nil))
	})
	require.NoError(t, err)
	assert.True(t, scope.IsRoot())

	require.NoError(t, scope.Commit())
	require.NoError(t, scope.Dispose())
	assert.Equal(t, 1, f.auditRows(t))
}

func TestCustomerRepository_Details(t *testing.T) {
	//Arrange
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`SELECT \* FROM "customers" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(7, "Ada", "ada@example.com"))
	f.mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."customer_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "status"}).
			AddRow(10, 7, entity.StatusPending).
			AddRow(11, 7, entity.StatusShipped))
	f.mock.ExpectQuery(`SELECT \* FROM "items" WHERE "items"\."order_id" IN \(\$1,\$2\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "unit_price"}).
			AddRow(100, 10, 1, 2, 10.0).
			AddRow(101, 11, 1, 1, 10.0))
	f.mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sku", "name", "price"}).AddRow(1, "KB-1", "Keyboard", 10.0))
	f.mock.ExpectCommit()

	//Act
	var got *entity.Customer
	err := f.uow.Do(context.Background(), func(ctx context.Context, p outbound.RepositoryProvider) error {
		var err error
		got, err = p.Customers().Details(ctx, 7)
		return err
	})

	//Assert
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())
	require.Len(t, got.Orders, 2)
	for _, o := range got.Orders {
		require.Len(t, o.Items, 1)
		require.NotNil(t, o.Items[0].Product)
		assert.Equal(t, "KB-1", o.Items[0].Product.SKU)
	}
}

func TestOrderRepository_DetailsNotFound(t *testing.T) {
	f := newFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}))
	f.mock.ExpectRollback()

	err := f.uow.Do(context.Background(), func(ctx context.Context, p outbound.RepositoryProvider) error {
		_, err := p.Orders().Details(ctx, 99)
		return err
	})

	assert.ErrorIs(t, err, data.ErrNotFound)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

type planFinder[T any] struct {
	plans [][]string
}

func (f *planFinder[T]) Find(_ context.Context, c data.Criteria) ([]*T, error) {
	f.plans = append(f.plans, c.Fetch.Strings())
	return nil, nil
}

func (f *planFinder[T]) Count(context.Context, data.Criteria) (int64, error) { return 0, nil }

func TestStrategies_RegistryAndContainerAgree(t *testing.T) {
	registry := data.NewStrategyRegistry(nil)
	RegisterStrategies(registry)
	c := container.NewRegistry()
	require.NoError(t, TagStrategies(c))

	for _, source := range []data.StrategySource{registry, data.ContainerStrategies(c)} {
		orders := &planFinder[entity.Order]{}
		customers := &planFinder[entity.Customer]{}

		_, err := data.NewQuery[entity.Order](orders, source).For(OrderDetails).List(context.Background())
		require.NoError(t, err)
		_, err = data.NewQuery[entity.Customer](customers, source).For(CustomerDetails).List(context.Background())
		require.NoError(t, err)

		assert.Equal(t, [][]string{{"Customer", "Items.Product"}}, orders.plans)
		assert.Equal(t, [][]string{{"Orders.Items.Product"}}, customers.plans)
	}
}

type memoryProducts struct {
	calls int
}

func (m *memoryProducts) Add(context.Context, *entity.Product) error { return nil }

func (m *memoryProducts) Get(_ context.Context, id uint) (*entity.Product, error) {
	m.calls++
	return &entity.Product{ID: id, SKU: "KB-1", Price: 10}, nil
}

type cacheMetrics struct {
	metrics.Nop
	misses int
}

func (m *cacheMetrics) IncCacheMiss(string) { m.misses++ }

func TestRedisProductCache_FallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	next := &memoryProducts{}
	m := &cacheMetrics{}
	cache := NewRedisProductCache(next, client, time.Minute, logger.NewNop(), m)

	p, err := cache.Get(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, "KB-1", p.SKU)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, m.misses)
	assert.NoError(t, cache.Add(context.Background(), p))
}

type recordingRedis struct {
	redis.Cmdable
	sets []string
	dels []string
}

func (r *recordingRedis) Get(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (r *recordingRedis) Set(_ context.Context, key string, _ any, _ time.Duration) *redis.StatusCmd {
	r.sets = append(r.sets, key)
	return redis.NewStatusResult("OK", nil)
}

func (r *recordingRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	r.dels = append(r.dels, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisProductCache_WritesOnlyAfterCommit(t *testing.T) {
	errBoom := errors.New("boom")
	tests := []struct {
		name     string
		fnErr    error
		wantSets []string
		wantDels []string
	}{
		{name: "commit", wantSets: []string{"product:3"}, wantDels: []string{"product:3"}},
		{name: "rollback", fnErr: errBoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//Arrange
			client := &recordingRedis{}
			cache := NewRedisProductCache(&memoryProducts{}, client, time.Minute, logger.NewNop(), metrics.Nop{})
			manager := data.NewManager(data.NewResolver())

			//Act
			err := manager.Do(context.Background(), func(ctx context.Context) error {
				if err := cache.Add(ctx, &entity.Product{ID: 3, SKU: "KB-3"}); err != nil {
					return err
				}
				if _, err := cache.Get(ctx, 3); err != nil {
					return err
				}
				assert.Empty(t, client.sets)
				assert.Empty(t, client.dels)
				return tt.fnErr
			})

			//Assert
			assert.ErrorIs(t, err, tt.fnErr)
			assert.Equal(t, tt.wantSets, client.sets)
			assert.Equal(t, tt.wantDels, client.dels)
		})
	}
}

func TestRedisProductCache_WritesRightAwayWithoutScope(t *testing.T) {
	client := &recordingRedis{}
	cache := NewRedisProductCache(&memoryProducts{}, client, time.Minute, logger.NewNop(), metrics.Nop{})

	_, err := cache.Get(context.Background(), 4)

	require.NoError(t, err)
	assert.Equal(t, []string{"product:4"}, client.sets)
}
