package gormdata

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Customer struct {
	ID     uint
	Name   string
	Orders []*Order
}

type Order struct {
	ID         uint
	CustomerID uint
	Customer   *Customer
	Items      []*Item
}

type Item struct {
	ID        uint
	OrderID   uint
	ProductID uint
	Product   *Product
	Quantity  int
}

type Product struct {
	ID   uint
	Name string
}

type setup struct {
	mock     sqlmock.Sqlmock
	manager  *data.Manager
	factory  *Factory
	strategy *data.StrategyRegistry
}

func newSetup(t *testing.T) *setup {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	factory, err := NewFactory("orders", db, &Customer{}, &Order{}, &Item{}, &Product{})
	require.NoError(t, err)

	resolver := data.NewResolver()
	_, err = resolver.RegisterFactory(factory.Provider())
	require.NoError(t, err)

	return &setup{
		mock:     mock,
		manager:  data.NewManager(resolver),
		factory:  factory,
		strategy: data.NewStrategyRegistry(nil),
	}
}

func TestNewFactory_MapsModels(t *testing.T) {
	s := newSetup(t)

	assert.Equal(t, "orders", s.factory.Name())
	assert.ElementsMatch(t, []any{
		data.TypeOf[Customer](), data.TypeOf[Order](), data.TypeOf[Item](), data.TypeOf[Product](),
	}, toAny(s.factory.MappedTypes()))
}

func TestNewFactory_RejectsInvalidModels(t *testing.T) {
	s := newSetup(t)

	_, err := NewFactory("broken", s.factory.DB(), 42)

	assert.ErrorIs(t, err, data.ErrConfiguration)
}

func TestRepository_EagerFetchCustomerOrdersItemsProducts(t *testing.T) {
	//Arrange
	s := newSetup(t)
	customers := NewRepository[Customer](s.strategy, nil)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "customers" WHERE name = \$1`).
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ada"))
	s.mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."customer_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}).AddRow(10, 1).AddRow(11, 1))
	s.mock.ExpectQuery(`SELECT \* FROM "items" WHERE "items"\."order_id" IN \(\$1,\$2\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).
			AddRow(100, 10, 7, 2).
			AddRow(101, 11, 8, 1))
	s.mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"\."id" IN \(\$1,\$2\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "keyboard").AddRow(8, "mouse"))
	s.mock.ExpectCommit()

	//Act
	var got []*Customer
	err := s.manager.Do(context.Background(), func(ctx context.Context) error {
		var err error
		got, err = customers.Query().
			Where("name = ?", "ada").
			FetchMany("Orders").ThenFetchMany("Items").ThenFetch("Product").
			List(ctx)
		return err
	})

	//Assert
	require.NoError(t, err)
	require.NoError(t, s.mock.ExpectationsWereMet())
	require.Len(t, got, 1)
	require.Len(t, got[0].Orders, 2)
	for _, o := range got[0].Orders {
		require.Len(t, o.Items, 1)
		require.NotNil(t, o.Items[0].Product)
	}
	assert.Equal(t, "keyboard", got[0].Orders[0].Items[0].Product.Name)
	assert.Equal(t, "mouse", got[0].Orders[1].Items[0].Product.Name)
}

func TestRepository_FetchSingleValuedAssociation(t *testing.T) {
	s := newSetup(t)
	orders := NewRepository[Order](s.strategy, nil)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "orders" WHERE "orders"\."id" = \$1`).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}).AddRow(10, 1))
	s.mock.ExpectQuery(`SELECT \* FROM "customers" WHERE "customers"\."id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ada"))
	s.mock.ExpectCommit()

	var got *Order
	err := s.manager.Do(context.Background(), func(ctx context.Context) error {
		var err error
		got, err = orders.Query().Where(`"orders"."id" = ?`, 10).Fetch("Customer").First(ctx)
		return err
	})

	require.NoError(t, err)
	require.NoError(t, s.mock.ExpectationsWereMet())
	require.NotNil(t, got.Customer)
	assert.Equal(t, "ada", got.Customer.Name)
	assert.Nil(t, got.Items)
}

func TestRepository_ForNamedStrategy(t *testing.T) {
	s := newSetup(t)
	data.RegisterStrategy[Order](s.strategy, "with-items", data.StrategyFunc[Order](func(q data.Query[Order]) data.Query[Order] {
		return q.FetchMany("Items")
	}))
	orders := NewRepository[Order](s.strategy, nil)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "orders"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id"}).AddRow(10, 1))
	s.mock.ExpectQuery(`SELECT \* FROM "items" WHERE "items"\."order_id" = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).AddRow(100, 10, 7, 3))
	s.mock.ExpectCommit()

	var got []*Order
	err := s.manager.Do(context.Background(), func(ctx context.Context) error {
		var err error
		got, err = orders.Query().For("with-items").List(ctx)
		return err
	})

	require.NoError(t, err)
	require.NoError(t, s.mock.ExpectationsWereMet())
	require.Len(t, got, 1)
	require.Len(t, got[0].Items, 1)
	assert.Equal(t, 3, got[0].Items[0].Quantity)
	assert.Nil(t, got[0].Items[0].Product)
}

func TestRepository_GetNotFound(t *testing.T) {
	s := newSetup(t)
	products := NewRepository[Product](s.strategy, nil)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT \* FROM "products" WHERE "products"\."id" = \$1`).
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	s.mock.ExpectRollback()

	err := s.manager.Do(context.Background(), func(ctx context.Context) error {
		_, err := products.Get(ctx, 99)
		return err
	})

	assert.ErrorIs(t, err, data.ErrNotFound)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRepository_AddCommitsWithTheScope(t *testing.T) {
	s := newSetup(t)
	products := NewRepository[Product](s.strategy, nil)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "products" \("name"\) VALUES \(\$1\) RETURNING "id"`).
		WithArgs("keyboard").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	s.mock.ExpectCommit()

	p := &Product{Name: "keyboard"}
	err := s.manager.Do(context.Background(), func(ctx context.Context) error {
		return products.Add(ctx, p)
	})

	require.NoError(t, err)
	require.NoError(t, s.mock.ExpectationsWereMet())
	assert.Equal(t, uint(7), p.ID)
}

func TestRepository_FailureRollsBack(t *testing.T) {
	s := newSetup(t)
	products := NewRepository[Product](s.strategy, nil)
	dbErr := errors.New("connection reset")

	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`INSERT INTO "products"`).WillReturnError(dbErr)
	s.mock.ExpectRollback()

	err := s.manager.Do(context.Background(), func(ctx context.Context) error {
		return products.Add(ctx, &Product{Name: "keyboard"})
	})

	assert.ErrorIs(t, err, dbErr)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRepository_NeedsAScope(t *testing.T) {
	s := newSetup(t)
	products := NewRepository[Product](s.strategy, nil)

	_, err := products.Get(context.Background(), 1)

	assert.ErrorIs(t, err, data.ErrNoScope)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func TestRepository_UpdateAndDeleteMissingRow(t *testing.T) {
	tests := []struct {
		name    string
		expect  string
		rows    int64
		act     func(ctx context.Context, r *Repository[Product]) error
		wantErr error
	}{
		{
			name:   "update existing",
			expect: `UPDATE "products" SET "name"=\$1 WHERE "id" = \$2`,
			rows:   1,
			act: func(ctx context.Context, r *Repository[Product]) error {
				return r.Update(ctx, &Product{ID: 7, Name: "mouse"})
			},
		},
		{
			name:   "update missing",
			expect: `UPDATE "products" SET "name"=\$1 WHERE "id" = \$2`,
			rows:   0,
			act: func(ctx context.Context, r *Repository[Product]) error {
				return r.Update(ctx, &Product{ID: 999, Name: "mouse"})
			},
			wantErr: data.ErrNotFound,
		},
		{
			name:   "delete existing",
			expect: `DELETE FROM "products" WHERE "products"\."id" = \$1`,
			rows:   1,
			act: func(ctx context.Context, r *Repository[Product]) error {
				return r.Delete(ctx, &Product{ID: 7})
			},
		},
		{
			name:   "delete missing",
			expect: `DELETE FROM "products" WHERE "products"\."id" = \$1`,
			rows:   0,
			act: func(ctx context.Context, r *Repository[Product]) error {
				return r.Delete(ctx, &Product{ID: 999})
			},
			wantErr: data.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//Arrange
			s := newSetup(t)
			products := NewRepository[Product](s.strategy, nil)
			s.mock.ExpectBegin()
			s.mock.ExpectExec(tt.expect).WillReturnResult(sqlmock.NewResult(0, tt.rows))
			if tt.wantErr != nil {
				s.mock.ExpectRollback()
			} else {
				s.mock.ExpectCommit()
			}

			//Act
			err := s.manager.Do(context.Background(), func(ctx context.Context) error {
				return tt.act(ctx, products)
			})

			//Assert
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			require.NoError(t, s.mock.ExpectationsWereMet())
		})
	}
}
