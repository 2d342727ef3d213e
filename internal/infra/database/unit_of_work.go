package database

import (
	"context"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/data/gormdata"
	"github.com/DioGolang/GoCommon/pkg/data/sqldata"
	"github.com/DioGolang/GoCommon/pkg/metrics"
)

// RepositoryProviderImpl holds no transaction of its own: each repository
// finds its session through the scope in the ctx it is called with.
type RepositoryProviderImpl struct {
	orders    *OrderRepositoryImpl
	customers *CustomerRepositoryImpl
	products  outbound.ProductRepository
	audit     *AuditRepositoryImpl
}

func NewRepositoryProvider(strategies data.StrategySource, m metrics.Metrics) *RepositoryProviderImpl {
	return &RepositoryProviderImpl{
		orders:    NewOrderRepository(gormdata.NewRepository[entity.Order](strategies, m)),
		customers: NewCustomerRepository(gormdata.NewRepository[entity.Customer](strategies, m)),
		products:  NewProductRepository(gormdata.NewRepository[entity.Product](strategies, m)),
		audit: NewAuditRepository(
			sqldata.NewRepository[entity.AuditEntry](strategies, m),
			sqldata.NewRepository[entity.AuditChange](strategies, m),
		),
	}
}

// WithProducts replaces the product repository, typically with a cache in
// front of it.
func (p *RepositoryProviderImpl) WithProducts(products outbound.ProductRepository) *RepositoryProviderImpl {
	cp := *p
	cp.products = products
	return &cp
}

func (p *RepositoryProviderImpl) Orders() outbound.OrderRepository       { return p.orders }
func (p *RepositoryProviderImpl) Customers() outbound.CustomerRepository { return p.customers }
func (p *RepositoryProviderImpl) Products() outbound.ProductRepository   { return p.products }
func (p *RepositoryProviderImpl) Audit() outbound.AuditRepository        { return p.audit }

// UnitOfWorkImpl joins the scope already in ctx, such as the one the HTTP
// middleware starts, or starts its own.
type UnitOfWorkImpl struct {
	manager  *data.Manager
	provider outbound.RepositoryProvider
}

func NewUnitOfWork(manager *data.Manager, provider outbound.RepositoryProvider) *UnitOfWorkImpl {
	return &UnitOfWorkImpl{manager: manager, provider: provider}
}

func (u *UnitOfWorkImpl) Do(ctx context.Context, fn func(ctx context.Context, provider outbound.RepositoryProvider) error) error {
	return u.manager.Do(ctx, func(ctx context.Context) error {
		return fn(ctx, u.provider)
	})
}

var _ outbound.UnitOfWork = (*UnitOfWorkImpl)(nil)
