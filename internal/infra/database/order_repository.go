package database

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/data/gormdata"
)

type OrderRepositoryImpl struct {
	repo *gormdata.Repository[entity.Order]
}

func NewOrderRepository(repo *gormdata.Repository[entity.Order]) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{repo: repo}
}

func (r *OrderRepositoryImpl) Add(ctx context.Context, order *entity.Order) error {
	return r.repo.Add(ctx, order)
}

func (r *OrderRepositoryImpl) Update(ctx context.Context, order *entity.Order) error {
	return r.repo.Update(ctx, order)
}

func (r *OrderRepositoryImpl) Get(ctx context.Context, id uint) (*entity.Order, error) {
	return r.repo.Get(ctx, id)
}

func (r *OrderRepositoryImpl) Details(ctx context.Context, id uint) (*entity.Order, error) {
	order, err := r.repo.Query().Where("id = ?", id).For(OrderDetails).SingleOrDefault(ctx)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %d", data.ErrNotFound, id)
	}
	return order, nil
}

func (r *OrderRepositoryImpl) ListByCustomer(ctx context.Context, customerID uint, limit int) ([]*entity.Order, error) {
	return r.repo.Query().
		Where("customer_id = ?", customerID).
		OrderBy("id", true).
		Limit(limit).
		List(ctx)
}

type CustomerRepositoryImpl struct {
	repo *gormdata.Repository[entity.Customer]
}

func NewCustomerRepository(repo *gormdata.Repository[entity.Customer]) *CustomerRepositoryImpl {
	return &CustomerRepositoryImpl{repo: repo}
}

func (r *CustomerRepositoryImpl) Add(ctx context.Context, c *entity.Customer) error {
	return r.repo.Add(ctx, c)
}

func (r *CustomerRepositoryImpl) Get(ctx context.Context, id uint) (*entity.Customer, error) {
	return r.repo.Get(ctx, id)
}

func (r *CustomerRepositoryImpl) Details(ctx context.Context, id uint) (*entity.Customer, error) {
	return r.repo.Query().Where("id = ?", id).For(CustomerDetails).First(ctx)
}

type ProductRepositoryImpl struct {
	repo *gormdata.Repository[entity.Product]
}

func NewProductRepository(repo *gormdata.Repository[entity.Product]) *ProductRepositoryImpl {
	return &ProductRepositoryImpl{repo: repo}
}

func (r *ProductRepositoryImpl) Add(ctx context.Context, p *entity.Product) error {
	return r.repo.Add(ctx, p)
}

func (r *ProductRepositoryImpl) Get(ctx context.Context, id uint) (*entity.Product, error) {
	return r.repo.Get(ctx, id)
}

var (
	_ outbound.OrderRepository    = (*OrderRepositoryImpl)(nil)
	_ outbound.CustomerRepository = (*CustomerRepositoryImpl)(nil)
	_ outbound.ProductRepository  = (*ProductRepositoryImpl)(nil)
)
