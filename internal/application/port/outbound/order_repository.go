package outbound

import (
	"context"

	"github.com/DioGolang/GoCommon/internal/domain/entity"
)

type OrderRepository interface {
	Add(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	Get(ctx context.Context, id uint) (*entity.Order, error)
	// Details loads the order with its customer, items and their products.
	Details(ctx context.Context, id uint) (*entity.Order, error)
	ListByCustomer(ctx context.Context, customerID uint, limit int) ([]*entity.Order, error)
}

type CustomerRepository interface {
	Add(ctx context.Context, customer *entity.Customer) error
	Get(ctx context.Context, id uint) (*entity.Customer, error)
	// Details loads the customer with every order, item and product.
	Details(ctx context.Context, id uint) (*entity.Customer, error)
}

type ProductRepository interface {
	Add(ctx context.Context, product *entity.Product) error
	Get(ctx context.Context, id uint) (*entity.Product, error)
}

type AuditRepository interface {
	Add(ctx context.Context, entry *entity.AuditEntry) error
	// History lists the entries of one entity, newest first, with their
	// changes.
	History(ctx context.Context, entityName, entityID string) ([]*entity.AuditEntry, error)
}
