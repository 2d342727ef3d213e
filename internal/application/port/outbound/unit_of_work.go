package outbound

import (
	"context"
)

// RepositoryProvider hands out the repositories that take part in a unit of
// work.
type RepositoryProvider interface {
	Orders() OrderRepository
	Customers() CustomerRepository
	Products() ProductRepository
	Audit() AuditRepository
}

// UnitOfWork runs fn atomically. fn must use the ctx it receives: it carries
// the scope the repositories join.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, provider RepositoryProvider) error) error
}
