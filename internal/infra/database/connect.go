package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/data/sqldata"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connections are the two databases behind the unit of work: orders through
// gorm and audit through database/sql.
type Connections struct {
	Orders    *gorm.DB
	OrdersSQL *sql.DB
	Audit     *sql.DB
	Resolver  *data.Resolver
}

// Connect opens and migrates both databases and registers their session
// factories with a new resolver.
func Connect(ctx context.Context, ordersDSN, auditDriver, auditDSN string) (*Connections, error) {
	c := &Connections{}
	ok := false
	defer func() {
		if !ok {
			_ = c.Close()
		}
	}()

	orders, err := gorm.Open(postgres.Open(ordersDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open orders database: %w", err)
	}
	c.Orders = orders
	if c.OrdersSQL, err = orders.DB(); err != nil {
		return nil, err
	}
	if err := MigrateOrders(ctx, orders); err != nil {
		return nil, err
	}

	audit, dialect, err := sqldata.Open(ctx, auditDriver, auditDSN)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	c.Audit = audit
	if err := MigrateAudit(ctx, audit); err != nil {
		return nil, err
	}

	ordersFactory, err := NewOrdersFactory(orders)
	if err != nil {
		return nil, err
	}
	auditFactory, err := NewAuditFactory(audit, dialect)
	if err != nil {
		return nil, err
	}
	c.Resolver = data.NewResolver()
	for _, p := range []data.FactoryProvider{ordersFactory.Provider(), auditFactory.Provider()} {
		if _, err := c.Resolver.RegisterFactory(p); err != nil {
			return nil, err
		}
	}

	ok = true
	return c, nil
}

func (c *Connections) Close() error {
	var errs []error
	if c.Audit != nil {
		errs = append(errs, c.Audit.Close())
	}
	if c.OrdersSQL != nil {
		errs = append(errs, c.OrdersSQL.Close())
	}
	return errors.Join(errs...)
}
