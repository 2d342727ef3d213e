package database

import (
	"reflect"

	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/container"
	"github.com/DioGolang/GoCommon/pkg/data"
)

const (
	CustomerDetails = "customer-details"
	OrderDetails    = "order-details"
)

var (
	customerDetails = data.StrategyFunc[entity.Customer](func(q data.Query[entity.Customer]) data.Query[entity.Customer] {
		return q.FetchMany("Orders").ThenFetchMany("Items").ThenFetch("Product")
	})
	orderCustomer = data.StrategyFunc[entity.Order](func(q data.Query[entity.Order]) data.Query[entity.Order] {
		return q.Fetch("Customer")
	})
	orderItems = data.StrategyFunc[entity.Order](func(q data.Query[entity.Order]) data.Query[entity.Order] {
		return q.FetchMany("Items").ThenFetch("Product")
	})
)

// RegisterStrategies adds the fetching strategies of the demo domain.
func RegisterStrategies(r *data.StrategyRegistry) {
	data.RegisterStrategy[entity.Customer](r, CustomerDetails, customerDetails)
	data.RegisterStrategy[entity.Order](r, OrderDetails, orderCustomer)
	data.RegisterStrategy[entity.Order](r, OrderDetails, orderItems)
}

// TagStrategies registers the same strategies in a container, for use with
// data.ContainerStrategies.
func TagStrategies(a container.Adapter) error {
	entries := []struct {
		key      container.Key
		t        reflect.Type
		name     string
		strategy any
	}{
		{"strategy.customer-details", data.TypeOf[entity.Customer](), CustomerDetails, data.Strategy[entity.Customer](customerDetails)},
		{"strategy.order-details.customer", data.TypeOf[entity.Order](), OrderDetails, data.Strategy[entity.Order](orderCustomer)},
		{"strategy.order-details.items", data.TypeOf[entity.Order](), OrderDetails, data.Strategy[entity.Order](orderItems)},
	}
	for _, e := range entries {
		if err := a.RegisterInstance(e.key, e.strategy); err != nil {
			return err
		}
		if err := a.Tag(data.StrategyTag(e.t, e.name), e.key); err != nil {
			return err
		}
	}
	return nil
}
