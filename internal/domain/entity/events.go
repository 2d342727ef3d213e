package entity

import "github.com/DioGolang/GoCommon/pkg/events"

const OrderShippedEvent = "order.shipped"

type OrderShippedPayload struct {
	OrderID      uint    `json:"order_id"`
	CustomerID   uint    `json:"customer_id"`
	TrackingCode string  `json:"tracking_code"`
	FinalPrice   float64 `json:"final_price"`
}

type OrderShipped struct {
	events.Base
}

func NewOrderShipped(o *Order) *OrderShipped {
	return &OrderShipped{Base: events.NewBase(OrderShippedEvent, OrderShippedPayload{
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		TrackingCode: o.TrackingCode,
		FinalPrice:   o.FinalPrice,
	})}
}
