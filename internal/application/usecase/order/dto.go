package order

import "github.com/DioGolang/GoCommon/internal/domain/entity"

// Input

type ItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

type CreateInput struct {
	CustomerID uint        `json:"customer_id"`
	Items      []ItemInput `json:"items"`
	Tax        float64     `json:"tax"`
}

type ShipInput struct {
	OrderID      uint   `json:"-"`
	TrackingCode string `json:"tracking_code"`
}

// Output

type CreateOutput struct {
	ID         uint    `json:"id"`
	Status     string  `json:"status"`
	FinalPrice float64 `json:"final_price"`
}

type ShipOutput struct {
	ID           uint   `json:"id"`
	Status       string `json:"status"`
	TrackingCode string `json:"tracking_code"`
}

type ItemOutput struct {
	ProductID uint    `json:"product_id"`
	SKU       string  `json:"sku,omitempty"`
	Name      string  `json:"name,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type DetailsOutput struct {
	ID           uint         `json:"id"`
	CustomerID   uint         `json:"customer_id"`
	CustomerName string       `json:"customer_name,omitempty"`
	Status       string       `json:"status"`
	TrackingCode string       `json:"tracking_code,omitempty"`
	Items        []ItemOutput `json:"items"`
	Price        float64      `json:"price"`
	Tax          float64      `json:"tax"`
	FinalPrice   float64      `json:"final_price"`
}

// ToDetails flattens an order loaded with its customer, items and products.
func ToDetails(o *entity.Order) DetailsOutput {
	out := DetailsOutput{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		Status:       o.Status,
		TrackingCode: o.TrackingCode,
		Items:        make([]ItemOutput, 0, len(o.Items)),
		Price:        o.Price,
		Tax:          o.Tax,
		FinalPrice:   o.FinalPrice,
	}
	if o.Customer != nil {
		out.CustomerName = o.Customer.Name
	}
	for _, it := range o.Items {
		item := ItemOutput{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
		if it.Product != nil {
			item.SKU, item.Name = it.Product.SKU, it.Product.Name
		}
		out.Items = append(out.Items, item)
	}
	return out
}
