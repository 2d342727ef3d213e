package customer

import (
	"github.com/DioGolang/GoCommon/internal/application/usecase/order"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
)

type CreateInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CreateOutput struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type DetailsOutput struct {
	ID     uint                  `json:"id"`
	Name   string                `json:"name"`
	Email  string                `json:"email"`
	Orders []order.DetailsOutput `json:"orders"`
}

func toDetails(c *entity.Customer) DetailsOutput {
	out := DetailsOutput{ID: c.ID, Name: c.Name, Email: c.Email, Orders: make([]order.DetailsOutput, 0, len(c.Orders))}
	for _, o := range c.Orders {
		d := order.ToDetails(o)
		d.CustomerName = c.Name
		out.Orders = append(out.Orders, d)
	}
	return out
}
