package order

import (
	"context"
)

type CreateUseCase interface {
	Execute(ctx context.Context, input CreateInput) (CreateOutput, error)
}

type ShipUseCase interface {
	Execute(ctx context.Context, input ShipInput) (ShipOutput, error)
}

type DetailsUseCase interface {
	Execute(ctx context.Context, id uint) (DetailsOutput, error)
}
