package customer

import "context"

type Creator interface {
	Execute(ctx context.Context, input CreateInput) (CreateOutput, error)
}

type Detailer interface {
	Execute(ctx context.Context, id uint) (DetailsOutput, error)
}

var (
	_ Creator  = (*CreateUseCase)(nil)
	_ Detailer = (*DetailsUseCase)(nil)
)
