package order

import (
	"context"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
)

type DetailsUseCaseImpl struct {
	UnitOfWork outbound.UnitOfWork
}

func NewDetailsUseCase(uow outbound.UnitOfWork) *DetailsUseCaseImpl {
	return &DetailsUseCaseImpl{UnitOfWork: uow}
}

func (uc *DetailsUseCaseImpl) Execute(ctx context.Context, id uint) (DetailsOutput, error) {
	var output DetailsOutput
	err := uc.UnitOfWork.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
		order, err := p.Orders().Details(ctx, id)
		if err != nil {
			return err
		}
		output = ToDetails(order)
		return nil
	})
	return output, err
}
