package customer

import (
	"context"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
)

type DetailsUseCase struct {
	UnitOfWork outbound.UnitOfWork
}

func NewDetailsUseCase(uow outbound.UnitOfWork) *DetailsUseCase {
	return &DetailsUseCase{UnitOfWork: uow}
}

func (uc *DetailsUseCase) Execute(ctx context.Context, id uint) (DetailsOutput, error) {
	var output DetailsOutput
	err := uc.UnitOfWork.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
		c, err := p.Customers().Details(ctx, id)
		if err != nil {
			return err
		}
		output = toDetails(c)
		return nil
	})
	return output, err
}
