package customer

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
)

type CreateUseCase struct {
	UnitOfWork outbound.UnitOfWork
}

func NewCreateUseCase(uow outbound.UnitOfWork) *CreateUseCase {
	return &CreateUseCase{UnitOfWork: uow}
}

func (uc *CreateUseCase) Execute(ctx context.Context, input CreateInput) (CreateOutput, error) {
	c, err := entity.NewCustomer(input.Name, input.Email)
	if err != nil {
		return CreateOutput{}, err
	}

	err = uc.UnitOfWork.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
		if err := p.Customers().Add(ctx, c); err != nil {
			return fmt.Errorf("failed to save customer: %w", err)
		}
		return p.Audit().Add(ctx, entity.NewAuditEntry("customer", strconv.FormatUint(uint64(c.ID), 10), "created",
			map[string]string{"email": c.Email}))
	})
	if err != nil {
		return CreateOutput{}, err
	}
	return CreateOutput{ID: c.ID, Name: c.Name, Email: c.Email}, nil
}
