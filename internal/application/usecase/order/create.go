package order

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
)

type CreateUseCaseImpl struct {
	UnitOfWork outbound.UnitOfWork
}

func NewCreateUseCase(uow outbound.UnitOfWork) *CreateUseCaseImpl {
	return &CreateUseCaseImpl{UnitOfWork: uow}
}

func (uc *CreateUseCaseImpl) Execute(ctx context.Context, input CreateInput) (CreateOutput, error) {
	var output CreateOutput
	err := uc.UnitOfWork.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
		if _, err := p.Customers().Get(ctx, input.CustomerID); err != nil {
			return fmt.Errorf("customer %d: %w", input.CustomerID, err)
		}

		items := make([]*entity.Item, 0, len(input.Items))
		for _, in := range input.Items {
			product, err := p.Products().Get(ctx, in.ProductID)
			if err != nil {
				return fmt.Errorf("product %d: %w", in.ProductID, err)
			}
			item, err := entity.NewItem(product, in.Quantity)
			if err != nil {
				return err
			}
			items = append(items, item)
		}

		order, err := entity.NewOrder(input.CustomerID, items, input.Tax)
		if err != nil {
			return err
		}
		if err := p.Orders().Add(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		entry := entity.NewAuditEntry("order", strconv.FormatUint(uint64(order.ID), 10), "created", map[string]string{
			"status":      order.Status,
			"final_price": strconv.FormatFloat(order.FinalPrice, 'f', 2, 64),
		})
		if err := p.Audit().Add(ctx, entry); err != nil {
			return fmt.Errorf("failed to audit order: %w", err)
		}

		output = CreateOutput{ID: order.ID, Status: order.Status, FinalPrice: order.FinalPrice}
		return nil
	})
	if err != nil {
		return CreateOutput{}, err
	}
	return output, nil
}
