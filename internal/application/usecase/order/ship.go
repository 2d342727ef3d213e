package order

import (
	"context"
	"fmt"
	"strconv"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/events"
)

type ShipUseCaseImpl struct {
	UnitOfWork outbound.UnitOfWork
	Dispatcher *events.Dispatcher
}

func NewShipUseCase(uow outbound.UnitOfWork, dispatcher *events.Dispatcher) *ShipUseCaseImpl {
	return &ShipUseCaseImpl{UnitOfWork: uow, Dispatcher: dispatcher}
}

// Execute ships the order. The OrderShipped event is raised only once the
// unit of work has committed.
func (uc *ShipUseCaseImpl) Execute(ctx context.Context, input ShipInput) (ShipOutput, error) {
	var output ShipOutput
	err := uc.UnitOfWork.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
		order, err := p.Orders().Get(ctx, input.OrderID)
		if err != nil {
			return fmt.Errorf("order %d: %w", input.OrderID, err)
		}

		if err := order.Ship(input.TrackingCode); err != nil {
			return fmt.Errorf("domain rule violation: %w", err)
		}

		if err := p.Orders().Update(ctx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		entry := entity.NewAuditEntry("order", strconv.FormatUint(uint64(order.ID), 10), "shipped", map[string]string{
			"status":        order.Status,
			"tracking_code": order.TrackingCode,
		})
		if err := p.Audit().Add(ctx, entry); err != nil {
			return fmt.Errorf("failed to audit order: %w", err)
		}

		for _, e := range order.PullEvents() {
			if err := events.RaiseOnCommit(ctx, uc.Dispatcher, e); err != nil {
				return err
			}
		}

		output = ShipOutput{ID: order.ID, Status: order.Status, TrackingCode: order.TrackingCode}
		return nil
	})
	if err != nil {
		return ShipOutput{}, err
	}
	return output, nil
}
