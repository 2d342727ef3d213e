package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/DioGolang/GoCommon/internal/application/port/outbound"
	"github.com/DioGolang/GoCommon/internal/domain/entity"
	"github.com/DioGolang/GoCommon/pkg/data"
	"github.com/DioGolang/GoCommon/pkg/logger"
)

// NewOrderShippedHandler records that the shipment of an order was
// announced. The order is read and the audit entry written in one unit of
// work spanning both databases.
func NewOrderShippedHandler(uow outbound.UnitOfWork, log logger.Logger) MessageHandler {
	return func(ctx context.Context, msg []byte, _ map[string]any) error {
		var payload entity.OrderShippedPayload
		if err := json.Unmarshal(msg, &payload); err != nil {
			return fmt.Errorf("decode %s: %w", entity.OrderShippedEvent, err)
		}

		err := uow.Do(ctx, func(ctx context.Context, p outbound.RepositoryProvider) error {
			order, err := p.Orders().Get(ctx, payload.OrderID)
			if err != nil {
				return err
			}
			return p.Audit().Add(ctx, entity.NewAuditEntry("order", strconv.FormatUint(uint64(order.ID), 10), "shipment.notified",
				map[string]string{
					"tracking_code": payload.TrackingCode,
					"customer_id":   strconv.FormatUint(uint64(payload.CustomerID), 10),
				}))
		})
		if errors.Is(err, data.ErrNotFound) {
			log.Warn(ctx, "Shipped order no longer exists", logger.Int("order_id", int(payload.OrderID)))
			return nil
		}
		return err
	}
}
