package order

import (
	"context"
	"time"

	"github.com/DioGolang/GoCommon/pkg/metrics"
)

type ShipOrderMetricsDecorator struct {
	Next    ShipUseCase
	Metrics metrics.Metrics
}

func (d ShipOrderMetricsDecorator) Execute(ctx context.Context, input ShipInput) (ShipOutput, error) {
	start := time.Now()
	output, err := d.Next.Execute(ctx, input)
	d.Metrics.RecordUseCaseExecution("ShipOrder", err == nil, time.Since(start))
	return output, err
}
