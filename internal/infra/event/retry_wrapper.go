package event

import (
	"context"
	"math"
	"time"

	"github.com/DioGolang/GoCommon/pkg/logger"
	"github.com/DioGolang/GoCommon/pkg/metrics"
)

func WrapExponentialBackoff(
	log logger.Logger,
	m metrics.Metrics,
	handlerName string,
	maxRetries int,
	baseWait time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]any) error {
		var err error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			if err = next(ctx, msg, headers); err == nil {
				return nil
			}
			if attempt == maxRetries {
				break
			}

			wait := baseWait * time.Duration(math.Pow(2, float64(attempt)))
			log.Warn(ctx, "Transient failure, retrying",
				logger.String("handler", handlerName),
				logger.Int("attempt", attempt+1),
				logger.Duration("wait", wait),
				logger.WithError(err),
			)

			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}

		log.Error(ctx, "Max retries reached, giving up",
			logger.String("handler", handlerName),
			logger.WithError(err),
		)
		m.RecordUseCaseExecution(handlerName+"_final_failure", false, 0)
		return err
	}
}
