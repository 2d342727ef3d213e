package event

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/DioGolang/GoCommon/pkg/logger"
)

type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// WrapIdempotency drops messages whose event id was already handled by
// handlerName. Messages without an id are keyed by the hash of their body.
// When the store is down the message fails instead of risking a duplicate.
func WrapIdempotency(
	log logger.Logger,
	store IdempotencyStore,
	handlerName string,
	ttl time.Duration,
	next MessageHandler,
) MessageHandler {
	return func(ctx context.Context, msg []byte, headers map[string]any) error {
		var eventID string
		if v, ok := headers[HeaderEventID]; ok {
			eventID = fmt.Sprintf("%v", v)
		}
		if eventID == "" {
			hash := sha256.Sum256(msg)
			eventID = fmt.Sprintf("hash:%x", hash)
		}

		key := fmt.Sprintf("dedup:%s:%s", handlerName, eventID)

		saved, err := store.SetNX(ctx, key, "processing", ttl)
		if err != nil {
			log.Error(ctx, "Idempotency store unavailable", logger.WithError(err))
			return fmt.Errorf("idempotency store unavailable: %w", err)
		}
		if !saved {
			log.Info(ctx, "Duplicate event dropped",
				logger.String("handler", handlerName),
				logger.String("event_id", eventID),
			)
			return nil
		}

		err = next(ctx, msg, headers)
		if err != nil {
			log.Warn(ctx, "Handler failed, releasing idempotency key",
				logger.String("key", key),
				logger.WithError(err),
			)
			if delErr := store.Del(ctx, key); delErr != nil {
				log.Error(ctx, "Failed to release idempotency key",
					logger.String("key", key),
					logger.WithError(delErr),
				)
			}
		}
		return err
	}
}
