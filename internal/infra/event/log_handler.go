package event

import (
	"context"

	"github.com/DioGolang/GoCommon/pkg/events"
	"github.com/DioGolang/GoCommon/pkg/logger"
)

// LogHandler writes every event it receives to the log.
type LogHandler struct {
	Logger logger.Logger
}

func (h LogHandler) Handle(ctx context.Context, e events.Event) error {
	h.Logger.Info(ctx, "Domain event raised",
		logger.String("event", e.GetName()),
		logger.Any("payload", e.GetPayload()),
	)
	return nil
}

var _ events.EventHandler = LogHandler{}
