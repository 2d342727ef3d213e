package event

import "context"

// Exchange is the topic exchange domain events are published to. The
// routing key of a message is the event name.
const Exchange = "gocommon.events"

const (
	HeaderEventID   = "x-event-id"
	HeaderEventName = "x-event-name"
)

type MessageHandler func(ctx context.Context, msg []byte, headers map[string]any) error
