package events

import (
	"context"
	"time"
)

type Event interface {
	GetName() string
	GetDateTime() time.Time
	GetPayload() any
	SetPayload(payload any)
}

type EventDispatcher interface {
	Register(eventName string, handler EventHandler) error
	Dispatch(ctx context.Context, event Event) error
	Remove(eventName string, handler EventHandler) error
	Has(eventName string, handler EventHandler) bool
	Clear()
}

type EventHandler interface {
	Handle(ctx context.Context, event Event) error
}

// Publisher forwards an event outside the process, typically to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Base carries the fields every domain event has. Embed it and set Name.
type Base struct {
	Name     string
	DateTime time.Time
	Payload  any
}

func NewBase(name string, payload any) Base {
	return Base{Name: name, DateTime: time.Now().UTC(), Payload: payload}
}

func (b *Base) GetName() string        { return b.Name }
func (b *Base) GetDateTime() time.Time { return b.DateTime }
func (b *Base) GetPayload() any        { return b.Payload }
func (b *Base) SetPayload(payload any) { b.Payload = payload }
