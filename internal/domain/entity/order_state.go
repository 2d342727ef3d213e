package entity

import "errors"

var ErrInvalidStateTransition = errors.New("invalid state transition")

type OrderState interface {
	Name() string
	Ship(o *Order, trackingCode string) error
	Deliver(o *Order) error
	Cancel(o *Order) error
}

func stateFor(status string) OrderState {
	switch status {
	case StatusShipped:
		return &ShippedState{}
	case StatusDelivered:
		return &DeliveredState{}
	case StatusCancelled:
		return &CancelledState{}
	default:
		return &PendingState{}
	}
}
