package entity

const (
	StatusPending   = "PENDING"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
	StatusCancelled = "CANCELLED"
)

type PendingState struct{}

func (s *PendingState) Name() string { return StatusPending }

func (s *PendingState) Ship(o *Order, trackingCode string) error {
	o.TrackingCode = trackingCode
	o.transitionTo(&ShippedState{})
	o.record(NewOrderShipped(o))
	return nil
}

func (s *PendingState) Deliver(o *Order) error {
	return ErrInvalidStateTransition
}

func (s *PendingState) Cancel(o *Order) error {
	o.transitionTo(&CancelledState{})
	return nil
}

type ShippedState struct{}

func (s *ShippedState) Name() string { return StatusShipped }

func (s *ShippedState) Ship(o *Order, trackingCode string) error {
	return ErrInvalidStateTransition
}

func (s *ShippedState) Deliver(o *Order) error {
	o.transitionTo(&DeliveredState{})
	return nil
}

func (s *ShippedState) Cancel(o *Order) error {
	o.transitionTo(&CancelledState{})
	return nil
}

type DeliveredState struct{}

func (s *DeliveredState) Name() string { return StatusDelivered }

func (s *DeliveredState) Ship(o *Order, trackingCode string) error { return ErrInvalidStateTransition }
func (s *DeliveredState) Deliver(o *Order) error                   { return ErrInvalidStateTransition }
func (s *DeliveredState) Cancel(o *Order) error                    { return ErrInvalidStateTransition }

type CancelledState struct{}

func (s *CancelledState) Name() string                             { return StatusCancelled }
func (s *CancelledState) Ship(o *Order, trackingCode string) error { return ErrInvalidStateTransition }
func (s *CancelledState) Deliver(o *Order) error                   { return ErrInvalidStateTransition }
func (s *CancelledState) Cancel(o *Order) error                    { return ErrInvalidStateTransition }
