package entity

import (
	"time"

	"github.com/DioGolang/GoCommon/pkg/events"
)

type Order struct {
	ID           uint `gorm:"primaryKey"`
	CustomerID   uint `gorm:"index;not null"`
	Customer     *Customer
	Items        []*Item
	Status       string `gorm:"not null"`
	TrackingCode string
	Price        float64
	Tax          float64
	FinalPrice   float64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	pending []events.Event
}

func NewOrder(customerID uint, items []*Item, tax float64) (*Order, error) {
	order := &Order{
		CustomerID: customerID,
		Items:      items,
		Tax:        tax,
		Status:     (&PendingState{}).Name(),
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}
	order.CalculateFinalPrice()
	return order, nil
}

func (o *Order) Validate() error {
	if o.CustomerID == 0 {
		return ErrCustomerIsRequired
	}
	if len(o.Items) == 0 {
		return ErrItemsAreRequired
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			return ErrQuantityMustBePos
		}
	}
	if o.Tax < 0 {
		return ErrTaxMustBePos
	}
	return nil
}

func (o *Order) CalculateFinalPrice() {
	o.Price = 0
	for _, item := range o.Items {
		o.Price += item.Total()
	}
	o.FinalPrice = o.Price + o.Tax
}

// State is derived from Status, so an order loaded from storage behaves
// like the one that was saved.
func (o *Order) State() OrderState {
	return stateFor(o.Status)
}

func (o *Order) Ship(trackingCode string) error {
	if trackingCode == "" {
		return ErrTrackingIsRequired
	}
	return o.State().Ship(o, trackingCode)
}

func (o *Order) Deliver() error {
	return o.State().Deliver(o)
}

func (o *Order) Cancel() error {
	return o.State().Cancel(o)
}

func (o *Order) transitionTo(s OrderState) {
	o.Status = s.Name()
}

func (o *Order) record(e events.Event) {
	o.pending = append(o.pending, e)
}

// PullEvents returns the events raised since the last call and forgets them.
func (o *Order) PullEvents() []events.Event {
	out := o.pending
	o.pending = nil
	return out
}
