package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newItems(t *testing.T) []*Item {
	t.Helper()
	keyboard, err := NewItem(&Product{ID: 1, SKU: "KB-1", Name: "Keyboard", Price: 10}, 2)
	require.NoError(t, err)
	mouse, err := NewItem(&Product{ID: 2, SKU: "MS-1", Name: "Mouse", Price: 5}, 1)
	require.NoError(t, err)
	return []*Item{keyboard, mouse}
}

func TestNewOrder(t *testing.T) {
	//Arrange
	items := newItems(t)

	//Act
	order, err := NewOrder(7, items, 2.0)

	//Assert
	assert.Nil(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 25.0, order.Price)
	assert.Equal(t, 27.0, order.FinalPrice)
	assert.Equal(t, StatusPending, order.Status)
}

func TestNewOrder_ValidationErrors(t *testing.T) {
	items := newItems(t)

	tests := []struct {
		name        string
		customerID  uint
		items       []*Item
		tax         float64
		expectedErr error
	}{
		{"Should return error when customer is missing", 0, items, 2.0, ErrCustomerIsRequired},
		{"Should return error when there are no items", 7, nil, 2.0, ErrItemsAreRequired},
		{"Should return error when a quantity is zero", 7, []*Item{{Quantity: 0, UnitPrice: 1}}, 2.0, ErrQuantityMustBePos},
		{"Should return error when Tax is negative", 7, items, -1.0, ErrTaxMustBePos},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewOrder(tt.customerID, tt.items, tt.tax)

			assert.Error(t, err)
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.Nil(t, order)
		})
	}
}

func TestNewItem_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		product     *Product
		quantity    int
		expectedErr error
	}{
		{"missing product", nil, 1, ErrProductIsRequired},
		{"zero quantity", &Product{Price: 1}, 0, ErrQuantityMustBePos},
		{"free product", &Product{Price: 0}, 1, ErrPriceMustBePos},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewItem(tt.product, tt.quantity)

			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestOrder_Transitions(t *testing.T) {
	tests := []struct {
		name       string
		from       string
		act        func(o *Order) error
		wantStatus string
		wantErr    error
	}{
		{"pending ships", StatusPending, func(o *Order) error { return o.Ship("TRK-1") }, StatusShipped, nil},
		{"pending cancels", StatusPending, (*Order).Cancel, StatusCancelled, nil},
		{"pending cannot be delivered", StatusPending, (*Order).Deliver, StatusPending, ErrInvalidStateTransition},
		{"shipped delivers", StatusShipped, (*Order).Deliver, StatusDelivered, nil},
		{"shipped cannot ship again", StatusShipped, func(o *Order) error { return o.Ship("TRK-2") }, StatusShipped, ErrInvalidStateTransition},
		{"delivered is final", StatusDelivered, (*Order).Cancel, StatusDelivered, ErrInvalidStateTransition},
		{"cancelled is final", StatusCancelled, (*Order).Deliver, StatusCancelled, ErrInvalidStateTransition},
		{"ship needs a tracking code", StatusPending, func(o *Order) error { return o.Ship("") }, StatusPending, ErrTrackingIsRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{ID: 1, CustomerID: 7, Status: tt.from}

			err := tt.act(o)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantStatus, o.Status)
		})
	}
}

func TestOrder_ShipRaisesEvent(t *testing.T) {
	o, err := NewOrder(7, newItems(t), 0)
	require.NoError(t, err)
	o.ID = 42

	require.NoError(t, o.Ship("TRK-42"))
	pending := o.PullEvents()

	require.Len(t, pending, 1)
	assert.Equal(t, OrderShippedEvent, pending[0].GetName())
	payload := pending[0].GetPayload().(OrderShippedPayload)
	assert.Equal(t, uint(42), payload.OrderID)
	assert.Equal(t, "TRK-42", payload.TrackingCode)
	assert.Empty(t, o.PullEvents())
}

func TestNewAuditEntry_SortsChanges(t *testing.T) {
	e := NewAuditEntry("order", "42", "shipped", map[string]string{"tracking_code": "TRK", "status": "SHIPPED"})

	require.Len(t, e.Changes, 2)
	assert.Equal(t, "status", e.Changes[0].Field)
	assert.Equal(t, "tracking_code", e.Changes[1].Field)
}

func TestNewCustomer(t *testing.T) {
	c, err := NewCustomer("  Ada ", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", c.Name)

	_, err = NewCustomer("", "x@example.com")
	assert.ErrorIs(t, err, ErrNameIsRequired)
	_, err = NewCustomer("Ada", " ")
	assert.ErrorIs(t, err, ErrEmailIsRequired)
}
