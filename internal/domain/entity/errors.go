package entity

import "errors"

var (
	ErrNameIsRequired     = errors.New("name is required")
	ErrEmailIsRequired    = errors.New("email is required")
	ErrCustomerIsRequired = errors.New("customer is required")
	ErrItemsAreRequired   = errors.New("order needs at least one item")
	ErrProductIsRequired  = errors.New("product is required")
	ErrQuantityMustBePos  = errors.New("quantity must be greater than zero")
	ErrPriceMustBePos     = errors.New("price must be greater than zero")
	ErrTaxMustBePos       = errors.New("tax must be greater than or equal to zero")
	ErrTrackingIsRequired = errors.New("tracking code is required")
)
