package entity

type Product struct {
	ID    uint    `gorm:"primaryKey"`
	SKU   string  `gorm:"uniqueIndex;not null"`
	Name  string  `gorm:"not null"`
	Price float64 `gorm:"not null"`
}

type Item struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"index;not null"`
	ProductID uint `gorm:"not null"`
	Product   *Product
	Quantity  int     `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"`
}

// NewItem prices the line at the product's current price.
func NewItem(p *Product, quantity int) (*Item, error) {
	if p == nil {
		return nil, ErrProductIsRequired
	}
	if quantity <= 0 {
		return nil, ErrQuantityMustBePos
	}
	if p.Price <= 0 {
		return nil, ErrPriceMustBePos
	}
	return &Item{ProductID: p.ID, Product: p, Quantity: quantity, UnitPrice: p.Price}, nil
}

func (i *Item) Total() float64 {
	return float64(i.Quantity) * i.UnitPrice
}
