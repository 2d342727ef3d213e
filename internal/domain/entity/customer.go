package entity

import (
	"strings"
	"time"
)

type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Orders    []*Order
	CreatedAt time.Time
}

func NewCustomer(name, email string) (*Customer, error) {
	c := &Customer{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if c.Name == "" {
		return nil, ErrNameIsRequired
	}
	if c.Email == "" {
		return nil, ErrEmailIsRequired
	}
	return c, nil
}
