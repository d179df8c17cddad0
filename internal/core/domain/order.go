package domain

import "time"

type OrderState string

const (
	OrderStatePending   OrderState = "pending"
	OrderStateFulfilled OrderState = "fulfilled"
)

// Valid reports whether s is a known order state.
func (s OrderState) Valid() bool {
	return s == OrderStatePending || s == OrderStateFulfilled
}

type Order struct {
	ID            string
	CustomerEmail string
	ProductID     string
	Quantity      int
	OrderDate     time.Time
	State         OrderState
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
