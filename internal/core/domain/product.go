package domain

import "time"

type Product struct {
	ID        string
	Name      string
	Price     int
	Stock     int
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
