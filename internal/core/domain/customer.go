package domain

import "time"

// Customer is owned by the account system; this service only reads it,
// marks it deleted, and eventually purges it.
type Customer struct {
	Email      string
	Username   string
	Address    string
	PostalCode int
	Deleted    bool
	DeletedAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
