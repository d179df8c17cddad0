package domain

type CartItem struct {
	CustomerEmail string `json:"customer_email"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
}
