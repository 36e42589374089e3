package domain

import "time"

// Order is the persisted record of one successful settlement. It is
// written exactly once and never mutated afterwards.
type Order struct {
	ID        int64       `json:"id" db:"id"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	Total     Amount      `json:"total" db:"total"`
	Items     []OrderItem `json:"items"`
}

// OrderItem is a historical line item. Product and brand names and the
// unit price are copied at settlement time and stay valid even if the
// catalog is edited later.
type OrderItem struct {
	ProductID   int64  `json:"product_id" db:"product_id"`
	ProductName string `json:"product_name" db:"product_name"`
	BrandName   string `json:"brand_name" db:"brand_name"`
	Quantity    int    `json:"quantity" db:"quantity"`
	Price       Amount `json:"price" db:"price"`
}
