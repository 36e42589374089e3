package domain

// Product represents a drink slot in the machine
type Product struct {
	ID        int64  `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Price     Amount `json:"price" db:"price"`
	Stock     int    `json:"stock" db:"stock"`
	BrandID   int64  `json:"brand_id" db:"brand_id"`
	BrandName string `json:"brand_name,omitempty" db:"brand_name"`
}

// Brand is immutable reference data; products point at it by id
type Brand struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}
