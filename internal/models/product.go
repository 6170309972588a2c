package models

import "time"

// Category groups marketplace products.
type Category struct {
	ID          int64     `db:"id,pk,auto" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description,omitzero" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at,omitzero" json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

// Product is a marketplace listing owned by a farmer.
type Product struct {
	ID          int64     `db:"id,pk,auto" json:"id"`
	FarmerID    int64     `db:"farmer_id" json:"farmer_id"`
	CategoryID  int64     `db:"category_id" json:"category_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description,omitzero" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	Quantity    int       `db:"quantity" json:"quantity"`
	Unit        string    `db:"unit" json:"unit"`
	ImagePath   string    `db:"image_path,omitzero" json:"image_path,omitempty"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
	CreatedAt   time.Time `db:"created_at,omitzero" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at,omitzero" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
