package models

import "time"

// Product is the price-memory entity kept alongside parcels. It is created
// lazily the first time a parcel references a new item name and updated on
// every subsequent add for that name.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LastPrice     float64   `json:"last_price"`
	TotalQuantity int       `json:"total_quantity"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PricePoint is one observation in a product's price history.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}
