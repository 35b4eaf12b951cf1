package domain

import "time"

// Product is the catalog aggregate. Image holds the public relative path of
// the uploaded asset, when one exists.
type Product struct {
	ID          string
	Name        string
	Price       float64
	Cost        float64
	Discount    int
	Category    string
	Description *string
	Image       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
