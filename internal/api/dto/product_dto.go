package dto

import (
	"time"

	"github.com/spec-kit/feedback-service/internal/domain"
)

// ProductResponse is the catalog item shape served to clients.
type ProductResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Cost        float64   `json:"cost"`
	Discount    int       `json:"discount"`
	Category    string    `json:"category"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProductResponse adapts a domain product.
func NewProductResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Cost:        product.Cost,
		Discount:    product.Discount,
		Category:    product.Category,
		Description: product.Description,
		Image:       product.Image,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}
