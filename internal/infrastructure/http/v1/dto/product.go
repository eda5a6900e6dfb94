package dto

import "github.com/shopspring/decimal"

// CreateProductRequest is the body for POST /products.
type CreateProductRequest struct {
	SKU      string          `json:"sku" binding:"required"`
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	MinStock int64           `json:"minStock"`
}

// UpdateProductRequest is the body for PUT /products/:id.
type UpdateProductRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	MinStock int64           `json:"minStock"`
	IsActive bool            `json:"isActive"`
}
