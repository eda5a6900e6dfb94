package dto

import "github.com/shopspring/decimal"

// SaleItemRequest is one requested line of a new sale.
type SaleItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateSaleRequest is the body for POST /sales.
type CreateSaleRequest struct {
	Items    []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Discount decimal.Decimal   `json:"discount"`
	Notes    string            `json:"notes"`
}

// CompleteSaleRequest is the body for POST /sales/:id/complete.
type CompleteSaleRequest struct {
	PaymentAmount decimal.Decimal `json:"paymentAmount" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
}

// LockSalesRequest is the body for POST /sales/lock.
type LockSalesRequest struct {
	// Before is an RFC 3339 cutoff; sales completed before it get locked.
	Before string `json:"before" binding:"required"`
}
