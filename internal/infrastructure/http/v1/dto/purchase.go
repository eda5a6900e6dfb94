package dto

import "github.com/shopspring/decimal"

// OrderItemRequest is one requested purchase order line.
type OrderItemRequest struct {
	ProductID string          `json:"productId" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unitCost" binding:"required"`
}

// CreateOrderRequest is the body for POST /purchases/orders.
type CreateOrderRequest struct {
	Supplier string             `json:"supplier" binding:"required"`
	Items    []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
	Notes    string             `json:"notes"`
}

// ManualPurchaseRequest is the body for POST /purchases/manual.
type ManualPurchaseRequest struct {
	ProductID     string          `json:"productId" binding:"required"`
	Quantity      int64           `json:"quantity" binding:"required,gt=0"`
	TotalCost     decimal.Decimal `json:"totalCost" binding:"required"`
	PaymentMethod string          `json:"paymentMethod"`
	Notes         string          `json:"notes"`
}
