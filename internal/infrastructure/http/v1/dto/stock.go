package dto

import "github.com/shopspring/decimal"

// RecordMovementRequest is the body for POST /stock/movements. Manual
// corrections outside the document flow.
type RecordMovementRequest struct {
	ProductID   string           `json:"productId" binding:"required"`
	Type        string           `json:"type" binding:"required,oneof=IN OUT RETURN ADJUSTMENT"`
	Quantity    int64            `json:"quantity" binding:"gte=0"`
	CostPerUnit *decimal.Decimal `json:"costPerUnit"`
	Notes       string           `json:"notes"`
}
