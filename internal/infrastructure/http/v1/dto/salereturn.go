package dto

// ReturnItemRequest is one requested return line.
type ReturnItemRequest struct {
	SaleItemID string `json:"saleItemId" binding:"required"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateReturnRequest is the body for POST /returns.
type CreateReturnRequest struct {
	SaleID string              `json:"saleId" binding:"required"`
	Items  []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
	Reason string              `json:"reason"`
}
