package dto

// CreateOpnameRequest is the body for POST /opnames.
type CreateOpnameRequest struct {
	ProductID string `json:"productId" binding:"required"`
	ActualQty int64  `json:"actualQty" binding:"gte=0"`
	Notes     string `json:"notes"`
}
