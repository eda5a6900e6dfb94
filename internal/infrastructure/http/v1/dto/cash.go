package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateCashRequest is the body for POST /cash.
type CreateCashRequest struct {
	Type            string          `json:"type" binding:"required,oneof=INCOME EXPENSE"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required"`
	CategoryID      string          `json:"categoryId"`
	Description     string          `json:"description"`
	TransactionDate *time.Time      `json:"transactionDate"`
}

// UpdateCashRequest is the body for PUT /cash/:id.
type UpdateCashRequest struct {
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod   string          `json:"paymentMethod" binding:"required"`
	CategoryID      string          `json:"categoryId"`
	Description     string          `json:"description"`
	TransactionDate *time.Time      `json:"transactionDate"`
}
