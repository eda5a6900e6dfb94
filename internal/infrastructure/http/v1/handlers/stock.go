package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/entity"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/registers/stock"
	"tillbook/internal/infrastructure/http/v1/dto"
)

// StockHandler handles HTTP requests for the stock ledger.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// RecordMovement handles POST /stock/movements
func (h *StockHandler) RecordMovement(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	movement, err := h.service.RecordMovement(c.Request.Context(), stock.RecordMovementInput{
		TenantID:      h.TenantID(c),
		ProductID:     productID,
		Type:          entity.MovementType(req.Type),
		Quantity:      req.Quantity,
		CostPerUnit:   req.CostPerUnit,
		ReferenceType: entity.ReferenceManual,
		Notes:         req.Notes,
		ActorID:       h.UserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// GetMovements handles GET /stock/movements/:productId
func (h *StockHandler) GetMovements(c *gin.Context) {
	productID, ok := h.ParseIDParam(c, "productId")
	if !ok {
		return
	}

	filter := stock.MovementFilter{
		Type:   entity.MovementType(c.Query("type")),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from timestamp"))
			return
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to timestamp"))
			return
		}
		filter.To = &t
	}

	movements, err := h.service.GetMovementHistory(c.Request.Context(), h.TenantID(c), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(movements))
}

// GetValuation handles GET /stock/valuation
func (h *StockHandler) GetValuation(c *gin.Context) {
	summary, err := h.service.GetInventoryValuation(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetLowStock handles GET /stock/low
func (h *StockHandler) GetLowStock(c *gin.Context) {
	products, err := h.service.GetLowStockProducts(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(products))
}

// GetDeadStock handles GET /stock/dead
func (h *StockHandler) GetDeadStock(c *gin.Context) {
	days := h.ParseIntQuery(c, "days", 30)

	items, err := h.service.GetDeadStockProducts(c.Request.Context(), h.TenantID(c), days)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(items))
}
