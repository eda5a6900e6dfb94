package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/sale"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/storage/postgres"
)

// SaleHandler handles HTTP requests for sale transactions.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
	audit   *postgres.AuditService
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service, audit *postgres.AuditService) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service, audit: audit}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]sale.CreateItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := id.Parse(it.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		items = append(items, sale.CreateItemInput{ProductID: productID, Quantity: it.Quantity})
	}

	t, err := h.service.Create(c.Request.Context(), sale.CreateInput{
		TenantID:  h.TenantID(c),
		CashierID: h.UserID(c),
		Items:     items,
		Discount:  req.Discount,
		Notes:     req.Notes,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, "sale", t.ID, postgres.AuditActionCreate)
	c.JSON(http.StatusCreated, t)
}

// Complete handles POST /sales/:id/complete
func (h *SaleHandler) Complete(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.CompleteSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.service.Complete(c.Request.Context(), h.TenantID(c), txID, req.PaymentAmount, req.PaymentMethod)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, "sale", t.ID, postgres.AuditActionComplete)
	c.JSON(http.StatusOK, t)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), txID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	cashierID, ok := h.ParseIDQuery(c, "cashierId")
	if !ok {
		return
	}

	filter := sale.ListFilter{
		Status:    sale.Status(c.Query("status")),
		CashierID: cashierID,
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	sales, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(sales))
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.TenantID(c), txID, h.UserID(c)); err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, "sale", txID, postgres.AuditActionDelete)
	c.Status(http.StatusNoContent)
}

// Lock handles POST /sales/lock
func (h *SaleHandler) Lock(c *gin.Context) {
	var req dto.LockSalesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cutoff, err := time.Parse(time.RFC3339, req.Before)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid before timestamp"))
		return
	}

	count, err := h.service.LockBefore(c.Request.Context(), h.TenantID(c), cutoff)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": count})
}

// Dashboard handles GET /sales/dashboard
func (h *SaleHandler) Dashboard(c *gin.Context) {
	cashierID, ok := h.ParseIDQuery(c, "cashierId")
	if !ok {
		return
	}

	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour)
	to := now
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from timestamp"))
			return
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to timestamp"))
			return
		}
		to = t
	}

	stats, err := h.service.GetDashboardStats(c.Request.Context(), h.TenantID(c), cashierID, from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// auditLog records the action best-effort; sale processing never fails on
// audit errors.
func (h *SaleHandler) auditLog(c *gin.Context, entityType string, entityID id.ID, action postgres.AuditAction) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), postgres.AuditEntry{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	})
}
