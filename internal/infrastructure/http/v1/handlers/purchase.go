package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/purchase"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/storage/postgres"
)

// PurchaseHandler handles HTTP requests for purchases.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
	audit   *postgres.AuditService
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service, audit *postgres.AuditService) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service, audit: audit}
}

// CreateOrder handles POST /purchases/orders
func (h *PurchaseHandler) CreateOrder(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	items := make([]purchase.CreateItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		productID, err := id.Parse(it.ProductID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid productId format"))
			return
		}
		items = append(items, purchase.CreateItemInput{
			ProductID: productID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}

	o, err := h.service.CreateOrder(c.Request.Context(), purchase.CreateOrderInput{
		TenantID:  h.TenantID(c),
		Supplier:  req.Supplier,
		Items:     items,
		Notes:     req.Notes,
		CreatedBy: h.UserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, o.ID, postgres.AuditActionCreate)
	c.JSON(http.StatusCreated, o)
}

// ReceiveOrder handles POST /purchases/orders/:id/receive
func (h *PurchaseHandler) ReceiveOrder(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.service.ReceiveOrder(c.Request.Context(), h.TenantID(c), orderID, h.UserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, o.ID, postgres.AuditActionProcess)
	c.JSON(http.StatusOK, o)
}

// CancelOrder handles POST /purchases/orders/:id/cancel
func (h *PurchaseHandler) CancelOrder(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.service.CancelOrder(c.Request.Context(), h.TenantID(c), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, o.ID, postgres.AuditActionUpdate)
	c.JSON(http.StatusOK, o)
}

// RecordManual handles POST /purchases/manual
func (h *PurchaseHandler) RecordManual(c *gin.Context) {
	var req dto.ManualPurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	movement, err := h.service.RecordManualPurchase(c.Request.Context(), purchase.ManualPurchaseInput{
		TenantID:      h.TenantID(c),
		ProductID:     productID,
		Quantity:      req.Quantity,
		TotalCost:     req.TotalCost,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		ActorID:       h.UserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// GetOrder handles GET /purchases/orders/:id
func (h *PurchaseHandler) GetOrder(c *gin.Context) {
	orderID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListOrders handles GET /purchases/orders
func (h *PurchaseHandler) ListOrders(c *gin.Context) {
	filter := purchase.ListFilter{
		Status: purchase.OrderStatus(c.Query("status")),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	orders, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(orders))
}

func (h *PurchaseHandler) auditLog(c *gin.Context, entityID id.ID, action postgres.AuditAction) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), postgres.AuditEntry{
		EntityType: "purchase_order",
		EntityID:   entityID,
		Action:     action,
	})
}
