package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/opname"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/storage/postgres"
)

// OpnameHandler handles HTTP requests for stock opnames.
type OpnameHandler struct {
	*BaseHandler
	service *opname.Service
	audit   *postgres.AuditService
}

// NewOpnameHandler creates a new opname handler.
func NewOpnameHandler(base *BaseHandler, service *opname.Service, audit *postgres.AuditService) *OpnameHandler {
	return &OpnameHandler{BaseHandler: base, service: service, audit: audit}
}

// Create handles POST /opnames
func (h *OpnameHandler) Create(c *gin.Context) {
	var req dto.CreateOpnameRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := id.Parse(req.ProductID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid productId format"))
		return
	}

	o, err := h.service.Create(c.Request.Context(), opname.CreateInput{
		TenantID:  h.TenantID(c),
		ProductID: productID,
		ActualQty: req.ActualQty,
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

// Process handles POST /opnames/:id/process
func (h *OpnameHandler) Process(c *gin.Context) {
	opnameID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.service.Process(c.Request.Context(), h.TenantID(c), opnameID, h.UserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, o.ID, postgres.AuditActionProcess)
	c.JSON(http.StatusOK, o)
}

// Get handles GET /opnames/:id
func (h *OpnameHandler) Get(c *gin.Context) {
	opnameID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), opnameID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// List handles GET /opnames
func (h *OpnameHandler) List(c *gin.Context) {
	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}

	filter := opname.ListFilter{
		ProductID: productID,
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("processed"); raw != "" {
		processed := raw == "true"
		filter.Processed = &processed
	}

	opnames, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(opnames))
}

func (h *OpnameHandler) auditLog(c *gin.Context, entityID id.ID, action postgres.AuditAction) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), postgres.AuditEntry{
		EntityType: "opname",
		EntityID:   entityID,
		Action:     action,
	})
}
