package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/documents/salereturn"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/storage/postgres"
)

// ReturnHandler handles HTTP requests for sale returns.
type ReturnHandler struct {
	*BaseHandler
	service *salereturn.Service
	audit   *postgres.AuditService
}

// NewReturnHandler creates a new return handler.
func NewReturnHandler(base *BaseHandler, service *salereturn.Service, audit *postgres.AuditService) *ReturnHandler {
	return &ReturnHandler{BaseHandler: base, service: service, audit: audit}
}

// Create handles POST /returns
func (h *ReturnHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	saleID, err := id.Parse(req.SaleID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid saleId format"))
		return
	}

	items := make([]salereturn.CreateItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		saleItemID, err := id.Parse(it.SaleItemID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid saleItemId format"))
			return
		}
		items = append(items, salereturn.CreateItemInput{SaleItemID: saleItemID, Quantity: it.Quantity})
	}

	r, err := h.service.Create(c.Request.Context(), salereturn.CreateInput{
		TenantID:    h.TenantID(c),
		SaleID:      saleID,
		Items:       items,
		Reason:      req.Reason,
		ProcessedBy: h.UserID(c),
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.Log(c.Request.Context(), postgres.AuditEntry{
			EntityType: "return",
			EntityID:   r.ID,
			Action:     postgres.AuditActionCreate,
		})
	}
	c.JSON(http.StatusCreated, r)
}

// Get handles GET /returns/:id
func (h *ReturnHandler) Get(c *gin.Context) {
	returnID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), h.TenantID(c), returnID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// List handles GET /returns
func (h *ReturnHandler) List(c *gin.Context) {
	saleID, ok := h.ParseIDQuery(c, "saleId")
	if !ok {
		return
	}

	filter := salereturn.ListFilter{
		SaleID: saleID,
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	returns, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(returns))
}

// Returnable handles GET /returns/eligible
func (h *ReturnHandler) Returnable(c *gin.Context) {
	sales, err := h.service.GetReturnableTransactions(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(sales))
}
