package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/ledger/cash"
	"tillbook/internal/infrastructure/http/v1/dto"
	"tillbook/internal/infrastructure/storage/postgres"
)

// CashHandler handles HTTP requests for the cash ledger.
type CashHandler struct {
	*BaseHandler
	service *cash.Service
	audit   *postgres.AuditService
}

// NewCashHandler creates a new cash handler.
func NewCashHandler(base *BaseHandler, service *cash.Service, audit *postgres.AuditService) *CashHandler {
	return &CashHandler{BaseHandler: base, service: service, audit: audit}
}

// Create handles POST /cash
func (h *CashHandler) Create(c *gin.Context) {
	var req dto.CreateCashRequest
	if !h.BindJSON(c, &req) {
		return
	}

	categoryID, ok := h.parseCategoryID(c, req.CategoryID)
	if !ok {
		return
	}

	in := cash.CreateInput{
		TenantID:      h.TenantID(c),
		Type:          cash.TransactionType(req.Type),
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		CategoryID:    categoryID,
		Description:   req.Description,
		CreatedBy:     h.UserID(c),
	}
	if req.TransactionDate != nil {
		in.TransactionDate = *req.TransactionDate
	}

	t, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, t.ID, postgres.AuditActionCreate)
	c.JSON(http.StatusCreated, t)
}

// Update handles PUT /cash/:id
func (h *CashHandler) Update(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCashRequest
	if !h.BindJSON(c, &req) {
		return
	}

	categoryID, ok := h.parseCategoryID(c, req.CategoryID)
	if !ok {
		return
	}

	in := cash.UpdateInput{
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		CategoryID:    categoryID,
		Description:   req.Description,
	}
	if req.TransactionDate != nil {
		in.TransactionDate = *req.TransactionDate
	}

	t, err := h.service.Update(c.Request.Context(), h.TenantID(c), txID, in)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, t.ID, postgres.AuditActionUpdate)
	c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /cash/:id
func (h *CashHandler) Delete(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.TenantID(c), txID); err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, txID, postgres.AuditActionDelete)
	c.Status(http.StatusNoContent)
}

// Verify handles POST /cash/:id/verify
func (h *CashHandler) Verify(c *gin.Context) {
	txID, ok := h.ParseIDParam(c, "id")
	if !ok {
		return
	}

	t, err := h.service.Verify(c.Request.Context(), h.TenantID(c), txID, h.UserID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.auditLog(c, t.ID, postgres.AuditActionVerify)
	c.JSON(http.StatusOK, t)
}

// Get handles GET /cash/:id
func (h *CashHandler) Get(c *gin.Context) {
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

// List handles GET /cash
func (h *CashHandler) List(c *gin.Context) {
	categoryID, ok := h.ParseIDQuery(c, "categoryId")
	if !ok {
		return
	}

	filter := cash.ListFilter{
		Type:       cash.TransactionType(c.Query("type")),
		CategoryID: categoryID,
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	transactions, err := h.service.List(c.Request.Context(), h.TenantID(c), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(transactions))
}

// Balance handles GET /cash/balance
func (h *CashHandler) Balance(c *gin.Context) {
	balance, err := h.service.GetBalance(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// FlowSummary handles GET /cash/summary
func (h *CashHandler) FlowSummary(c *gin.Context) {
	from, to, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	summary, err := h.service.GetCashFlowSummary(c.Request.Context(), h.TenantID(c), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExpenseByCategory handles GET /cash/expenses
func (h *CashHandler) ExpenseByCategory(c *gin.Context) {
	from, to, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	result, err := h.service.GetExpenseByCategory(c.Request.Context(), h.TenantID(c), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(result))
}

// Categories handles GET /cash/categories
func (h *CashHandler) Categories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context(), h.TenantID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewListResponse(categories))
}

func (h *CashHandler) parseCategoryID(c *gin.Context, raw string) (*id.ID, bool) {
	if raw == "" {
		return nil, true
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid categoryId format"))
		return nil, false
	}
	return &parsed, true
}

func (h *CashHandler) parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid from timestamp"))
			return from, to, false
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid to timestamp"))
			return from, to, false
		}
		to = t
	}
	return from, to, true
}

func (h *CashHandler) auditLog(c *gin.Context, entityID id.ID, action postgres.AuditAction) {
	if h.audit == nil {
		return
	}
	_ = h.audit.Log(c.Request.Context(), postgres.AuditEntry{
		EntityType: "cash_transaction",
		EntityID:   entityID,
		Action:     action,
	})
}
