package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService    service.InvoiceService
	commissionService service.CommissionService
	paymentService    service.PaymentService
}

func NewInvoiceHandler(invoiceService service.InvoiceService, commissionService service.CommissionService, paymentService service.PaymentService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:    invoiceService,
		commissionService: commissionService,
		paymentService:    paymentService,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.ListInvoices)
		invoices.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent, model.RoleClient), h.GetInvoice)
		invoices.GET("/:id/commission-preview", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.CommissionPreview)
		invoices.GET("/:id/payments", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.ListPayments)
	}

	orders := router.Group("/api/orders")
	{
		orders.POST("/:id/invoice", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.GenerateInvoice)
		orders.POST("/:id/invoice/regenerate", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.RegenerateInvoice)
	}
}

// GenerateInvoice issues an invoice for an eligible order
// @Summary      Generate invoice
// @Description  Calculates line items from the order's carpets and addons and issues a numbered invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Order ID"
// @Param        payload  body      service.GenerateInvoiceRequest  true  "Invoice Options"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/invoice [post]
func (h *InvoiceHandler) GenerateInvoice(c *gin.Context) {
	var req service.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.GenerateInvoice(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// RegenerateInvoice cancels the current invoice and reissues from current order state
// @Summary      Regenerate invoice
// @Description  Cancels the order's live invoice and issues a replacement. Refused once payments exist.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Order ID"
// @Param        payload  body      service.GenerateInvoiceRequest  true  "Invoice Options"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/invoice/regenerate [post]
func (h *InvoiceHandler) RegenerateInvoice(c *gin.Context) {
	var req service.GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.RegenerateInvoice(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of invoices
// @Summary      List invoices
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        status      query     string  false  "Filter by status (pending, paid, cancelled, overdue)"
// @Param        invoice_no  query     string  false  "Filter by invoice number"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      500         {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	page, limit := pagingParams(c)

	filter := service.InvoiceFilter{
		Status:    c.Query("status"),
		InvoiceNo: c.Query("invoice_no"),
		Page:      page,
		Limit:     limit,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     page,
		"limit":    limit,
	}))
}

// GetInvoice returns a single invoice with its line items
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CommissionPreview computes the would-be commission for an invoice
// @Summary      Preview commission
// @Description  Resolves the payout rule for the invoice's agent without creating a commission
// @Tags         commissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.CommissionPreviewResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/commission-preview [get]
func (h *InvoiceHandler) CommissionPreview(c *gin.Context) {
	preview, err := h.commissionService.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, preview))
}

// ListPayments returns payments recorded against an invoice
// @Summary      List invoice payments
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=[]service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	payments, err := h.paymentService.ListByInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payments))
}
