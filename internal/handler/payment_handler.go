package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/api/payments")
	{
		payments.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.CreatePayment)
		payments.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.GetPayment)
	}

	// Gateway callback is authenticated by shared secret, not JWT.
	router.POST("/api/payments/webhook", middleware.RequireWebhookSecret(), h.GatewayWebhook)
}

// CreatePayment records a pending payment attempt against an invoice
// @Summary      Create payment
// @Description  Registers a gateway bill against an invoice, keyed by bill reference
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreatePaymentRequest  true  "Payment Payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req service.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// GatewayWebhook applies a gateway settlement callback
// @Summary      Payment gateway webhook
// @Description  Settles or fails a payment from the gateway result. Idempotent on replay.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GatewayWebhookRequest  true  "Gateway Callback Payload"
// @Success      200      {object}  response.Response{data=service.PaymentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/payments/webhook [post]
func (h *PaymentHandler) GatewayWebhook(c *gin.Context) {
	var req service.GatewayWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.paymentService.HandleGatewayWebhook(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// GetPayment returns a single payment
// @Summary      Get payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Payment ID"
// @Success      200  {object}  response.Response{data=service.PaymentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}
