package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService  service.OrderService
	carpetService service.CarpetService
}

func NewOrderHandler(orderService service.OrderService, carpetService service.CarpetService) *OrderHandler {
	return &OrderHandler{orderService: orderService, carpetService: carpetService}
}

func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.CreateOrder)
		orders.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent, model.RoleClient), h.ListOrders)
		orders.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent, model.RoleClient), h.GetOrder)
		orders.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.UpdateOrder)
		orders.PUT("/:id/assign", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.AssignAgent)
		orders.PUT("/:id/status", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent), h.TransitionStatus)
		orders.PUT("/:id/carpets/status", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.BulkUpdateCarpetStatus)
		orders.GET("/:id/history", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent, model.RoleClient), h.GetHistory)
		orders.GET("/:id/carpets", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent, model.RoleClient), h.ListCarpets)
		orders.POST("/:id/carpets", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.AddCarpet)
	}
}

// CreateOrder registers a new cleaning order for a client
// @Summary      Create order
// @Description  Creates a new carpet cleaning order with an allocated reference number
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateOrderRequest  true  "Create Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders returns a paginated list of orders
// @Summary      List orders
// @Description  Retrieves a paginated list of orders with optional status, client, and agent filters
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        status     query     string  false  "Filter by order status"
// @Param        client_id  query     string  false  "Filter by client"
// @Param        agent_id   query     string  false  "Filter by agent"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=object}
// @Failure      500        {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, limit := pagingParams(c)

	filter := service.OrderFilter{
		Status:   c.Query("status"),
		ClientID: c.Query("client_id"),
		AgentID:  c.Query("agent_id"),
		Page:     page,
		Limit:    limit,
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"orders": orders,
		"total":  total,
		"page":   page,
		"limit":  limit,
	}))
}

// GetOrder returns a single order with carpets and status history
// @Summary      Get order
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.orderService.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrder edits order details while the order is still editable
// @Summary      Update order
// @Description  Updates pickup/delivery details. Clients may edit only before pickup.
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.UpdateOrderRequest  true  "Update Order Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	var req service.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.UpdateOrder(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

type assignAgentRequest struct {
	AgentID string `json:"agent_id" binding:"required,uuid"`
}

// AssignAgent assigns a field agent to an order
// @Summary      Assign agent
// @Description  Assigns an agent to a pending order and moves it to assigned
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Order ID"
// @Param        payload  body      assignAgentRequest  true  "Agent Assignment Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/assign [put]
func (h *OrderHandler) AssignAgent(c *gin.Context) {
	var req assignAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.AssignAgent(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.AgentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionStatus moves an order to a new status
// @Summary      Change order status
// @Description  Applies a status transition subject to the caller's role
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Order ID"
// @Param        payload  body      transitionRequest  true  "Status Transition Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) TransitionStatus(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.TransitionStatus(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// BulkUpdateCarpetStatus sets every carpet on the order to one status
// @Summary      Bulk update carpet status
// @Description  Sets all carpets of an order to the given status and syncs the order when uniform
// @Tags         orders
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string             true  "Order ID"
// @Param        payload  body      transitionRequest  true  "Carpet Status Payload"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/orders/{id}/carpets/status [put]
func (h *OrderHandler) BulkUpdateCarpetStatus(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	order, err := h.orderService.BulkUpdateCarpetStatus(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetHistory returns the append-only status trail of an order
// @Summary      Get order status history
// @Tags         orders
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.StatusHistoryResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/history [get]
func (h *OrderHandler) GetHistory(c *gin.Context) {
	history, err := h.orderService.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}

// ListCarpets returns the carpets on an order
// @Summary      List order carpets
// @Tags         carpets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]service.CarpetResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/carpets [get]
func (h *OrderHandler) ListCarpets(c *gin.Context) {
	carpets, err := h.carpetService.ListByOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, carpets))
}

// AddCarpet adds a carpet to an order
// @Summary      Add carpet
// @Description  Adds a carpet to an order that has not yet been picked up or invoiced
// @Tags         carpets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Order ID"
// @Param        payload  body      service.CarpetRequest  true  "Carpet Payload"
// @Success      201      {object}  response.Response{data=service.CarpetResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/carpets [post]
func (h *OrderHandler) AddCarpet(c *gin.Context) {
	var req service.CarpetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	carpet, err := h.carpetService.AddCarpet(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, carpet))
}
