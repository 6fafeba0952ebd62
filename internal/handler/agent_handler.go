package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	agentService service.AgentService
}

func NewAgentHandler(agentService service.AgentService) *AgentHandler {
	return &AgentHandler{agentService: agentService}
}

func (h *AgentHandler) RegisterRoutes(router *gin.RouterGroup) {
	agents := router.Group("/api/agents")
	{
		agents.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateAgent)
		agents.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.ListAgents)
		agents.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent), h.GetAgent)
		agents.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateAgent)
		agents.POST("/:id/commission-types", middleware.RequireRole(model.RoleAdmin), h.AttachCommissionType)
		agents.PUT("/:id/commission-types/:typeId", middleware.RequireRole(model.RoleAdmin), h.UpdateCommissionTypeLink)
		agents.DELETE("/:id/commission-types/:typeId", middleware.RequireRole(model.RoleAdmin), h.DetachCommissionType)
	}
}

// CreateAgent creates an agent profile for a user with the agent role
// @Summary      Create agent
// @Tags         agents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AgentRequest  true  "Agent Payload"
// @Success      201      {object}  response.Response{data=service.AgentResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/agents [post]
func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req service.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	agent, err := h.agentService.CreateAgent(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, agent))
}

// ListAgents returns a paginated list of agents
// @Summary      List agents
// @Tags         agents
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/agents [get]
func (h *AgentHandler) ListAgents(c *gin.Context) {
	page, limit := pagingParams(c)

	agents, total, err := h.agentService.ListAgents(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"agents": agents,
		"total":  total,
		"page":   page,
		"limit":  limit,
	}))
}

// GetAgent returns a single agent with its commission type associations
// @Summary      Get agent
// @Tags         agents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Agent ID"
// @Success      200  {object}  response.Response{data=service.AgentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/agents/{id} [get]
func (h *AgentHandler) GetAgent(c *gin.Context) {
	agent, err := h.agentService.GetAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agent))
}

// UpdateAgent edits an agent's legacy commission fields and status
// @Summary      Update agent
// @Tags         agents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Agent ID"
// @Param        payload  body      service.AgentRequest  true  "Agent Payload"
// @Success      200      {object}  response.Response{data=service.AgentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/agents/{id} [put]
func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	var req service.AgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	agent, err := h.agentService.UpdateAgent(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agent))
}

// AttachCommissionType associates a commission type with an agent
// @Summary      Attach commission type
// @Tags         agents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Agent ID"
// @Param        payload  body      service.AgentCommissionLinkRequest  true  "Association Payload"
// @Success      200      {object}  response.Response{data=service.AgentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/agents/{id}/commission-types [post]
func (h *AgentHandler) AttachCommissionType(c *gin.Context) {
	var req service.AgentCommissionLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	agent, err := h.agentService.AttachCommissionType(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agent))
}

// UpdateCommissionTypeLink edits an agent's commission type association
// @Summary      Update commission type association
// @Tags         agents
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                              true  "Agent ID"
// @Param        typeId   path      string                              true  "Commission Type ID"
// @Param        payload  body      service.AgentCommissionLinkRequest  true  "Association Payload"
// @Success      200      {object}  response.Response{data=service.AgentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/agents/{id}/commission-types/{typeId} [put]
func (h *AgentHandler) UpdateCommissionTypeLink(c *gin.Context) {
	var req service.AgentCommissionLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	agent, err := h.agentService.UpdateCommissionTypeLink(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), c.Param("typeId"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agent))
}

// DetachCommissionType removes a commission type association from an agent
// @Summary      Detach commission type
// @Tags         agents
// @Security     BearerAuth
// @Produce      json
// @Param        id      path      string  true  "Agent ID"
// @Param        typeId  path      string  true  "Commission Type ID"
// @Success      200     {object}  response.Response
// @Failure      404     {object}  response.Response
// @Router       /api/agents/{id}/commission-types/{typeId} [delete]
func (h *AgentHandler) DetachCommissionType(c *gin.Context) {
	if err := h.agentService.DetachCommissionType(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), c.Param("typeId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
