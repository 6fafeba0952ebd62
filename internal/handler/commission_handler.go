package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type CommissionHandler struct {
	commissionService service.CommissionService
}

func NewCommissionHandler(commissionService service.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService}
}

func (h *CommissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	commissions := router.Group("/api/commissions")
	{
		commissions.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent), h.ListCommissions)
		commissions.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent), h.GetCommission)
		commissions.PUT("/:id/pay", middleware.RequireRole(model.RoleAdmin), h.MarkPaid)
		commissions.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteCommission)
	}
}

// ListCommissions returns a paginated list of commissions
// @Summary      List commissions
// @Tags         commissions
// @Security     BearerAuth
// @Produce      json
// @Param        agent_id  query     string  false  "Filter by agent"
// @Param        status    query     string  false  "Filter by status (pending, paid)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /api/commissions [get]
func (h *CommissionHandler) ListCommissions(c *gin.Context) {
	page, limit := pagingParams(c)

	filter := service.CommissionFilter{
		AgentID: c.Query("agent_id"),
		Status:  c.Query("status"),
		Page:    page,
		Limit:   limit,
	}

	commissions, total, err := h.commissionService.ListCommissions(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"commissions": commissions,
		"total":       total,
		"page":        page,
		"limit":       limit,
	}))
}

// GetCommission returns a single commission
// @Summary      Get commission
// @Tags         commissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Commission ID"
// @Success      200  {object}  response.Response{data=service.CommissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/commissions/{id} [get]
func (h *CommissionHandler) GetCommission(c *gin.Context) {
	commission, err := h.commissionService.GetCommission(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, commission))
}

// MarkPaid settles a pending commission
// @Summary      Pay commission
// @Description  Marks a pending commission as paid. Paid commissions are immutable.
// @Tags         commissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Commission ID"
// @Success      200  {object}  response.Response{data=service.CommissionResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/commissions/{id}/pay [put]
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	commission, err := h.commissionService.MarkPaid(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, commission))
}

// DeleteCommission removes a pending commission
// @Summary      Delete commission
// @Tags         commissions
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Commission ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/commissions/{id} [delete]
func (h *CommissionHandler) DeleteCommission(c *gin.Context) {
	if err := h.commissionService.DeleteCommission(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
