package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

type CarpetHandler struct {
	carpetService service.CarpetService
}

func NewCarpetHandler(carpetService service.CarpetService) *CarpetHandler {
	return &CarpetHandler{carpetService: carpetService}
}

func (h *CarpetHandler) RegisterRoutes(router *gin.RouterGroup) {
	carpets := router.Group("/api/carpets")
	{
		carpets.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.UpdateCarpet)
		carpets.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.DeleteCarpet)
		carpets.POST("/:id/addons", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.AttachAddon)
		carpets.DELETE("/:id/addons/:addonId", middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleClient), h.DetachAddon)
	}
}

// UpdateCarpet edits a carpet's type, dimensions, or charges
// @Summary      Update carpet
// @Description  Updates a carpet while its order has not been picked up or invoiced
// @Tags         carpets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Carpet ID"
// @Param        payload  body      service.CarpetRequest  true  "Carpet Payload"
// @Success      200      {object}  response.Response{data=service.CarpetResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/carpets/{id} [put]
func (h *CarpetHandler) UpdateCarpet(c *gin.Context) {
	var req service.CarpetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	carpet, err := h.carpetService.UpdateCarpet(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, carpet))
}

// DeleteCarpet removes a carpet from its order
// @Summary      Delete carpet
// @Tags         carpets
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Carpet ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/carpets/{id} [delete]
func (h *CarpetHandler) DeleteCarpet(c *gin.Context) {
	if err := h.carpetService.DeleteCarpet(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// AttachAddon attaches an addon service to a carpet
// @Summary      Attach addon service
// @Description  Attaches an active addon service to a carpet, optionally with a price override
// @Tags         carpets
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Carpet ID"
// @Param        payload  body      service.AttachAddonRequest  true  "Addon Payload"
// @Success      200      {object}  response.Response{data=service.CarpetResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/carpets/{id}/addons [post]
func (h *CarpetHandler) AttachAddon(c *gin.Context) {
	var req service.AttachAddonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	carpet, err := h.carpetService.AttachAddon(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, carpet))
}

// DetachAddon removes an addon service from a carpet
// @Summary      Detach addon service
// @Tags         carpets
// @Security     BearerAuth
// @Produce      json
// @Param        id       path      string  true  "Carpet ID"
// @Param        addonId  path      string  true  "Addon Service ID"
// @Success      200      {object}  response.Response{data=service.CarpetResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/carpets/{id}/addons/{addonId} [delete]
func (h *CarpetHandler) DetachAddon(c *gin.Context) {
	carpet, err := h.carpetService.DetachAddon(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), c.Param("addonId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, carpet))
}
