package handler

import (
	"net/http"

	"carpetcare/internal/middleware"
	"carpetcare/internal/model"
	"carpetcare/internal/service"
	"carpetcare/pkg/response"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes CRUD for carpet types, addon services, tax settings,
// and commission types. Reads are open to all authenticated roles; writes are
// admin and staff only (commission types admin only).
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	readRoles := middleware.RequireRole(model.RoleAdmin, model.RoleStaff, model.RoleAgent, model.RoleClient)
	writeRoles := middleware.RequireRole(model.RoleAdmin, model.RoleStaff)

	carpetTypes := router.Group("/api/carpet-types")
	{
		carpetTypes.POST("", writeRoles, h.CreateCarpetType)
		carpetTypes.GET("", readRoles, h.ListCarpetTypes)
		carpetTypes.GET("/:id", readRoles, h.GetCarpetType)
		carpetTypes.PUT("/:id", writeRoles, h.UpdateCarpetType)
		carpetTypes.DELETE("/:id", writeRoles, h.DeleteCarpetType)
	}

	addons := router.Group("/api/addon-services")
	{
		addons.POST("", writeRoles, h.CreateAddonService)
		addons.GET("", readRoles, h.ListAddonServices)
		addons.GET("/:id", readRoles, h.GetAddonService)
		addons.PUT("/:id", writeRoles, h.UpdateAddonService)
		addons.DELETE("/:id", writeRoles, h.DeleteAddonService)
	}

	taxes := router.Group("/api/tax-settings")
	{
		taxes.POST("", writeRoles, h.CreateTaxSetting)
		taxes.GET("", writeRoles, h.ListTaxSettings)
		taxes.PUT("/:id", writeRoles, h.UpdateTaxSetting)
	}

	commissionTypes := router.Group("/api/commission-types")
	{
		commissionTypes.POST("", middleware.RequireRole(model.RoleAdmin), h.CreateCommissionType)
		commissionTypes.GET("", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.ListCommissionTypes)
		commissionTypes.GET("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleStaff), h.GetCommissionType)
		commissionTypes.PUT("/:id", middleware.RequireRole(model.RoleAdmin), h.UpdateCommissionType)
		commissionTypes.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteCommissionType)
	}
}

// --- Carpet types ---

// CreateCarpetType creates a priced carpet category
// @Summary      Create carpet type
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CarpetTypeRequest  true  "Carpet Type Payload"
// @Success      201      {object}  response.Response{data=model.CarpetType}
// @Failure      400      {object}  response.Response
// @Router       /api/carpet-types [post]
func (h *CatalogHandler) CreateCarpetType(c *gin.Context) {
	var req service.CarpetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	ct, err := h.catalogService.CreateCarpetType(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ct))
}

// ListCarpetTypes returns a paginated list of carpet types
// @Summary      List carpet types
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/carpet-types [get]
func (h *CatalogHandler) ListCarpetTypes(c *gin.Context) {
	page, limit := pagingParams(c)
	types, total, err := h.catalogService.ListCarpetTypes(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"carpet_types": types,
		"total":        total,
		"page":         page,
		"limit":        limit,
	}))
}

// GetCarpetType returns a single carpet type
// @Summary      Get carpet type
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Carpet Type ID"
// @Success      200  {object}  response.Response{data=model.CarpetType}
// @Failure      404  {object}  response.Response
// @Router       /api/carpet-types/{id} [get]
func (h *CatalogHandler) GetCarpetType(c *gin.Context) {
	ct, err := h.catalogService.GetCarpetType(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ct))
}

// UpdateCarpetType edits a carpet type
// @Summary      Update carpet type
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Carpet Type ID"
// @Param        payload  body      service.CarpetTypeRequest  true  "Carpet Type Payload"
// @Success      200      {object}  response.Response{data=model.CarpetType}
// @Failure      404      {object}  response.Response
// @Router       /api/carpet-types/{id} [put]
func (h *CatalogHandler) UpdateCarpetType(c *gin.Context) {
	var req service.CarpetTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	ct, err := h.catalogService.UpdateCarpetType(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ct))
}

// DeleteCarpetType soft-deletes a carpet type
// @Summary      Delete carpet type
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Carpet Type ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/carpet-types/{id} [delete]
func (h *CatalogHandler) DeleteCarpetType(c *gin.Context) {
	if err := h.catalogService.DeleteCarpetType(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// --- Addon services ---

// CreateAddonService creates an addon treatment
// @Summary      Create addon service
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AddonServiceRequest  true  "Addon Service Payload"
// @Success      201      {object}  response.Response{data=model.AddonService}
// @Failure      400      {object}  response.Response
// @Router       /api/addon-services [post]
func (h *CatalogHandler) CreateAddonService(c *gin.Context) {
	var req service.AddonServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	svc, err := h.catalogService.CreateAddonService(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, svc))
}

// ListAddonServices returns a paginated list of addon services
// @Summary      List addon services
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        active_only  query     bool  false  "Only active services"
// @Param        page         query     int   false  "Page number (default 1)"
// @Param        limit        query     int   false  "Number of items per page (default 20)"
// @Success      200          {object}  response.Response{data=object}
// @Router       /api/addon-services [get]
func (h *CatalogHandler) ListAddonServices(c *gin.Context) {
	page, limit := pagingParams(c)
	activeOnly := c.Query("active_only") == "true"
	services, total, err := h.catalogService.ListAddonServices(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"addon_services": services,
		"total":          total,
		"page":           page,
		"limit":          limit,
	}))
}

// GetAddonService returns a single addon service
// @Summary      Get addon service
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Addon Service ID"
// @Success      200  {object}  response.Response{data=model.AddonService}
// @Failure      404  {object}  response.Response
// @Router       /api/addon-services/{id} [get]
func (h *CatalogHandler) GetAddonService(c *gin.Context) {
	svc, err := h.catalogService.GetAddonService(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, svc))
}

// UpdateAddonService edits an addon service
// @Summary      Update addon service
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Addon Service ID"
// @Param        payload  body      service.AddonServiceRequest  true  "Addon Service Payload"
// @Success      200      {object}  response.Response{data=model.AddonService}
// @Failure      404      {object}  response.Response
// @Router       /api/addon-services/{id} [put]
func (h *CatalogHandler) UpdateAddonService(c *gin.Context) {
	var req service.AddonServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	svc, err := h.catalogService.UpdateAddonService(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, svc))
}

// DeleteAddonService soft-deletes an addon service
// @Summary      Delete addon service
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Addon Service ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/addon-services/{id} [delete]
func (h *CatalogHandler) DeleteAddonService(c *gin.Context) {
	if err := h.catalogService.DeleteAddonService(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// --- Tax settings ---

// CreateTaxSetting creates a named tax mode and rate
// @Summary      Create tax setting
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.TaxSettingRequest  true  "Tax Setting Payload"
// @Success      201      {object}  response.Response{data=model.TaxSetting}
// @Failure      400      {object}  response.Response
// @Router       /api/tax-settings [post]
func (h *CatalogHandler) CreateTaxSetting(c *gin.Context) {
	var req service.TaxSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	ts, err := h.catalogService.CreateTaxSetting(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ts))
}

// ListTaxSettings returns all tax settings
// @Summary      List tax settings
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.TaxSetting}
// @Router       /api/tax-settings [get]
func (h *CatalogHandler) ListTaxSettings(c *gin.Context) {
	settings, err := h.catalogService.ListTaxSettings(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, settings))
}

// UpdateTaxSetting edits a tax setting
// @Summary      Update tax setting
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Tax Setting ID"
// @Param        payload  body      service.TaxSettingRequest  true  "Tax Setting Payload"
// @Success      200      {object}  response.Response{data=model.TaxSetting}
// @Failure      404      {object}  response.Response
// @Router       /api/tax-settings/{id} [put]
func (h *CatalogHandler) UpdateTaxSetting(c *gin.Context) {
	var req service.TaxSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	ts, err := h.catalogService.UpdateTaxSetting(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ts))
}

// --- Commission types ---

// CreateCommissionType creates a payout rule
// @Summary      Create commission type
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CommissionTypeRequest  true  "Commission Type Payload"
// @Success      201      {object}  response.Response{data=model.CommissionType}
// @Failure      400      {object}  response.Response
// @Router       /api/commission-types [post]
func (h *CatalogHandler) CreateCommissionType(c *gin.Context) {
	var req service.CommissionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	ct, err := h.catalogService.CreateCommissionType(c.Request.Context(), middleware.ActorFromContext(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, ct))
}

// ListCommissionTypes returns a paginated list of commission types
// @Summary      List commission types
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/commission-types [get]
func (h *CatalogHandler) ListCommissionTypes(c *gin.Context) {
	page, limit := pagingParams(c)
	types, total, err := h.catalogService.ListCommissionTypes(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"commission_types": types,
		"total":            total,
		"page":             page,
		"limit":            limit,
	}))
}

// GetCommissionType returns a single commission type
// @Summary      Get commission type
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Commission Type ID"
// @Success      200  {object}  response.Response{data=model.CommissionType}
// @Failure      404  {object}  response.Response
// @Router       /api/commission-types/{id} [get]
func (h *CatalogHandler) GetCommissionType(c *gin.Context) {
	ct, err := h.catalogService.GetCommissionType(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ct))
}

// UpdateCommissionType edits a commission type
// @Summary      Update commission type
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Commission Type ID"
// @Param        payload  body      service.CommissionTypeRequest  true  "Commission Type Payload"
// @Success      200      {object}  response.Response{data=model.CommissionType}
// @Failure      404      {object}  response.Response
// @Router       /api/commission-types/{id} [put]
func (h *CatalogHandler) UpdateCommissionType(c *gin.Context) {
	var req service.CommissionTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	ct, err := h.catalogService.UpdateCommissionType(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ct))
}

// DeleteCommissionType soft-deletes a commission type
// @Summary      Delete commission type
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Commission Type ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/commission-types/{id} [delete]
func (h *CatalogHandler) DeleteCommissionType(c *gin.Context) {
	if err := h.catalogService.DeleteCommissionType(c.Request.Context(), middleware.ActorFromContext(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
