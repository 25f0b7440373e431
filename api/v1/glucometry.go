package v1

import (
	"net/http"
	"strconv"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/glucose"
	"github.com/appcontrol-api/middleware"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/services"
	"github.com/gin-gonic/gin"
)

// Page sizes of the record listings
const (
	recordPageSize = 10
	adminPageSize  = 50
)

// GlucometryController handles glucose reading endpoints
type GlucometryController struct {
	glucometryService *services.GlucometryService
	auth              middleware.Authenticator
}

// NewGlucometryController creates a new glucometry controller
func NewGlucometryController(glucometryService *services.GlucometryService, auth middleware.Authenticator) *GlucometryController {
	return &GlucometryController{
		glucometryService: glucometryService,
		auth:              auth,
	}
}

// RegisterRoutes registers glucometry routes
func (c *GlucometryController) RegisterRoutes(router *gin.RouterGroup) {
	owner := middleware.Authorize(c.auth, authz.AnyAuthenticated())

	records := router.Group("/records/glucometry")
	{
		records.GET("", owner, c.ListRecords)
		records.POST("", owner, c.CreateRecord)
		records.GET("/stats", owner, c.GetStats)
		records.GET("/dashboard", owner, c.GetDashboard)
		records.GET("/admin/all", middleware.AdminMiddleware(c.auth), c.AdminListRecords)
		records.GET("/admin/stats", middleware.AdminMiddleware(c.auth), c.AdminGetStats)
		records.GET("/:id", owner, c.GetRecord)
		records.PUT("/:id", owner, c.UpdateRecord)
		records.DELETE("/:id", middleware.Authorize(c.auth, authz.OwnerOrRole(models.RoleAdmin)), c.DeleteRecord)
	}
}

// CreateRecord godoc
// @Summary Store a glucose reading for the caller
// @Router /records/glucometry [post]
func (c *GlucometryController) CreateRecord(ctx *gin.Context) {
	var req dto.CreateGlucometryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	record, err := c.glucometryService.Create(middleware.GetUserID(ctx), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusCreated, "Record created successfully", gin.H{"record": record})
}

// ListRecords godoc
// @Summary List the caller's readings
// @Param startDate query string false "first day"
// @Param endDate query string false "last day, inclusive"
// @Param mealTime query string false "meal time label"
// @Param level query string false "low, normal or high"
// @Router /records/glucometry [get]
func (c *GlucometryController) ListRecords(ctx *gin.Context) {
	filter := dto.GlucometryFilter{PageRequest: pageRequest(ctx, recordPageSize)}

	var err error
	if filter.StartDate, filter.EndDate, err = dateRangeQuery(ctx, "startDate", "endDate"); err != nil {
		middleware.Error(ctx, err)
		return
	}
	if mealTime := ctx.Query("mealTime"); mealTime != "" {
		filter.MealTime = models.MealTime(mealTime)
		if !filter.MealTime.IsValid() {
			middleware.Error(ctx, apperrors.Field("mealTime", "Invalid meal time"))
			return
		}
	}
	if level := ctx.Query("level"); level != "" {
		parsed, ok := glucose.ParseHistoricalLevel(level)
		if !ok {
			middleware.Error(ctx, apperrors.Field("level", "level must be low, normal or high"))
			return
		}
		filter.Level = parsed
	}

	resp, err := c.glucometryService.List(middleware.GetScope(ctx), filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// GetRecord returns one of the caller's readings
func (c *GlucometryController) GetRecord(ctx *gin.Context) {
	record, err := c.glucometryService.Get(middleware.GetScope(ctx), ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", gin.H{"record": record})
}

// UpdateRecord merges the submitted fields into one of the caller's readings
func (c *GlucometryController) UpdateRecord(ctx *gin.Context) {
	var req dto.UpdateGlucometryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	record, err := c.glucometryService.Update(middleware.GetScope(ctx), ctx.Param("id"), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Record updated successfully", gin.H{"record": record})
}

// DeleteRecord removes a reading; admins may remove any
func (c *GlucometryController) DeleteRecord(ctx *gin.Context) {
	if err := c.glucometryService.Delete(middleware.GetScope(ctx), ctx.Param("id")); err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Record deleted successfully", nil)
}

// GetStats godoc
// @Summary Summary, trend and chart of the caller's readings
// @Param period query int false "window in days" default(30)
// @Router /records/glucometry/stats [get]
func (c *GlucometryController) GetStats(ctx *gin.Context) {
	period := services.DefaultStatsPeriod
	if raw := ctx.Query("period"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			middleware.Error(ctx, apperrors.Field("period", "period must be a positive number of days"))
			return
		}
		period = parsed
	}

	stats, err := c.glucometryService.Stats(middleware.GetUserID(ctx), period)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}

// GetDashboard returns the landing summary of the caller's readings
func (c *GlucometryController) GetDashboard(ctx *gin.Context) {
	dashboard, err := c.glucometryService.Dashboard(middleware.GetUserID(ctx))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", dashboard)
}

// AdminListRecords lists readings of every user
func (c *GlucometryController) AdminListRecords(ctx *gin.Context) {
	filter := dto.AdminGlucometryFilter{
		UserID:      ctx.Query("userId"),
		PageRequest: pageRequest(ctx, adminPageSize),
	}

	var err error
	if filter.StartDate, filter.EndDate, err = dateRangeQuery(ctx, "startDate", "endDate"); err != nil {
		middleware.Error(ctx, err)
		return
	}

	resp, err := c.glucometryService.AdminList(filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// AdminGetStats aggregates readings of every user
func (c *GlucometryController) AdminGetStats(ctx *gin.Context) {
	stats, err := c.glucometryService.AdminStats()
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}
