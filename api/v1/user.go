package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/middleware"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/services"
	"github.com/gin-gonic/gin"
)

// UserController handles account administration. Every route is admin only.
type UserController struct {
	userService *services.UserService
	auth        middleware.Authenticator
	now         func() time.Time
}

// NewUserController creates a new user controller
func NewUserController(userService *services.UserService, auth middleware.Authenticator) *UserController {
	return &UserController{
		userService: userService,
		auth:        auth,
		now:         time.Now,
	}
}

// RegisterRoutes registers user administration routes
func (c *UserController) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	users.Use(middleware.AdminMiddleware(c.auth))
	{
		users.GET("", c.ListUsers)
		users.POST("", c.CreateUser)
		users.GET("/stats", c.GetStats)
		users.GET("/export", c.ExportUsers)
		users.GET("/report/monthly", c.MonthlyReport)
		users.POST("/notification", c.SendNotification)
		users.GET("/:id", c.GetUser)
		users.PUT("/:id", c.UpdateUser)
		users.PUT("/:id/role", c.UpdateRole)
		users.PUT("/:id/deactivate", c.DeactivateUser)
		users.PUT("/:id/reactivate", c.ReactivateUser)
		users.DELETE("/:id", c.DeleteUser)
	}
}

// ListUsers godoc
// @Summary List accounts
// @Param search query string false "name or email"
// @Param role query string false "user, editor or admin"
// @Param isActive query bool false "defaults to true"
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	filter := dto.UserFilter{
		Search:      strings.TrimSpace(ctx.Query("search")),
		PageRequest: pageRequest(ctx, recordPageSize),
	}
	if role := ctx.Query("role"); role != "" {
		parsed, ok := models.ParseRole(role)
		if !ok {
			middleware.Error(ctx, apperrors.Field("role", "Invalid role"))
			return
		}
		filter.Role = parsed
	}

	isActive, err := boolQuery(ctx, "isActive")
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	if isActive == nil {
		active := true
		isActive = &active
	}
	filter.IsActive = isActive

	resp, err := c.userService.List(filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// GetUser returns a single account
func (c *UserController) GetUser(ctx *gin.Context) {
	user, err := c.userService.Get(ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", gin.H{"user": user})
}

// GetStats counts accounts per role
func (c *UserController) GetStats(ctx *gin.Context) {
	stats, err := c.userService.Stats()
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}

// CreateUser creates an account with a chosen role
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	user, err := c.userService.Create(req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusCreated, "User created successfully", gin.H{"user": user})
}

// UpdateUser edits the name, email, active flag or profile of an account
func (c *UserController) UpdateUser(ctx *gin.Context) {
	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	user, err := c.userService.Update(ctx.Param("id"), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "User updated successfully", gin.H{"user": user})
}

// UpdateRole godoc
// @Summary Change the role of an account
// @Description Refused when it would leave no active administrator
// @Router /users/{id}/role [put]
func (c *UserController) UpdateRole(ctx *gin.Context) {
	var req dto.UpdateRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	user, err := c.userService.UpdateRole(ctx.Param("id"), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Role updated successfully", gin.H{"user": user})
}

// DeactivateUser disables sign in for an account
func (c *UserController) DeactivateUser(ctx *gin.Context) {
	user, err := c.userService.Deactivate(ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "User deactivated successfully", gin.H{"user": user})
}

// ReactivateUser enables sign in again
func (c *UserController) ReactivateUser(ctx *gin.Context) {
	user, err := c.userService.Reactivate(ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "User reactivated successfully", gin.H{"user": user})
}

// DeleteUser removes an account together with its records and files
func (c *UserController) DeleteUser(ctx *gin.Context) {
	if err := c.userService.Delete(middleware.GetUserID(ctx), ctx.Param("id")); err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "User deleted successfully", nil)
}

// ExportUsers streams every account as CSV
func (c *UserController) ExportUsers(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := c.userService.ExportCSV(&buf); err != nil {
		middleware.Error(ctx, err)
		return
	}

	filename := fmt.Sprintf("users_%s.csv", c.now().UTC().Format("20060102"))
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// MonthlyReport godoc
// @Summary Plain-text report of a month, the current one by default
// @Param month query int false "1-12"
// @Param year query int false "four digit year"
// @Produce plain
// @Router /users/report/monthly [get]
func (c *UserController) MonthlyReport(ctx *gin.Context) {
	now := c.now().UTC()
	month, year := int(now.Month()), now.Year()

	var err error
	if raw := ctx.Query("month"); raw != "" {
		if month, err = strconv.Atoi(raw); err != nil {
			middleware.Error(ctx, apperrors.Field("month", "Month must be between 1 and 12"))
			return
		}
	}
	if raw := ctx.Query("year"); raw != "" {
		if year, err = strconv.Atoi(raw); err != nil {
			middleware.Error(ctx, apperrors.Field("year", "Invalid year"))
			return
		}
	}

	report, err := c.userService.MonthlyReport(year, time.Month(month))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ReportFilename(report)))
	ctx.String(http.StatusOK, services.RenderMonthlyReport(report))
}

// SendNotification broadcasts a message to every active account
func (c *UserController) SendNotification(ctx *gin.Context) {
	var req dto.NotificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	resp, err := c.userService.Notify(middleware.GetUserID(ctx), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	message := fmt.Sprintf("Notification sent successfully to %d active users", resp.SentTo)
	middleware.Success(ctx, http.StatusOK, message, resp)
}
