package v1

import (
	"net/http"

	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/middleware"
	"github.com/appcontrol-api/services"
	"github.com/gin-gonic/gin"
)

// AuthController handles registration, login and the caller's own account
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController creates a new auth controller
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// RegisterRoutes registers auth routes
func (c *AuthController) RegisterRoutes(router *gin.RouterGroup) {
	signedIn := middleware.Authorize(c.authService, authz.AnyAuthenticated())

	auth := router.Group("/auth")
	{
		auth.POST("/register", c.Register)
		auth.POST("/login", c.Login)
		auth.POST("/logout", signedIn, c.Logout)
		auth.POST("/refresh", signedIn, c.Refresh)
		auth.GET("/me", signedIn, c.Me)
		auth.PUT("/profile", signedIn, c.UpdateProfile)
	}
}

// Register godoc
// @Summary Register a new user account
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	resp, err := c.authService.Register(req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusCreated, "User registered successfully", resp)
}

// Login godoc
// @Summary Sign in with email and password
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	resp, err := c.authService.Login(req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Login successful", resp)
}

// Logout acknowledges a sign out. Tokens are stateless, the client drops its copy.
func (c *AuthController) Logout(ctx *gin.Context) {
	middleware.Success(ctx, http.StatusOK, "Logged out successfully", nil)
}

// Refresh issues a new token for the caller
func (c *AuthController) Refresh(ctx *gin.Context) {
	resp, err := c.authService.Refresh(*middleware.GetUser(ctx))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Token refreshed", resp)
}

// Me returns the caller as currently stored
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.authService.GetUser(middleware.GetUserID(ctx))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", gin.H{"user": user})
}

// UpdateProfile applies a partial update of the caller's account
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.Error(ctx, middleware.BindError(err))
		return
	}

	user, err := c.authService.UpdateProfile(middleware.GetUserID(ctx), req)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Profile updated successfully", gin.H{"user": user})
}
