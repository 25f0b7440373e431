package v1

import (
	"time"

	"github.com/appcontrol-api/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Dependencies is what the v1 routes are served from
type Dependencies struct {
	DB    *gorm.DB
	Store services.FileStore

	// MaxUploadSize caps exam files and recipe images
	MaxUploadSize int64

	// JWTSecret signs the bearer tokens handed out by the auth routes
	JWTSecret    string
	JWTExpiresIn time.Duration
}

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, deps Dependencies) {
	authService := services.NewAuthService(deps.DB, deps.JWTSecret, deps.JWTExpiresIn)

	// Health check endpoint
	router.GET("/health", HealthCheck(deps.DB))

	NewAuthController(authService).RegisterRoutes(router)
	NewGlucometryController(services.NewGlucometryService(deps.DB), authService).RegisterRoutes(router)
	NewExamController(services.NewExamService(deps.DB, deps.Store), authService, deps.MaxUploadSize).RegisterRoutes(router)
	NewRecipeController(services.NewRecipeService(deps.DB, deps.Store), authService, deps.MaxUploadSize).RegisterRoutes(router)

	// Admin endpoints
	NewUserController(services.NewUserService(deps.DB, deps.Store), authService).RegisterRoutes(router)
}
