package v1

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/middleware"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/services"
	"github.com/gin-gonic/gin"
)

// RecipeController handles the public recipe catalogue and its authoring
type RecipeController struct {
	recipeService *services.RecipeService
	auth          middleware.Authenticator
	maxUpload     int64
}

// NewRecipeController creates a new recipe controller
func NewRecipeController(recipeService *services.RecipeService, auth middleware.Authenticator, maxUpload int64) *RecipeController {
	return &RecipeController{
		recipeService: recipeService,
		auth:          auth,
		maxUpload:     maxUpload,
	}
}

// RegisterRoutes registers recipe routes
func (c *RecipeController) RegisterRoutes(router *gin.RouterGroup) {
	editor := middleware.EditorMiddleware(c.auth)
	author := middleware.EditorMiddleware(c.auth, authz.OwnerOrRole(models.RoleAdmin))
	upload := middleware.BodyLimit(multipartLimit(c.maxUpload))

	recipes := router.Group("/recipes")
	{
		recipes.GET("", c.ListRecipes)
		recipes.GET("/tags", c.ListTags)
		recipes.GET("/my/list", editor, c.ListMyRecipes)
		recipes.GET("/my/stats", editor, c.GetMyStats)
		recipes.GET("/admin/all", middleware.AdminMiddleware(c.auth), c.AdminListRecipes)
		recipes.GET("/admin/stats", middleware.AdminMiddleware(c.auth), c.AdminGetStats)
		recipes.GET("/:id", c.GetRecipe)
		recipes.POST("", editor, upload, c.CreateRecipe)
		recipes.PUT("/:id", author, upload, c.UpdateRecipe)
		recipes.DELETE("/:id", author, c.DeleteRecipe)
	}
}

// recipeFilter reads the query parameters every recipe listing accepts
func recipeFilter(ctx *gin.Context, defaultLimit int) (dto.RecipeFilter, error) {
	filter := dto.RecipeFilter{
		Search:      strings.TrimSpace(ctx.Query("search")),
		Tag:         strings.ToLower(strings.TrimSpace(ctx.Query("tag"))),
		SortBy:      ctx.Query("sortBy"),
		SortOrder:   ctx.Query("order"),
		PageRequest: pageRequest(ctx, defaultLimit),
	}
	if difficulty := ctx.Query("difficulty"); difficulty != "" {
		filter.Difficulty = models.Difficulty(difficulty)
		if !filter.Difficulty.IsValid() {
			return filter, apperrors.Field("difficulty", "Invalid difficulty")
		}
	}

	var err error
	if filter.IsPublished, err = boolQuery(ctx, "isPublished"); err != nil {
		return filter, err
	}
	filter.CreatedFrom, filter.CreatedTo, err = dateRangeQuery(ctx, "startDate", "endDate")
	return filter, err
}

// recipeForm reads a recipe from a multipart form, or from a JSON body on
// updates that do not replace the image
func recipeForm(ctx *gin.Context) (dto.UpdateRecipeRequest, error) {
	if !strings.HasPrefix(ctx.ContentType(), "multipart/") {
		var req dto.UpdateRecipeRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return req, middleware.BindError(err)
		}
		return req, nil
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return dto.UpdateRecipeRequest{}, middleware.BindError(err)
	}
	return dto.ParseRecipeForm(form.Value)
}

// ListRecipes godoc
// @Summary List published recipes
// @Param search query string false "title, description or tag"
// @Param tag query string false "exact tag"
// @Param sortBy query string false "publishDate, createdAt, views, title or prepTime"
// @Param order query string false "asc or desc"
// @Router /recipes [get]
func (c *RecipeController) ListRecipes(ctx *gin.Context) {
	filter, err := recipeFilter(ctx, services.PublicRecipePageSize)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	resp, err := c.recipeService.List(filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// ListTags returns the most used tags of published recipes
func (c *RecipeController) ListTags(ctx *gin.Context) {
	tags, err := c.recipeService.Tags()
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", gin.H{"tags": tags})
}

// GetRecipe returns a published recipe and counts the view
func (c *RecipeController) GetRecipe(ctx *gin.Context) {
	recipe, err := c.recipeService.Get(ctx.Param("id"))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", gin.H{"recipe": recipe})
}

// ListMyRecipes lists the caller's recipes, drafts included
func (c *RecipeController) ListMyRecipes(ctx *gin.Context) {
	filter, err := recipeFilter(ctx, recordPageSize)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	resp, err := c.recipeService.MyList(middleware.GetUserID(ctx), filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// GetMyStats summarizes the caller's recipes
func (c *RecipeController) GetMyStats(ctx *gin.Context) {
	stats, err := c.recipeService.MyStats(middleware.GetUserID(ctx))
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}

// CreateRecipe godoc
// @Summary Publish a recipe with its image
// @Accept multipart/form-data
// @Router /recipes [post]
func (c *RecipeController) CreateRecipe(ctx *gin.Context) {
	req, err := recipeForm(ctx)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	image, err := formFile(ctx, "recipeImage")
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	recipe, err := c.recipeService.Create(middleware.GetUserID(ctx), req.ToCreate(), image)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusCreated, "Recipe created successfully", gin.H{"recipe": recipe})
}

// UpdateRecipe merges the submitted fields and optionally replaces the image
func (c *RecipeController) UpdateRecipe(ctx *gin.Context) {
	req, err := recipeForm(ctx)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}

	var image *multipart.FileHeader
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		if image, err = formFile(ctx, "recipeImage"); err != nil {
			middleware.Error(ctx, err)
			return
		}
	}

	recipe, err := c.recipeService.Update(middleware.GetScope(ctx), ctx.Param("id"), req, image)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Recipe updated successfully", gin.H{"recipe": recipe})
}

// DeleteRecipe removes the recipe and its image
func (c *RecipeController) DeleteRecipe(ctx *gin.Context) {
	if err := c.recipeService.Delete(middleware.GetScope(ctx), ctx.Param("id")); err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "Recipe deleted successfully", nil)
}

// AdminListRecipes lists recipes of every author
func (c *RecipeController) AdminListRecipes(ctx *gin.Context) {
	filter, err := recipeFilter(ctx, adminPageSize)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	filter.EditorID = ctx.Query("editorId")

	resp, err := c.recipeService.AdminList(filter)
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", resp)
}

// AdminGetStats summarizes recipes of every author
func (c *RecipeController) AdminGetStats(ctx *gin.Context) {
	stats, err := c.recipeService.AdminStats()
	if err != nil {
		middleware.Error(ctx, err)
		return
	}
	middleware.Success(ctx, http.StatusOK, "", stats)
}
