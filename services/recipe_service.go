package services

import (
	"errors"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/authz"
	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/logging"
	"github.com/appcontrol-api/metrics"
	"github.com/appcontrol-api/models"
	"github.com/appcontrol-api/repositories"
	"github.com/appcontrol-api/storage"
	"github.com/appcontrol-api/utils"
	"gorm.io/gorm"
)

const (
	// PublicRecipePageSize is the default page size of the public list
	PublicRecipePageSize = 12
	// PopularTagLimit is the number of tags GET /recipes/tags returns
	PopularTagLimit = 20
	topAuthorLimit  = 5
	msgRecipeGone   = "Recipe not found"
)

// RecipeService handles recipe authoring and the public catalogue
type RecipeService struct {
	db    *gorm.DB
	repo  *repositories.RecipeRepository
	store FileStore
	now   func() time.Time
}

// NewRecipeService creates a new recipe service instance
func NewRecipeService(db *gorm.DB, store FileStore) *RecipeService {
	return &RecipeService{
		db:    db,
		repo:  repositories.NewRecipeRepository(db),
		store: store,
		now:   time.Now,
	}
}

func toResponse(recipe models.Recipe) dto.RecipeResponse {
	author := ownerOf(recipe.Editor)
	recipe.Editor = nil
	return dto.RecipeResponse{Recipe: recipe, Author: author}
}

func (s *RecipeService) list(filter dto.RecipeFilter) (*dto.RecipeListResponse, error) {
	recipes, total, err := s.repo.FindWithPagination(filter)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve recipes")
	}

	response := &dto.RecipeListResponse{
		Recipes:    make([]dto.RecipeResponse, 0, len(recipes)),
		Pagination: dto.NewPagination(filter.PageRequest, total),
	}
	for _, recipe := range recipes {
		response.Recipes = append(response.Recipes, toResponse(recipe))
	}
	return response, nil
}

// List returns published recipes only
func (s *RecipeService) List(filter dto.RecipeFilter) (*dto.RecipeListResponse, error) {
	published := true
	filter.IsPublished = &published
	filter.EditorID = ""
	return s.list(filter)
}

// Tags returns the most used tags of published recipes
func (s *RecipeService) Tags() ([]dto.TagCount, error) {
	lists, err := s.repo.PublishedTags()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve tags")
	}

	counts := make(map[string]int)
	for _, tags := range lists {
		for _, tag := range tags {
			counts[tag]++
		}
	}

	result := make([]dto.TagCount, 0, len(counts))
	for tag, count := range counts {
		result = append(result, dto.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	if len(result) > PopularTagLimit {
		result = result[:PopularTagLimit]
	}
	return result, nil
}

// Get returns a published recipe and counts the view
func (s *RecipeService) Get(id string) (*dto.RecipeResponse, error) {
	found, err := s.repo.IncrementViews(id)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve recipe")
	}
	if !found {
		return nil, apperrors.NotFound(msgRecipeGone)
	}
	metrics.RecordRecipeView()

	recipe, err := s.repo.FindPublished(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(msgRecipeGone)
		}
		return nil, apperrors.Internal(err, "Failed to retrieve recipe")
	}
	response := toResponse(recipe)
	return &response, nil
}

// MyList returns the author's own recipes, drafts included
func (s *RecipeService) MyList(editorID string, filter dto.RecipeFilter) (*dto.RecipeListResponse, error) {
	filter.EditorID = editorID
	return s.list(filter)
}

func statsOf(totals repositories.RecipeTotals) dto.RecipeStatsResponse {
	return dto.RecipeStatsResponse{
		TotalRecipes:     totals.Total,
		PublishedRecipes: totals.Published,
		DraftRecipes:     totals.Total - totals.Published,
		TotalViews:       totals.Views,
		ByDifficulty:     totals.ByDifficulty,
		PopularRecipes:   totals.Popular,
	}
}

// MyStats summarizes the author's recipes
func (s *RecipeService) MyStats(editorID string) (*dto.RecipeStatsResponse, error) {
	totals, err := s.repo.Totals(editorID)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	stats := statsOf(totals)
	return &stats, nil
}

func checkNutrition(nutrition *models.NutritionInfo) error {
	if nutrition == nil {
		return nil
	}
	if field, negative := nutrition.Negative(); negative {
		return apperrors.Field("nutritionInfo."+field, field+" must not be negative")
	}
	return nil
}

func parsePublishDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	date, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.Field("publishDate", "Invalid publish date")
	}
	return date, nil
}

func normalizeRecipe(req *dto.RecipeRequest) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Instructions = strings.TrimSpace(req.Instructions)
	req.Ingredients = dto.TrimAll(req.Ingredients)
	req.Tags = dto.ParseTags(strings.Join(req.Tags, ","))
}

// Create stores a new recipe with its image. The image is removed again
// when the recipe cannot be saved.
func (s *RecipeService) Create(editorID string, req dto.RecipeRequest, image *multipart.FileHeader) (*dto.RecipeResponse, error) {
	normalizeRecipe(&req)
	if image == nil {
		return nil, apperrors.Field("recipeImage", "Recipe image is required")
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := checkNutrition(req.Nutrition); err != nil {
		return nil, err
	}
	publishDate, err := parsePublishDate(req.PublishDate)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Save(storage.PurposeRecipe, image, models.RecipeImageMimeTypes)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		EditorID:     editorID,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     stored.URL,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		PrepTime:     *req.PrepTime,
		Servings:     *req.Servings,
		Tags:         req.Tags,
		Difficulty:   models.Difficulty(req.Difficulty),
		Nutrition:    req.Nutrition,
		PublishDate:  publishDate,
		IsPublished:  req.IsPublished == nil || *req.IsPublished,
	}
	if err := s.repo.Create(&recipe); err != nil {
		discard(s.store, stored.URL)
		return nil, apperrors.Internal(err, "Failed to create recipe")
	}

	metrics.RecordUpload(string(storage.PurposeRecipe))
	logging.Info().Str("recipe_id", recipe.ID).Str("editor_id", editorID).Msg("Recipe created")
	response := toResponse(recipe)
	return &response, nil
}

// authorized loads a recipe the scope may act on. Recipes of other authors
// are reported exactly like missing ones.
func (s *RecipeService) authorized(scope authz.Scope, id string) (models.Recipe, error) {
	recipe, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return recipe, apperrors.NotFound(msgRecipeGone)
		}
		return recipe, apperrors.Internal(err, "Failed to retrieve recipe")
	}
	if !scope.Permits(recipe.EditorID) {
		return models.Recipe{}, apperrors.NotFound(msgRecipeGone)
	}
	return recipe, nil
}

// Update merges the non-nil fields of req into the recipe. A new image
// replaces the old one, which is removed in the same transaction.
func (s *RecipeService) Update(scope authz.Scope, id string, req dto.UpdateRecipeRequest, image *multipart.FileHeader) (*dto.RecipeResponse, error) {
	trim := func(value *string) *string {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		return &trimmed
	}
	req.Title = trim(req.Title)
	req.Description = trim(req.Description)
	req.Instructions = trim(req.Instructions)
	if req.Ingredients != nil {
		req.Ingredients = dto.TrimAll(req.Ingredients)
	}
	if req.Tags != nil {
		req.Tags = dto.ParseTags(strings.Join(req.Tags, ","))
	}
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := checkNutrition(req.Nutrition); err != nil {
		return nil, err
	}

	recipe, err := s.authorized(scope, id)
	if err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if req.Title != nil {
		changes["title"] = *req.Title
	}
	if req.Description != nil {
		changes["description"] = *req.Description
	}
	if req.Ingredients != nil {
		changes["ingredients"] = models.StringList(req.Ingredients)
	}
	if req.Instructions != nil {
		changes["instructions"] = *req.Instructions
	}
	if req.PrepTime != nil {
		changes["prep_time"] = *req.PrepTime
	}
	if req.Servings != nil {
		changes["servings"] = *req.Servings
	}
	if req.Tags != nil {
		changes["tags"] = models.StringList(req.Tags)
	}
	if req.Difficulty != nil {
		changes["difficulty"] = models.Difficulty(*req.Difficulty)
	}
	if req.Nutrition != nil {
		changes["nutrition"] = req.Nutrition
	}
	if req.IsPublished != nil {
		changes["is_published"] = *req.IsPublished
	}
	if req.PublishDate != nil {
		publishDate, err := parsePublishDate(*req.PublishDate)
		if err != nil {
			return nil, err
		}
		if !publishDate.IsZero() {
			changes["publish_date"] = publishDate
		}
	}

	oldImage := recipe.ImageURL
	var newImage string
	if image != nil {
		stored, err := s.store.Save(storage.PurposeRecipe, image, models.RecipeImageMimeTypes)
		if err != nil {
			return nil, err
		}
		newImage = stored.URL
		changes["image_url"] = newImage
		metrics.RecordUpload(string(storage.PurposeRecipe))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updated, err := s.repo.WithTx(tx).UpdateOwned(recipe.ID, scope.OwnerFilter(), changes)
		if err != nil {
			return apperrors.Internal(err, "Failed to update recipe")
		}
		if !updated {
			return apperrors.NotFound(msgRecipeGone)
		}
		if newImage != "" {
			if err := s.store.Remove(oldImage); err != nil {
				return apperrors.Internal(err, "Failed to replace recipe image")
			}
		}
		return nil
	})
	if err != nil {
		discard(s.store, newImage)
		return nil, err
	}

	recipe, err = s.authorized(scope, id)
	if err != nil {
		return nil, err
	}
	response := toResponse(recipe)
	return &response, nil
}

// Delete removes the recipe row and its image together
func (s *RecipeService) Delete(scope authz.Scope, id string) error {
	recipe, err := s.authorized(scope, id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(recipe.ID); err != nil {
			return apperrors.Internal(err, "Failed to delete recipe")
		}
		if err := s.store.Remove(recipe.ImageURL); err != nil {
			return apperrors.Internal(err, "Failed to remove recipe image; the recipe was not deleted")
		}
		return nil
	})
	if err != nil {
		logging.Error().Err(err).Str("recipe_id", recipe.ID).Msg("Recipe deletion failed")
		return err
	}
	return nil
}

// AdminList returns recipes of every author, drafts included
func (s *RecipeService) AdminList(filter dto.RecipeFilter) (*dto.RecipeListResponse, error) {
	return s.list(filter)
}

// AdminStats summarizes the recipes of every author
func (s *RecipeService) AdminStats() (*dto.AdminRecipeStats, error) {
	totals, err := s.repo.Totals("")
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	recent, err := s.repo.CountCreatedSince(utils.DaysAgo(s.now().UTC(), 30))
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	authors, err := s.repo.CountDistinctAuthors()
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}
	top, err := s.repo.TopAuthors(topAuthorLimit)
	if err != nil {
		return nil, apperrors.Internal(err, "Failed to retrieve statistics")
	}

	return &dto.AdminRecipeStats{
		RecipeStatsResponse: statsOf(totals),
		RecentRecipes:       recent,
		TotalAuthors:        authors,
		TopAuthors:          top,
	}, nil
}
