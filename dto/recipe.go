package dto

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/appcontrol-api/apperrors"
	"github.com/appcontrol-api/models"
)

// RecipeRequest is a full recipe as submitted on create
type RecipeRequest struct {
	Title        string                `json:"title" validate:"required,max=200"`
	Description  string                `json:"description" validate:"required,min=50"`
	Ingredients  []string              `json:"ingredients" validate:"required,min=1,dive,required,max=200"`
	Instructions string                `json:"instructions" validate:"required,min=50"`
	PrepTime     *int                  `json:"prepTime" validate:"required,gte=1,lte=600"`
	Servings     *int                  `json:"servings" validate:"required,gte=1,lte=50"`
	Tags         []string              `json:"tags" validate:"dive,max=50"`
	Difficulty   string                `json:"difficulty" validate:"omitempty,difficulty"`
	Nutrition    *models.NutritionInfo `json:"nutritionInfo"`
	IsPublished  *bool                 `json:"isPublished"`
	PublishDate  string                `json:"publishDate"`
}

// UpdateRecipeRequest merges the non-nil fields into the recipe
type UpdateRecipeRequest struct {
	Title        *string               `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string               `json:"description" validate:"omitempty,min=50"`
	Ingredients  []string              `json:"ingredients" validate:"omitempty,min=1,dive,required,max=200"`
	Instructions *string               `json:"instructions" validate:"omitempty,min=50"`
	PrepTime     *int                  `json:"prepTime" validate:"omitempty,gte=1,lte=600"`
	Servings     *int                  `json:"servings" validate:"omitempty,gte=1,lte=50"`
	Tags         []string              `json:"tags" validate:"omitempty,dive,max=50"`
	Difficulty   *string               `json:"difficulty" validate:"omitempty,difficulty"`
	Nutrition    *models.NutritionInfo `json:"nutritionInfo"`
	IsPublished  *bool                 `json:"isPublished"`
	PublishDate  *string               `json:"publishDate"`
}

// ParseRecipeForm reads a multipart recipe form. Ingredients may be repeated
// fields, one per line, or a JSON array; tags are comma separated;
// nutritionInfo is a JSON object.
func ParseRecipeForm(form map[string][]string) (UpdateRecipeRequest, error) {
	var req UpdateRecipeRequest
	var fields []apperrors.FieldError

	req.Title = formString(form, "title")
	req.Description = formString(form, "description")
	req.Instructions = formString(form, "instructions")
	req.Difficulty = formString(form, "difficulty")
	req.PublishDate = formString(form, "publishDate")

	if values, ok := form["ingredients"]; ok {
		ingredients, err := parseIngredients(values)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "ingredients", Message: "ingredients must be a list of strings"})
		}
		req.Ingredients = ingredients
	}
	if raw := formString(form, "tags"); raw != nil {
		req.Tags = ParseTags(*raw)
	}

	for _, number := range []struct {
		name   string
		target **int
	}{{"prepTime", &req.PrepTime}, {"servings", &req.Servings}} {
		raw := formString(form, number.name)
		if raw == nil || strings.TrimSpace(*raw) == "" {
			continue
		}
		value, err := strconv.Atoi(strings.TrimSpace(*raw))
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: number.name, Message: number.name + " must be a whole number"})
			continue
		}
		*number.target = &value
	}

	if raw := formString(form, "isPublished"); raw != nil && strings.TrimSpace(*raw) != "" {
		published, err := strconv.ParseBool(strings.TrimSpace(*raw))
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: "isPublished", Message: "isPublished must be true or false"})
		} else {
			req.IsPublished = &published
		}
	}

	if raw := formString(form, "nutritionInfo"); raw != nil && strings.TrimSpace(*raw) != "" {
		var nutrition models.NutritionInfo
		if err := json.Unmarshal([]byte(*raw), &nutrition); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "nutritionInfo", Message: "nutritionInfo must be a JSON object"})
		} else {
			req.Nutrition = &nutrition
		}
	}

	if len(fields) > 0 {
		return req, apperrors.Validation("Validation failed", fields...)
	}
	return req, nil
}

// ToCreate converts a parsed form into a full create request
func (r UpdateRecipeRequest) ToCreate() RecipeRequest {
	req := RecipeRequest{
		Ingredients: r.Ingredients,
		PrepTime:    r.PrepTime,
		Servings:    r.Servings,
		Tags:        r.Tags,
		Nutrition:   r.Nutrition,
		IsPublished: r.IsPublished,
	}
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	req.Title = deref(r.Title)
	req.Description = deref(r.Description)
	req.Instructions = deref(r.Instructions)
	req.Difficulty = deref(r.Difficulty)
	req.PublishDate = deref(r.PublishDate)
	return req
}

func formString(form map[string][]string, key string) *string {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

func parseIngredients(values []string) ([]string, error) {
	if len(values) == 1 {
		raw := strings.TrimSpace(values[0])
		if strings.HasPrefix(raw, "[") {
			var list []string
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return nil, err
			}
			return TrimAll(list), nil
		}
		return TrimAll(strings.Split(raw, "\n")), nil
	}
	return TrimAll(values), nil
}

// TrimAll trims every entry and drops the ones left empty
func TrimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseTags splits a comma separated tag list into trimmed lower-case tags
func ParseTags(raw string) []string {
	tags := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// RecipeFilter represents filter criteria for public and author listings
type RecipeFilter struct {
	EditorID    string
	Search      string
	Tag         string
	Difficulty  models.Difficulty
	IsPublished *bool
	SortBy      string
	SortOrder   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	PageRequest
}

// RecipeListResponse represents paginated recipe list response
type RecipeListResponse struct {
	Recipes    []RecipeResponse `json:"recipes"`
	Pagination Pagination       `json:"pagination"`
}

// RecipeResponse is a recipe with its author attached
type RecipeResponse struct {
	models.Recipe
	Author *Owner `json:"author,omitempty"`
}

// TagCount is one entry of the popular tags list
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// PopularRecipe is a short entry in the most viewed list
type PopularRecipe struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Views int64  `json:"views"`
}

// AuthorCount is one entry of the most prolific authors list
type AuthorCount struct {
	EditorID string `json:"editorId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Count    int64  `json:"count"`
}

// RecipeStatsResponse summarizes an author's recipes
type RecipeStatsResponse struct {
	TotalRecipes     int64            `json:"totalRecipes"`
	PublishedRecipes int64            `json:"publishedRecipes"`
	DraftRecipes     int64            `json:"draftRecipes"`
	TotalViews       int64            `json:"totalViews"`
	ByDifficulty     map[string]int64 `json:"byDifficulty"`
	PopularRecipes   []PopularRecipe  `json:"popularRecipes"`
}

// AdminRecipeStats adds cross-author figures to RecipeStatsResponse
type AdminRecipeStats struct {
	RecipeStatsResponse
	RecentRecipes int64         `json:"recentRecipes"`
	TotalAuthors  int64         `json:"totalAuthors"`
	TopAuthors    []AuthorCount `json:"topAuthors"`
}
