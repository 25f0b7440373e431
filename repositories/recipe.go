package repositories

import (
	"strings"
	"time"

	"github.com/appcontrol-api/dto"
	"github.com/appcontrol-api/models"
	"gorm.io/gorm"
)

// recipeSortColumns whitelists the sortable fields
var recipeSortColumns = map[string]string{
	"publishDate": "publish_date",
	"createdAt":   "created_at",
	"views":       "views",
	"title":       "title",
	"prepTime":    "prep_time",
}

// RecipeRepository handles database operations for recipes
type RecipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository instance
func NewRecipeRepository(db *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *RecipeRepository) WithTx(tx *gorm.DB) *RecipeRepository {
	return &RecipeRepository{db: tx}
}

// Create inserts a new recipe into the database
func (r *RecipeRepository) Create(recipe *models.Recipe) error {
	return r.db.Create(recipe).Error
}

// FindByID retrieves a recipe by its ID with its author
func (r *RecipeRepository) FindByID(id string) (models.Recipe, error) {
	var recipe models.Recipe
	result := r.db.Preload("Editor").First(&recipe, "id = ?", id)
	return recipe, result.Error
}

// FindPublished retrieves a published recipe by its ID with its author
func (r *RecipeRepository) FindPublished(id string) (models.Recipe, error) {
	var recipe models.Recipe
	result := r.db.Preload("Editor").First(&recipe, "id = ? AND is_published = ?", id, true)
	return recipe, result.Error
}

// IncrementViews adds one view to a published recipe in a single
// statement. It reports whether the recipe exists and is published.
func (r *RecipeRepository) IncrementViews(id string) (bool, error) {
	result := r.db.Model(&models.Recipe{}).
		Where("id = ? AND is_published = ?", id, true).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	return result.RowsAffected > 0, result.Error
}

// UpdateOwned writes columns of a recipe; a non-empty editorID restricts
// the update to that author. It reports whether the recipe still exists.
func (r *RecipeRepository) UpdateOwned(id, editorID string, columns map[string]interface{}) (bool, error) {
	return updateScoped(r.db, &models.Recipe{}, id, "editor_id", editorID, columns)
}

// Delete removes a recipe row
func (r *RecipeRepository) Delete(id string) error {
	return r.db.Delete(&models.Recipe{}, "id = ?", id).Error
}

// ImageURLsByEditor lists the stored images of an author's recipes
func (r *RecipeRepository) ImageURLsByEditor(editorID string) ([]string, error) {
	var urls []string
	err := r.db.Model(&models.Recipe{}).Where("editor_id = ?", editorID).Pluck("image_url", &urls).Error
	return urls, err
}

// DeleteByEditor removes every recipe of an author
func (r *RecipeRepository) DeleteByEditor(editorID string) error {
	return r.db.Where("editor_id = ?", editorID).Delete(&models.Recipe{}).Error
}

// FindWithPagination retrieves recipes with pagination, filtering and sorting
func (r *RecipeRepository) FindWithPagination(filter dto.RecipeFilter) ([]models.Recipe, int64, error) {
	var recipes []models.Recipe
	var totalCount int64

	db := r.db.Model(&models.Recipe{})

	if filter.EditorID != "" {
		db = db.Where("editor_id = ?", filter.EditorID)
	}
	if filter.IsPublished != nil {
		db = db.Where("is_published = ?", *filter.IsPublished)
	}
	if filter.Difficulty != "" {
		db = db.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.Tag != "" {
		// tags are stored as a JSON array of strings
		db = db.Where("tags LIKE ?", `%"`+strings.ToLower(filter.Tag)+`"%`)
	}
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		db = db.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}
	db = dateRange(db, "created_at", filter.CreatedFrom, filter.CreatedTo)

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	column, ok := recipeSortColumns[filter.SortBy]
	if !ok {
		column = "publish_date"
	}
	order := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		order = "ASC"
	}

	err := db.Preload("Editor").
		Order(column + " " + order).
		Order("id").
		Limit(filter.Limit).
		Offset(filter.Offset()).
		Find(&recipes).Error
	return recipes, totalCount, err
}

// PublishedTags returns the tag lists of every published recipe
func (r *RecipeRepository) PublishedTags() ([]models.StringList, error) {
	var tags []models.StringList
	err := r.db.Model(&models.Recipe{}).Where("is_published = ?", true).Pluck("tags", &tags).Error
	return tags, err
}

// RecipeTotals are the aggregate figures behind the recipe statistics
type RecipeTotals struct {
	Total        int64
	Published    int64
	Views        int64
	ByDifficulty map[string]int64
	Popular      []dto.PopularRecipe
}

// Totals aggregates recipes of editorID, or of every author when empty
func (r *RecipeRepository) Totals(editorID string) (RecipeTotals, error) {
	totals := RecipeTotals{ByDifficulty: make(map[string]int64)}

	scoped := func() *gorm.DB {
		db := r.db.Model(&models.Recipe{})
		if editorID != "" {
			db = db.Where("editor_id = ?", editorID)
		}
		return db
	}

	if err := scoped().Count(&totals.Total).Error; err != nil {
		return totals, err
	}
	if err := scoped().Where("is_published = ?", true).Count(&totals.Published).Error; err != nil {
		return totals, err
	}
	if err := scoped().Select("COALESCE(SUM(views), 0)").Scan(&totals.Views).Error; err != nil {
		return totals, err
	}

	var rows []struct {
		Difficulty string
		Count      int64
	}
	if err := scoped().Select("difficulty, COUNT(*) AS count").Group("difficulty").Scan(&rows).Error; err != nil {
		return totals, err
	}
	for _, row := range rows {
		totals.ByDifficulty[row.Difficulty] = row.Count
	}

	totals.Popular = make([]dto.PopularRecipe, 0)
	err := scoped().Select("id, title, views").
		Order("views DESC").
		Order("id").
		Limit(5).
		Scan(&totals.Popular).Error
	return totals, err
}

// CountCreatedSince counts recipes created at or after since
func (r *RecipeRepository) CountCreatedSince(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Recipe{}).Where("created_at >= ?", since).Count(&count).Error
	return count, err
}

// CountDistinctAuthors counts editors with at least one recipe
func (r *RecipeRepository) CountDistinctAuthors() (int64, error) {
	var count int64
	err := r.db.Model(&models.Recipe{}).Distinct("editor_id").Count(&count).Error
	return count, err
}

// TopAuthors returns the n authors with the most recipes
func (r *RecipeRepository) TopAuthors(n int) ([]dto.AuthorCount, error) {
	authors := make([]dto.AuthorCount, 0)
	err := r.db.Model(&models.Recipe{}).
		Select("recipes.editor_id AS editor_id, users.name AS name, users.email AS email, COUNT(*) AS count").
		Joins("JOIN users ON users.id = recipes.editor_id").
		Group("recipes.editor_id, users.name, users.email").
		Order("count DESC").
		Order("recipes.editor_id").
		Limit(n).
		Scan(&authors).Error
	return authors, err
}
