package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Difficulty grades how demanding a recipe is
type Difficulty string

const (
	DifficultyEasy         Difficulty = "Easy"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyHard         Difficulty = "Hard"
)

// Difficulties lists the accepted grades
var Difficulties = []Difficulty{DifficultyEasy, DifficultyIntermediate, DifficultyHard}

// IsValid reports whether d is one of Difficulties
func (d Difficulty) IsValid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// RecipeImageMimeTypes is the upload allow-list for recipe images
var RecipeImageMimeTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

const (
	MinRecipeTextLength = 50
	MinPrepTime         = 1
	MaxPrepTime         = 600
	MinServings         = 1
	MaxServings         = 50
)

// Recipe is a diabetic-friendly recipe authored by an editor or admin
type Recipe struct {
	ID           string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	EditorID     string         `json:"editorId" gorm:"type:varchar(36);not null;index"`
	Title        string         `json:"title" gorm:"size:200;not null"`
	Description  string         `json:"description" gorm:"type:text;not null"`
	ImageURL     string         `json:"imageUrl" gorm:"not null"`
	Ingredients  StringList     `json:"ingredients" gorm:"type:text"`
	Instructions string         `json:"instructions" gorm:"type:text;not null"`
	PrepTime     int            `json:"prepTime" gorm:"not null"`
	Servings     int            `json:"servings" gorm:"not null"`
	Tags         StringList     `json:"tags" gorm:"type:text"`
	Difficulty   Difficulty     `json:"difficulty" gorm:"type:varchar(20);not null;index"`
	Nutrition    *NutritionInfo `json:"nutritionInfo,omitempty" gorm:"type:text"`
	PublishDate  time.Time      `json:"publishDate" gorm:"not null;index"`
	IsPublished  bool           `json:"isPublished" gorm:"not null;index"`
	Views        int64          `json:"views" gorm:"not null;default:0"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`

	// Relations
	Editor *User `json:"-" gorm:"foreignKey:EditorID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a UUID, publish date and the default difficulty
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PublishDate.IsZero() {
		r.PublishDate = time.Now().UTC()
	}
	if r.Difficulty == "" {
		r.Difficulty = DifficultyEasy
	}
	return nil
}
