package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaceholderImage is stored on recipes that have no image yet.
const PlaceholderImage = "https://static.forkful.app/images/recipe-placeholder.png"

// Recipe difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Recipe category tags. Every stored category is one of these.
const (
	CategoryVegetarian    = "vegetarian"
	CategoryNonVegetarian = "non-vegetarian"
	CategoryVegan         = "vegan"
	CategorySpicy         = "spicy"
	CategoryOther         = "other"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// JSONBUUIDArray stores a set of entity references in JSONB. Membership
// is checked before every append, so each id appears at most once.
type JSONBUUIDArray []uuid.UUID

// Value implements the driver.Valuer interface
func (a JSONBUUIDArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface
func (a *JSONBUUIDArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBUUIDArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Contains reports whether id is a member of the array.
func (a JSONBUUIDArray) Contains(id uuid.UUID) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}

// Remove returns the array without id.
func (a JSONBUUIDArray) Remove(id uuid.UUID) JSONBUUIDArray {
	out := make(JSONBUUIDArray, 0, len(a))
	for _, v := range a {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// NutritionalInfo holds per-recipe macros. Values are non-negative and
// rounded to 2 decimals before persisting.
type NutritionalInfo struct {
	Calories float64 `gorm:"column:calories" json:"calories"`
	Protein  float64 `gorm:"column:protein" json:"protein"`
	Fat      float64 `gorm:"column:fat" json:"fat"`
	Carbs    float64 `gorm:"column:carbs" json:"carbs"`
}

type Recipe struct {
	ID              uuid.UUID        `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Title           string           `gorm:"size:255;not null" json:"title"`
	Description     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"description"`
	Ingredients     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	PortionSize     string           `gorm:"size:50" json:"portion_size"`
	Category        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"category"`
	Difficulty      string           `gorm:"size:20" json:"difficulty"`
	Image           string           `gorm:"type:text" json:"image"`
	AverageRating   float64          `gorm:"type:float" json:"average_rating"`
	SavedBy         JSONBUUIDArray   `gorm:"type:jsonb;not null;default:'[]'" json:"saved_by"`
	NutritionalInfo NutritionalInfo  `gorm:"embedded" json:"nutritional_info"`
	Tags            JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Cuisine         string           `gorm:"size:100" json:"cuisine,omitempty"`

	Ratings []RecipeRating `gorm:"foreignKey:RecipeID" json:"ratings,omitempty"`
}

// BeforeCreate assigns the id and the placeholder image.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Image == "" {
		r.Image = PlaceholderImage
	}
	return nil
}
