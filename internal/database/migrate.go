package database

import (
	"gorm.io/gorm"

	"github.com/forkful/backend/internal/model"
)

// Migrate creates or updates the schema for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Recipe{},
		&model.RecipeRating{},
	)
}
