package repositories

import (
	"github.com/anonto42/usf-event/backend/internal/models"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the relational tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Friendship{},
		&models.Like{},
		&models.Comment{},
		&models.Message{},
		&models.Notification{},
	)
}
