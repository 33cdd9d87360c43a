package repositories

import (
	"context"

	"github.com/anonto42/usf-event/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like (saved event) operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	HasProfileLikedEvent(ctx context.Context, profileID uint, eventID string) (bool, error)
	// GetLikesByProfile returns likes oldest first.
	GetLikesByProfile(ctx context.Context, profileID uint) ([]models.Like, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	return r.db.WithContext(ctx).Create(like).Error
}

func (r *PostgresLikeRepository) HasProfileLikedEvent(ctx context.Context, profileID uint, eventID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("profile_id = ? AND event_id = ?", profileID, eventID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresLikeRepository) GetLikesByProfile(ctx context.Context, profileID uint) ([]models.Like, error) {
	likes := []models.Like{}
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Order("id ASC").Find(&likes).Error; err != nil {
		return nil, err
	}
	return likes, nil
}
