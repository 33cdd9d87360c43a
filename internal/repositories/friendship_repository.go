package repositories

import (
	"context"

	"github.com/anonto42/usf-event/backend/internal/models"
	"gorm.io/gorm"
)

// FriendshipRepository stores directed friendship edges
type FriendshipRepository interface {
	CreateFriendship(ctx context.Context, friendship *models.Friendship) error
	CountFriendships(ctx context.Context, fromProfileID, toProfileID uint) (int64, error)
	// GetFriendshipsFrom returns the edges leaving a profile in creation order.
	GetFriendshipsFrom(ctx context.Context, fromProfileID uint) ([]models.Friendship, error)
}

// PostgresFriendshipRepository implements FriendshipRepository for PostgreSQL
type PostgresFriendshipRepository struct {
	db *gorm.DB
}

// NewPostgresFriendshipRepository creates a new PostgresFriendshipRepository
func NewPostgresFriendshipRepository(db *gorm.DB) *PostgresFriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

func (r *PostgresFriendshipRepository) CreateFriendship(ctx context.Context, friendship *models.Friendship) error {
	return r.db.WithContext(ctx).Create(friendship).Error
}

func (r *PostgresFriendshipRepository) CountFriendships(ctx context.Context, fromProfileID, toProfileID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("from_profile_id = ? AND to_profile_id = ?", fromProfileID, toProfileID).
		Count(&count).Error
	return count, err
}

func (r *PostgresFriendshipRepository) GetFriendshipsFrom(ctx context.Context, fromProfileID uint) ([]models.Friendship, error) {
	friendships := []models.Friendship{}
	err := r.db.WithContext(ctx).Where("from_profile_id = ?", fromProfileID).
		Order("id ASC").Find(&friendships).Error
	return friendships, err
}
