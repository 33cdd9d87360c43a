package repositories

import (
	"context"

	"github.com/anonto42/usf-event/backend/internal/models"
	"gorm.io/gorm"
)

type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessagesFrom(ctx context.Context, profileID uint) ([]models.Message, error)
	GetMessagesTo(ctx context.Context, profileID uint) ([]models.Message, error)
}

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *PostgresMessageRepository) GetMessagesFrom(ctx context.Context, profileID uint) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).Where("from_profile_id = ?", profileID).Order("id ASC").Find(&messages).Error
	return messages, err
}

func (r *PostgresMessageRepository) GetMessagesTo(ctx context.Context, profileID uint) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.db.WithContext(ctx).Where("to_profile_id = ?", profileID).Order("id ASC").Find(&messages).Error
	return messages, err
}
