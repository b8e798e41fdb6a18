package persistent

import (
	"context"

	"blogsphere/pkg/database"
	"blogsphere/pkg/models"
	"blogsphere/services/contact/internal/entity"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	row := &models.ContactMessage{
		ID:      message.ID,
		Name:    message.Name,
		Email:   message.Email,
		Message: message.Message,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return database.TranslateError(err)
	}
	message.ID = row.ID
	message.CreatedAt = row.CreatedAt
	return nil
}
