package persistent

import (
	"context"

	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/database"
	"blogsphere/services/auth/internal/entity"
	"blogsphere/services/auth/internal/model"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
	UpdateName(ctx context.Context, id, name string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	userModel := ToUserModel(user)
	if err := r.db.WithContext(ctx).Create(userModel).Error; err != nil {
		return database.TranslateError(err)
	}
	*user = *ToUserEntity(userModel)
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var userModel model.UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&userModel).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return ToUserEntity(&userModel), nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var userModel model.UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&userModel).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return ToUserEntity(&userModel), nil
}

func (r *userRepository) UpdateName(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).Model(&model.UserModel{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
