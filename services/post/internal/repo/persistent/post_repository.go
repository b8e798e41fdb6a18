package persistent

import (
	"context"
	"strings"
	"time"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/database"
	"blogsphere/services/post/internal/entity"
	"blogsphere/services/post/internal/model"

	"gorm.io/gorm"
)

// ListFilter narrows a listing. A nil Visibility means every visibility.
type ListFilter struct {
	AuthorID   string
	Visibility *access.Visibility
	Search     string
	Limit      int
	Offset     int
}

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.Post, error)
	CountByAuthor(ctx context.Context, authorID string) (int, error)
	Update(ctx context.Context, post *entity.Post) error
	Delete(ctx context.Context, id string) error
	GetAuthor(ctx context.Context, userID string) (*entity.Author, error)
	CreateImage(ctx context.Context, image *entity.PostImage) error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	postModel := ToPostModel(post)
	if err := r.db.WithContext(ctx).Create(postModel).Error; err != nil {
		return database.TranslateError(err)
	}
	*post = *ToPostEntity(postModel)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	var postModel model.PostModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&postModel).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return ToPostEntity(&postModel), nil
}

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *postRepository) List(ctx context.Context, filter ListFilter) ([]*entity.Post, error) {
	var postModels []model.PostModel
	query := r.db.WithContext(ctx).Model(&model.PostModel{})

	if filter.AuthorID != "" {
		query = query.Where("user_id = ?", filter.AuthorID)
	}
	if filter.Visibility != nil {
		query = query.Where("visibility = ?", string(*filter.Visibility))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("title ILIKE ?", "%"+escapeLike(search)+"%")
	}

	query = query.Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	if err := query.Find(&postModels).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return toPostEntities(postModels), nil
}

func (r *postRepository) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.PostModel{}).Where("user_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, database.TranslateError(err)
	}
	return int(count), nil
}

// Update writes the mutable columns and stamps post.UpdatedAt with the
// value stored in the row.
func (r *postRepository) Update(ctx context.Context, post *entity.Post) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&model.PostModel{ID: post.ID}).Updates(map[string]interface{}{
		"title":      post.Title,
		"content":    post.Body,
		"visibility": string(post.Visibility),
		"updated_at": now,
	})
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	post.UpdatedAt = now
	return nil
}

// Delete removes the post row. Uploaded images are detached by the
// post_images foreign key (ON DELETE SET NULL).
func (r *postRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PostModel{})
	if result.Error != nil {
		return database.TranslateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *postRepository) GetAuthor(ctx context.Context, userID string) (*entity.Author, error) {
	var author model.AuthorModel
	if err := r.db.WithContext(ctx).Select("id", "email", "is_premium").Where("id = ?", userID).First(&author).Error; err != nil {
		return nil, database.TranslateError(err)
	}
	return ToAuthorEntity(&author), nil
}

func (r *postRepository) CreateImage(ctx context.Context, image *entity.PostImage) error {
	imageModel := ToPostImageModel(image)
	if err := r.db.WithContext(ctx).Create(imageModel).Error; err != nil {
		return database.TranslateError(err)
	}
	image.ID = imageModel.ID
	image.CreatedAt = imageModel.CreatedAt
	return nil
}
