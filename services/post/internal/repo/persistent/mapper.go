package persistent

import (
	"blogsphere/pkg/access"
	"blogsphere/services/post/internal/entity"
	"blogsphere/services/post/internal/model"
)

func ToPostEntity(m *model.PostModel) *entity.Post {
	if m == nil {
		return nil
	}

	return &entity.Post{
		ID:         m.ID,
		AuthorID:   m.UserID,
		Title:      m.Title,
		Body:       m.Content,
		Visibility: access.Visibility(m.Visibility),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func ToPostModel(e *entity.Post) *model.PostModel {
	if e == nil {
		return nil
	}

	return &model.PostModel{
		ID:         e.ID,
		UserID:     e.AuthorID,
		Title:      e.Title,
		Content:    e.Body,
		Visibility: string(e.Visibility),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}

func ToAuthorEntity(m *model.AuthorModel) *entity.Author {
	if m == nil {
		return nil
	}
	return &entity.Author{ID: m.ID, Email: m.Email, IsPremium: m.IsPremium}
}

func ToPostImageModel(e *entity.PostImage) *model.PostImageModel {
	return &model.PostImageModel{
		ID:        e.ID,
		UserID:    e.UserID,
		ObjectKey: e.ObjectKey,
		ImageURL:  e.ImageURL,
		CreatedAt: e.CreatedAt,
	}
}

func toPostEntities(models []model.PostModel) []*entity.Post {
	posts := make([]*entity.Post, len(models))
	for i := range models {
		posts[i] = ToPostEntity(&models[i])
	}
	return posts
}
