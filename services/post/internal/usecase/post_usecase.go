package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/logger"
	"blogsphere/pkg/s3"
	"blogsphere/services/post/internal/entity"
	"blogsphere/services/post/internal/repo/cache"
	"blogsphere/services/post/internal/repo/persistent"
)

const (
	// emptyEditorBody is what the rich-text editor submits when nothing was typed.
	emptyEditorBody = "<p><br></p>"

	maxTitleLength  = 255
	defaultPageSize = 50
	maxPageSize     = 100
)

// ImageStore keeps post images in object storage.
type ImageStore interface {
	UploadFile(key string, file io.ReadSeeker, contentType string) (string, error)
	DeleteFile(key string) error
}

type CreatePostInput struct {
	Title      string
	Body       string
	Visibility string
}

// UpdatePostInput leaves fields that are nil untouched.
type UpdatePostInput struct {
	Title      *string
	Body       *string
	Visibility *string
}

// MyPosts is the requester's own listing together with their quota state.
type MyPosts struct {
	Posts     []*entity.Post `json:"posts"`
	PostCount int            `json:"post_count"`
	Limit     int            `json:"limit"`
	Remaining int            `json:"remaining"`
	CanCreate bool           `json:"can_create"`
	IsPremium bool           `json:"is_premium"`
	Tier      access.Tier    `json:"tier"`
}

type PostUseCase interface {
	CreatePost(ctx context.Context, requesterID string, input CreatePostInput) (*entity.Post, error)
	GetPost(ctx context.Context, requesterID, postID string) (*entity.Post, error)
	ListPublic(ctx context.Context, requesterID, search string, limit, offset int) ([]*entity.Post, error)
	ListMine(ctx context.Context, requesterID, visibility, search string) (*MyPosts, error)
	UpdatePost(ctx context.Context, requesterID, postID string, input UpdatePostInput) (*entity.Post, error)
	DeletePost(ctx context.Context, requesterID, postID string) error
	UploadImage(ctx context.Context, requesterID string, file io.ReadSeeker, contentType string) (*entity.PostImage, error)
}

type postUseCase struct {
	postRepo   persistent.PostRepository
	postCache  cache.PostCache
	imageStore ImageStore
	logger     *logger.Logger
}

func NewPostUseCase(
	postRepo persistent.PostRepository,
	postCache cache.PostCache,
	imageStore ImageStore,
	logger *logger.Logger,
) PostUseCase {
	return &postUseCase{
		postRepo:   postRepo,
		postCache:  postCache,
		imageStore: imageStore,
		logger:     logger,
	}
}

func isBlankBody(body string) bool {
	body = strings.TrimSpace(body)
	return body == "" || body == emptyEditorBody
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if len([]rune(title)) > maxTitleLength {
		return "", fmt.Errorf("%w: title is longer than %d characters", apperrors.ErrValidation, maxTitleLength)
	}
	return title, nil
}

// loadRequester resolves the requester row. An id without a row yields nil so
// the write rule can refuse it.
func (uc *postUseCase) loadRequester(ctx context.Context, requesterID string) (*entity.Author, error) {
	author, err := uc.postRepo.GetAuthor(ctx, requesterID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	return author, err
}

func (uc *postUseCase) CreatePost(ctx context.Context, requesterID string, input CreatePostInput) (*entity.Post, error) {
	if requesterID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	if isBlankBody(input.Body) {
		return nil, fmt.Errorf("%w: body is required", apperrors.ErrValidation)
	}
	visibility, err := access.ParseVisibility(input.Visibility)
	if err != nil {
		return nil, err
	}

	requester, err := uc.loadRequester(ctx, requesterID)
	if err != nil {
		uc.logger.Error("Failed to load requester %s: %v", requesterID, err)
		return nil, err
	}

	count := 0
	if requester != nil {
		if count, err = uc.postRepo.CountByAuthor(ctx, requesterID); err != nil {
			uc.logger.Error("Failed to count posts for %s: %v", requesterID, err)
			return nil, err
		}
	}

	// Quota is checked here and not enforced by the store, so two concurrent
	// creates can both pass with count == limit-1.
	if err := access.AuthorizeWrite(access.WriteRequest{
		RequesterID:       requesterID,
		Action:            access.ActionCreate,
		Requester:         requester.AccessUser(),
		ExistingPostCount: count,
	}); err != nil {
		if errors.Is(err, apperrors.ErrQuotaExceeded) {
			uc.logger.Info("User %s hit the free tier limit (%d posts)", requesterID, count)
		}
		return nil, err
	}

	post := &entity.Post{
		AuthorID:   requesterID,
		Title:      title,
		Body:       input.Body,
		Visibility: visibility,
	}
	if err := uc.postRepo.Create(ctx, post); err != nil {
		uc.logger.Error("Failed to create post: %v", err)
		return nil, err
	}

	uc.logger.Info("Post %s created by %s (%s)", post.ID, requesterID, post.Visibility)
	return post, nil
}

func (uc *postUseCase) GetPost(ctx context.Context, requesterID, postID string) (*entity.Post, error) {
	post, cached := uc.postCache.Get(ctx, postID)

	// the version is taken before the store read so that an eviction racing
	// with this request keeps the copy below out of the cache
	var version int64
	cacheable := false
	if !cached {
		var err error
		if version, err = uc.postCache.Version(ctx, postID); err != nil {
			uc.logger.Warn("Failed to read cache version of post %s: %v", postID, err)
		} else {
			cacheable = true
		}

		post, err = uc.postRepo.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
	}

	if !access.CanRead(requesterID, post.AccessPost()) {
		return nil, apperrors.ErrNotFound
	}

	if cached {
		return post, nil
	}

	if post.Visibility == access.VisibilityPublic {
		author, err := uc.postRepo.GetAuthor(ctx, post.AuthorID)
		if err != nil {
			uc.logger.Warn("Failed to load author of post %s: %v", post.ID, err)
		} else {
			post.AuthorEmail = author.Email
		}
	}

	if !cacheable {
		return post, nil
	}
	if err := uc.postCache.Set(ctx, post, version); errors.Is(err, cache.ErrStale) {
		uc.logger.Info("Post %s changed during read, not caching", post.ID)
	} else if err != nil {
		uc.logger.Warn("Failed to cache post %s: %v", post.ID, err)
	}
	return post, nil
}

func pageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func (uc *postUseCase) ListPublic(ctx context.Context, requesterID, search string, limit, offset int) ([]*entity.Post, error) {
	if offset < 0 {
		offset = 0
	}
	listable := access.ListableVisibility
	posts, err := uc.postRepo.List(ctx, persistent.ListFilter{
		Visibility: &listable,
		Search:     search,
		Limit:      pageSize(limit),
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	return access.FilterReadable(requesterID, posts), nil
}

// ListMine accepts visibility "all", "public" or "private". Empty means all.
func (uc *postUseCase) ListMine(ctx context.Context, requesterID, visibility, search string) (*MyPosts, error) {
	if requesterID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	filter := persistent.ListFilter{AuthorID: requesterID, Search: search}
	if v := strings.ToLower(strings.TrimSpace(visibility)); v != "" && v != "all" {
		parsed, err := access.ParseVisibility(v)
		if err != nil {
			return nil, err
		}
		filter.Visibility = &parsed
	}

	requester, err := uc.loadRequester(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, fmt.Errorf("%w: requester has no account", apperrors.ErrNotFound)
	}

	posts, err := uc.postRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := uc.postRepo.CountByAuthor(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	user := *requester.AccessUser()
	return &MyPosts{
		Posts:     access.FilterReadable(requesterID, posts),
		PostCount: count,
		Limit:     access.FreeTierPostLimit,
		Remaining: access.RemainingPosts(user, count),
		CanCreate: access.CanCreatePost(user, count),
		IsPremium: user.IsPremium,
		Tier:      access.TierOf(user),
	}, nil
}

// authorizeMutation loads the target and applies the write rule, hiding
// refusals on posts the requester cannot see.
func (uc *postUseCase) authorizeMutation(ctx context.Context, requesterID, postID string, action access.Action) (*entity.Post, error) {
	if requesterID == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	post, err := uc.postRepo.GetByID(ctx, postID)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	req := access.WriteRequest{RequesterID: requesterID, Action: action}
	if post != nil {
		target := post.AccessPost()
		req.Post = &target
	}
	if err := access.AuthorizeWrite(req); err != nil {
		if post != nil {
			err = access.ConcealDenial(requesterID, post.AccessPost(), err)
		}
		return nil, err
	}
	return post, nil
}

func (uc *postUseCase) UpdatePost(ctx context.Context, requesterID, postID string, input UpdatePostInput) (*entity.Post, error) {
	post, err := uc.authorizeMutation(ctx, requesterID, postID, access.ActionUpdate)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		post.Title = title
	}
	if input.Body != nil {
		if isBlankBody(*input.Body) {
			return nil, fmt.Errorf("%w: body is required", apperrors.ErrValidation)
		}
		post.Body = *input.Body
	}
	if input.Visibility != nil {
		next, err := access.ParseVisibility(*input.Visibility)
		if err != nil {
			return nil, err
		}
		if !access.CanChangeVisibility(post.Visibility, next) {
			return nil, fmt.Errorf("%w: cannot change visibility from %s to %s", apperrors.ErrValidation, post.Visibility, next)
		}
		post.Visibility = next
	}

	if err := uc.postRepo.Update(ctx, post); err != nil {
		uc.logger.Error("Failed to update post %s: %v", postID, err)
		return nil, err
	}
	uc.evict(ctx, postID)
	return post, nil
}

func (uc *postUseCase) DeletePost(ctx context.Context, requesterID, postID string) error {
	if _, err := uc.authorizeMutation(ctx, requesterID, postID, access.ActionDelete); err != nil {
		return err
	}

	if err := uc.postRepo.Delete(ctx, postID); err != nil {
		uc.logger.Error("Failed to delete post %s: %v", postID, err)
		return err
	}
	uc.evict(ctx, postID)
	uc.logger.Info("Post %s deleted by %s", postID, requesterID)
	return nil
}

func (uc *postUseCase) evict(ctx context.Context, postID string) {
	if err := uc.postCache.Delete(ctx, postID); err != nil {
		uc.logger.Warn("Failed to evict post %s from cache: %v", postID, err)
	}
}

func (uc *postUseCase) UploadImage(ctx context.Context, requesterID string, file io.ReadSeeker, contentType string) (*entity.PostImage, error) {
	if requesterID == "" {
		return nil, apperrors.ErrUnauthenticated
	}
	if uc.imageStore == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", apperrors.ErrUpstreamUnavailable)
	}

	key, err := s3.ImageKey(requesterID, contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	url, err := uc.imageStore.UploadFile(key, file, contentType)
	if err != nil {
		uc.logger.Error("Failed to upload image for %s: %v", requesterID, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstreamUnavailable, err)
	}

	image := &entity.PostImage{UserID: requesterID, ObjectKey: key, ImageURL: url}
	if err := uc.postRepo.CreateImage(ctx, image); err != nil {
		uc.logger.Error("Failed to record image %s: %v", key, err)
		// an unrecorded object is unreachable, so drop it
		if delErr := uc.imageStore.DeleteFile(key); delErr != nil {
			uc.logger.Warn("Failed to remove orphaned image %s: %v", key, delErr)
		}
		return nil, err
	}
	return image, nil
}
