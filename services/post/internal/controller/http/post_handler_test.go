package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"blogsphere/pkg/access"
	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/logger"
	"blogsphere/services/post/internal/entity"
	"blogsphere/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostUseCase is a mock implementation of PostUseCase
type MockPostUseCase struct {
	mock.Mock
}

func (m *MockPostUseCase) CreatePost(ctx context.Context, requesterID string, input usecase.CreatePostInput) (*entity.Post, error) {
	args := m.Called(requesterID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) GetPost(ctx context.Context, requesterID, postID string) (*entity.Post, error) {
	args := m.Called(requesterID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) ListPublic(ctx context.Context, requesterID, search string, limit, offset int) ([]*entity.Post, error) {
	args := m.Called(requesterID, search, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) ListMine(ctx context.Context, requesterID, visibility, search string) (*usecase.MyPosts, error) {
	args := m.Called(requesterID, visibility, search)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.MyPosts), args.Error(1)
}

func (m *MockPostUseCase) UpdatePost(ctx context.Context, requesterID, postID string, input usecase.UpdatePostInput) (*entity.Post, error) {
	args := m.Called(requesterID, postID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Post), args.Error(1)
}

func (m *MockPostUseCase) DeletePost(ctx context.Context, requesterID, postID string) error {
	return m.Called(requesterID, postID).Error(0)
}

func (m *MockPostUseCase) UploadImage(ctx context.Context, requesterID string, file io.ReadSeeker, contentType string) (*entity.PostImage, error) {
	args := m.Called(requesterID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.PostImage), args.Error(1)
}

var _ usecase.PostUseCase = (*MockPostUseCase)(nil)

const upgradeURL = "http://localhost:8003/api/v1/billing/upgrade"

func setupTestRouter(uc *MockPostUseCase, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewPostHandler(uc, upgradeURL, logger.New())

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	router.POST("/posts", handler.CreatePost)
	router.GET("/posts", handler.ListPosts)
	router.GET("/posts/:id", handler.GetPost)
	router.PUT("/posts/:id", handler.UpdatePost)
	router.DELETE("/posts/:id", handler.DeletePost)
	router.GET("/me/posts", handler.ListMyPosts)
	router.POST("/posts/images", handler.UploadImage)
	return router
}

func perform(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreatePost_Success(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	input := usecase.CreatePostInput{Title: "Hi", Body: "<p>x</p>", Visibility: "private"}
	uc.On("CreatePost", "alice", input).
		Return(&entity.Post{ID: "post-1", AuthorID: "alice", Visibility: access.VisibilityPrivate}, nil)

	w := perform(router, "POST", "/posts", CreatePostRequest{Title: "Hi", Body: "<p>x</p>", Visibility: "private"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"visibility":"private"`)
}

func TestCreatePost_QuotaExceeded(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	uc.On("CreatePost", "alice", mock.Anything).Return(nil, apperrors.ErrQuotaExceeded)

	w := perform(router, "POST", "/posts", CreatePostRequest{Title: "Hi", Body: "b"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, upgradeURL, resp["upgrade_url"])
}

func TestCreatePost_Anonymous(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "")

	uc.On("CreatePost", "", mock.Anything).Return(nil, apperrors.ErrUnauthenticated)

	w := perform(router, "POST", "/posts", CreatePostRequest{Title: "Hi", Body: "b"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePost_BadVisibility(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	w := perform(router, "POST", "/posts", CreatePostRequest{Title: "Hi", Body: "b", Visibility: "friends"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uc.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything)
}

func TestGetPost_HiddenIsNotFound(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "bob")

	uc.On("GetPost", "bob", "post-1").Return(nil, apperrors.ErrNotFound)

	w := perform(router, "GET", "/posts/post-1", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPost_PublicAnonymous(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "")

	uc.On("GetPost", "", "post-1").Return(&entity.Post{
		ID: "post-1", AuthorID: "alice", Visibility: access.VisibilityPublic, AuthorEmail: "alice@example.com",
	}, nil)

	w := perform(router, "GET", "/posts/post-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestListPosts(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "")

	uc.On("ListPublic", "", "go", 10, 20).Return([]*entity.Post{{ID: "p1"}}, nil)

	w := perform(router, "GET", "/posts?search=go&limit=10&offset=20", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestListPosts_StoreDown(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "")

	uc.On("ListPublic", "", "", 50, 0).Return(nil, apperrors.ErrUpstreamUnavailable)

	w := perform(router, "GET", "/posts", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListMyPosts(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	uc.On("ListMine", "alice", "private", "").Return(&usecase.MyPosts{
		Posts: []*entity.Post{}, PostCount: 5, Limit: 5, CanCreate: false,
	}, nil)

	w := perform(router, "GET", "/me/posts?visibility=private", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"can_create":false`)
	assert.Contains(t, w.Body.String(), `"post_count":5`)
}

func TestUpdatePost_Forbidden(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "bob")

	title := "x"
	uc.On("UpdatePost", "bob", "post-1", usecase.UpdatePostInput{Title: &title}).Return(nil, apperrors.ErrForbidden)

	w := perform(router, "PUT", "/posts/post-1", UpdatePostRequest{Title: &title})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "upgrade_url")
}

func TestDeletePost(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	uc.On("DeletePost", "alice", "post-1").Return(nil)

	w := perform(router, "DELETE", "/posts/post-1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestUploadImage(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	uc.On("UploadImage", "alice", "image/png").
		Return(&entity.PostImage{ImageURL: "https://cdn/x.png", ObjectKey: "posts/alice/x.png"}, nil)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="x.png"`)
	header.Set("Content-Type", "image/png")
	part, _ := writer.CreatePart(header)
	part.Write([]byte("png-bytes"))
	writer.Close()

	req, _ := http.NewRequest("POST", "/posts/images", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "https://cdn/x.png")
}

func TestUploadImage_MissingFile(t *testing.T) {
	uc := new(MockPostUseCase)
	router := setupTestRouter(uc, "alice")

	w := perform(router, "POST", "/posts/images", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
