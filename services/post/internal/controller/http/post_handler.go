package http

import (
	"errors"
	"net/http"
	"strconv"

	"blogsphere/pkg/apperrors"
	"blogsphere/pkg/logger"
	"blogsphere/pkg/middleware"
	"blogsphere/services/post/internal/usecase"

	"github.com/gin-gonic/gin"
)

// maxImageSize bounds a single uploaded image.
const maxImageSize = 5 << 20

type PostHandler struct {
	postUseCase usecase.PostUseCase
	upgradeURL  string
	logger      *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, upgradeURL string, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUseCase,
		upgradeURL:  upgradeURL,
		logger:      logger,
	}
}

type CreatePostRequest struct {
	Title      string `json:"title" binding:"required"`
	Body       string `json:"body" binding:"required"`
	Visibility string `json:"visibility" binding:"omitempty,oneof=public private"`
}

type UpdatePostRequest struct {
	Title      *string `json:"title"`
	Body       *string `json:"body"`
	Visibility *string `json:"visibility" binding:"omitempty,oneof=public private"`
}

type ImageResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

func (h *PostHandler) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	body := gin.H{"error": apperrors.Message(err)}
	if errors.Is(err, apperrors.ErrQuotaExceeded) {
		body["upgrade_url"] = h.upgradeURL
	}
	c.JSON(status, body)
}

// CreatePost godoc
// @Summary      Create a new post
// @Description  Free accounts may own at most 5 posts; premium accounts are unlimited.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePostRequest true "Post"
// @Success      201  {object}  entity.Post
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string "quota exceeded, includes upgrade_url"
// @Failure      503  {object}  map[string]string
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postUseCase.CreatePost(c.Request.Context(), middleware.RequesterID(c), usecase.CreatePostInput{
		Title:      req.Title,
		Body:       req.Body,
		Visibility: req.Visibility,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetPost godoc
// @Summary      Get post by ID
// @Description  Private posts are only visible to their author; everyone else gets 404.
// @Tags         posts
// @Produce      json
// @Param        id   path      string  true  "Post ID"
// @Success      200  {object}  entity.Post
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.postUseCase.GetPost(c.Request.Context(), middleware.RequesterID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// ListPosts godoc
// @Summary      List public posts
// @Description  Newest first. search matches the title, case-insensitively.
// @Tags         posts
// @Produce      json
// @Param        search  query  string  false  "Title search"
// @Param        limit   query  int     false  "Page size (max 100)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	posts, err := h.postUseCase.ListPublic(c.Request.Context(), middleware.RequesterID(c), c.Query("search"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

// ListMyPosts godoc
// @Summary      List own posts
// @Description  All of the requester's posts with quota information.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        visibility  query  string  false  "all, public or private"
// @Param        search      query  string  false  "Title search"
// @Success      200  {object}  usecase.MyPosts
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /me/posts [get]
func (h *PostHandler) ListMyPosts(c *gin.Context) {
	mine, err := h.postUseCase.ListMine(c.Request.Context(), middleware.RequesterID(c), c.Query("visibility"), c.Query("search"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, mine)
}

// UpdatePost godoc
// @Summary      Update post
// @Description  Only the author may update a post.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string             true  "Post ID"
// @Param        request  body  UpdatePostRequest  true  "Fields to change"
// @Success      200  {object}  entity.Post
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.postUseCase.UpdatePost(c.Request.Context(), middleware.RequesterID(c), c.Param("id"), usecase.UpdatePostInput{
		Title:      req.Title,
		Body:       req.Body,
		Visibility: req.Visibility,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary      Delete post
// @Description  Only the author may delete a post.
// @Tags         posts
// @Security     BearerAuth
// @Param        id   path      string  true  "Post ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.postUseCase.DeletePost(c.Request.Context(), middleware.RequesterID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadImage godoc
// @Summary      Upload an image
// @Description  Stores an image for embedding in a post body and returns its URL.
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "jpeg, png, gif or webp, up to 5MB"
// @Success      201  {object}  ImageResponse
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /posts/images [post]
func (h *PostHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if fileHeader.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is larger than 5MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read image"})
		return
	}
	defer file.Close()

	image, err := h.postUseCase.UploadImage(c.Request.Context(), middleware.RequesterID(c), file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ImageResponse{URL: image.ImageURL, Key: image.ObjectKey})
}
