package http

import (
	"net/http"

	"blogsphere/pkg/apperrors"
	"blogsphere/services/contact/internal/usecase"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactUseCase usecase.ContactUseCase
}

func NewContactHandler(contactUseCase usecase.ContactUseCase) *ContactHandler {
	return &ContactHandler{contactUseCase: contactUseCase}
}

type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// Submit godoc
// @Summary      Send a contact message
// @Description  Stores a message for the site owners
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        request body ContactRequest true "Message"
// @Success      201  {object}  entity.Message
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill in all fields"})
		return
	}

	msg, err := h.contactUseCase.Submit(c.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": apperrors.Message(err)})
		return
	}

	c.JSON(http.StatusCreated, msg)
}
