package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/api/middleware"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
	"github.com/fictusai/fictus_go_server/internal/service"
)

type LibraryHandler struct {
	libraryService *service.LibraryService
}

func NewLibraryHandler(libraryService *service.LibraryService) *LibraryHandler {
	return &LibraryHandler{libraryService: libraryService}
}

// Share POST /api/v1/media/:id/share
func (h *LibraryHandler) Share(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	var req dto.ShareMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.ParamError(c, "title must be under 200 characters")
		return
	}

	media, err := h.libraryService.Share(middleware.UserID(c), mediaID, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotShareable) {
			response.ParamError(c, "you can only share media after detection has completed")
			return
		}
		mediaError(c, err)
		return
	}
	response.Success(c, media)
}

// Unshare DELETE /api/v1/media/:id/share
func (h *LibraryHandler) Unshare(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.libraryService.Unshare(middleware.UserID(c), mediaID); err != nil {
		mediaError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListGallery GET /api/v1/gallery
func (h *LibraryHandler) ListGallery(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.libraryService.ListGallery(page, pageSize)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.SuccessPage(c, total, page, pageSize, items)
}

// GetGalleryItem GET /api/v1/gallery/:id
// 登录用户顺带返回自己有没有点过赞
func (h *LibraryHandler) GetGalleryItem(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	media, err := h.libraryService.GetGalleryItem(mediaID)
	if err != nil {
		mediaError(c, err)
		return
	}

	liked := false
	if userID := middleware.UserID(c); userID > 0 {
		liked, _ = h.libraryService.HasLiked(userID, mediaID)
	}

	response.Success(c, gin.H{
		"media": media,
		"liked": liked,
	})
}

// Like POST /api/v1/gallery/:id/like
func (h *LibraryHandler) Like(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.libraryService.Like(middleware.UserID(c), mediaID); err != nil {
		if errors.Is(err, service.ErrAlreadyLiked) {
			response.DuplicateError(c, "you already liked this")
			return
		}
		mediaError(c, err)
		return
	}
	response.Success(c, nil)
}

// Unlike DELETE /api/v1/gallery/:id/like
func (h *LibraryHandler) Unlike(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.libraryService.Unlike(middleware.UserID(c), mediaID); err != nil {
		if errors.Is(err, service.ErrNotLiked) {
			response.ParamError(c, "you have not liked this yet")
			return
		}
		mediaError(c, err)
		return
	}
	response.Success(c, nil)
}
