package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/api/middleware"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/pkg/oss"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
	"github.com/fictusai/fictus_go_server/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetProfile GET /api/v1/user/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	info, err := h.userService.GetProfile(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, "")
			return
		}
		response.ServerError(c, "")
		return
	}
	response.Success(c, info)
}

// UpdateProfile PUT /api/v1/user/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "username must be 3-50 characters")
		return
	}

	info, err := h.userService.UpdateProfile(middleware.UserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFoundError(c, "")
		case errors.Is(err, service.ErrUsernameTaken):
			response.DuplicateError(c, "this username is already taken")
		default:
			response.ServerError(c, "")
		}
		return
	}
	response.Success(c, info)
}

// UploadAvatar POST /api/v1/user/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "avatar file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ParamError(c, "could not read the uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.ParamError(c, "could not read the uploaded file")
		return
	}

	url, err := h.userService.UploadAvatar(c.Request.Context(), middleware.UserID(c), fileHeader.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedType):
			response.ParamError(c, "avatar must be a jpg, png or webp image")
		case errors.Is(err, service.ErrFileTooLarge):
			response.ParamError(c, "avatar must be under 2MB")
		default:
			response.ServerError(c, oss.UserMessage(err))
		}
		return
	}

	response.Success(c, gin.H{"avatar_url": url})
}
