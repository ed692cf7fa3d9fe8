package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
	"github.com/fictusai/fictus_go_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "username (3-50 chars), email and password (8-32 chars) are required")
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			response.DuplicateError(c, "this email is already registered")
		case errors.Is(err, service.ErrUsernameTaken):
			response.DuplicateError(c, "this username is already taken")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "email and password are required")
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.AuthError(c, "incorrect email or password")
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, resp)
}

// GithubLogin GET /api/v1/auth/github
// 生成授权地址让前端跳转
func (h *AuthHandler) GithubLogin(c *gin.Context) {
	redirectURI := c.Query("redirect_uri")

	authURL, err := h.authService.GithubAuthURL(c.Request.Context(), redirectURI)
	if err != nil {
		response.ServerError(c, "could not start GitHub sign-in, please try again")
		return
	}

	response.Success(c, gin.H{"auth_url": authURL})
}

// GithubCallback GET /api/v1/auth/github/callback
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.ParamError(c, "missing code or state")
		return
	}

	resp, redirectURI, err := h.authService.GithubCallback(c.Request.Context(), code, state)
	if err != nil {
		response.AuthError(c, "GitHub sign-in failed, please try again")
		return
	}

	// 带回跳地址的走重定向，否则直接返回令牌
	if redirectURI != "" {
		c.Redirect(http.StatusFound, redirectURI+"?token="+resp.Token)
		return
	}
	response.Success(c, resp)
}
