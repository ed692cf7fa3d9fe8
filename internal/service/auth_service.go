package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/pkg/jwt"
	"github.com/fictusai/fictus_go_server/internal/pkg/oauth"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

var (
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrUsernameTaken      = errors.New("用户名已被占用")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
)

// AuthService 注册、登录、GitHub OAuth
type AuthService struct {
	userRepo   *repository.UserRepository
	github     *oauth.GithubOAuth
	stateStore *oauth.StateStore
	cfg        *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, github *oauth.GithubOAuth, stateStore *oauth.StateStore, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		github:     github,
		stateStore: stateStore,
		cfg:        cfg,
	}
}

// Register 邮箱密码注册，成功即签发令牌
func (s *AuthService) Register(req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	taken, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	taken, err = s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	hashStr := string(hash)
	user := &model.User{
		Username:     req.Username,
		Email:        &req.Email,
		PasswordHash: &hashStr,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.RegisterResponse{
		UserID: user.ID,
		Token:  token,
	}, nil
}

// Login 邮箱密码登录。
// 查无此人和密码错误返回同一个错误，不给枚举邮箱的机会
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 纯 OAuth 账号没有密码
	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  toUserInfo(user),
	}, nil
}

// GithubAuthURL 生成 GitHub 授权跳转地址，state 暂存在 redis
func (s *AuthService) GithubAuthURL(ctx context.Context, redirectURI string) (string, error) {
	state, err := s.stateStore.GenerateState(ctx, redirectURI)
	if err != nil {
		return "", err
	}
	return s.github.GetAuthURL(state), nil
}

// GithubCallback 处理 OAuth 回调：校验 state、换 token、取用户、登录或建号
func (s *AuthService) GithubCallback(ctx context.Context, code, state string) (*dto.LoginResponse, string, error) {
	redirectURI, err := s.stateStore.ValidateState(ctx, state)
	if err != nil {
		return nil, "", err
	}

	oauthToken, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange code: %w", err)
	}

	ghUser, err := s.github.GetUser(ctx, oauthToken)
	if err != nil {
		return nil, "", err
	}

	user, err := s.findOrCreateGithubUser(ghUser)
	if err != nil {
		return nil, "", err
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, "", err
	}

	return &dto.LoginResponse{
		Token: token,
		User:  toUserInfo(user),
	}, redirectURI, nil
}

func (s *AuthService) findOrCreateGithubUser(ghUser *oauth.GithubUser) (*model.User, error) {
	githubID := strconv.FormatInt(ghUser.ID, 10)

	user, err := s.userRepo.GetByGithubID(githubID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 邮箱相同的老账号直接绑定，不建重复账号
	if ghUser.Email != "" {
		existing, err := s.userRepo.GetByEmail(ghUser.Email)
		if err == nil {
			existing.GithubID = &githubID
			if existing.AvatarURL == "" {
				existing.AvatarURL = ghUser.AvatarURL
			}
			if err := s.userRepo.Update(existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	username := s.uniqueUsername(ghUser.Login)
	user = &model.User{
		Username:  username,
		GithubID:  &githubID,
		AvatarURL: ghUser.AvatarURL,
	}
	if ghUser.Email != "" {
		user.Email = &ghUser.Email
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// uniqueUsername GitHub 登录名冲突时追加序号
func (s *AuthService) uniqueUsername(login string) string {
	username := login
	for i := 1; ; i++ {
		taken, err := s.userRepo.ExistsByUsername(username)
		if err != nil || !taken {
			return username
		}
		username = fmt.Sprintf("%s_%d", login, i)
	}
}

func toUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if user.Email != nil {
		info.Email = *user.Email
	}
	return info
}
