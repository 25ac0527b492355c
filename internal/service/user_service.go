// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rebuilder-go/internal/model"
	"rebuilder-go/internal/repository"
	"rebuilder-go/pkg/database"
	"rebuilder-go/pkg/hash"
	"rebuilder-go/pkg/log"
	"rebuilder-go/pkg/token"

	"gorm.io/gorm"
)

// ErrUserExists 表示用户名已被注册。
var ErrUserExists = errors.New("用户名已存在")

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// TokenPair 是一次登录签发的令牌对。
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService 定义了用户相关的业务操作接口。
type UserService interface {
	Register(ctx context.Context, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, *model.User, error)
	GetProfile(ctx context.Context, userID uint) (*model.User, error)
	// RefreshToken 校验 refresh token 并签发新的令牌对。
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout 将 token 加入黑名单直至其自然过期。
	Logout(ctx context.Context, tokenString string) error
}

type userService struct {
	userRepo   repository.UserRepository
	jwtManager *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, jwtManager *token.JWTManager) UserService {
	return &userService{userRepo: userRepo, jwtManager: jwtManager}
}

// Register 注册一个新用户，密码经 bcrypt 加密后存储。
func (s *userService) Register(ctx context.Context, username, password string) (*model.User, error) {
	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	user := &model.User{
		Username: username,
		Password: hashedPassword,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	log.Infof("[Register] 用户注册成功: %s", username)
	return user, nil
}

// Login 校验用户名和密码，成功后签发 access token 和 refresh token。
func (s *userService) Login(ctx context.Context, username, password string) (*TokenPair, *model.User, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("生成 access token 失败: %w", err)
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, nil, fmt.Errorf("生成 refresh token 失败: %w", err)
	}

	log.Infof("[Login] 用户登录成功: %s", username)
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, user, nil
}

// GetProfile 返回用户信息。
func (s *userService) GetProfile(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("用户不存在")
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return user, nil
}

// RefreshToken 校验 refresh token 并为仍然存在的用户签发新的令牌对。
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// 确认用户未被删除后再签发新令牌
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("生成 access token 失败: %w", err)
	}
	newRefreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("生成 refresh token 失败: %w", err)
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout 将 token 写入 Redis 黑名单，有效期与 token 剩余有效期一致。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		// token 已失效，无需加入黑名单
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := database.RDB.Set(ctx, "blacklist:"+tokenString, "1", ttl).Err(); err != nil {
		return fmt.Errorf("写入 token 黑名单失败: %w", err)
	}

	log.Infof("[Logout] 用户登出: %s", claims.Username)
	return nil
}
