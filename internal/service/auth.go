package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"spamguard/backend/internal/auth/jwt"
	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/identity"
	"spamguard/backend/internal/monitoring"
	"spamguard/backend/internal/storage"
)

// AuthService 封装注册/登录业务操作。
//
// 凭证校验委托给身份提供方（远程身份服务或本地实现），
// API 自身签发的访问令牌独立于身份提供方的会话。
type AuthService struct {
	provider identity.Provider
	tokens   *jwt.Manager
	users    storage.UserRepository
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// NewAuthService 创建认证业务服务。
func NewAuthService(
	provider identity.Provider,
	tokens *jwt.Manager,
	users storage.UserRepository,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		provider: provider,
		tokens:   tokens,
		users:    users,
		metrics:  metrics,
		log:      log,
	}
}

// Signup 注册新账号并确保本地用户资料存在。
func (s *AuthService) Signup(ctx context.Context, email, password string) (*identity.Identity, error) {
	ident, err := s.provider.Register(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// 远程身份提供方不维护本地资料表，补建一行资料；
	// 本地身份提供方注册时已写入，这里会直接命中。
	if _, err := s.users.GetUserByEmail(ctx, ident.Email); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			now := time.Now().UTC()
			profile := &domain.User{
				ID:        ident.Subject,
				Email:     strings.ToLower(ident.Email),
				IsActive:  true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.users.CreateUser(ctx, profile); err != nil {
				s.log.Warn("failed to create user profile",
					zap.String("email", profile.Email),
					zap.Error(err))
			}
		} else {
			s.log.Warn("failed to look up user profile", zap.Error(err))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordUserRegistered()
	}

	s.log.Info("user registered", zap.String("email", strings.ToLower(ident.Email)))
	return ident, nil
}

// Login 校验凭证并签发访问令牌。
func (s *AuthService) Login(ctx context.Context, email, password string) (*jwt.Token, error) {
	ident, err := s.provider.Authenticate(ctx, email, password)
	if err != nil {
		if s.metrics != nil && errors.Is(err, identity.ErrInvalidCredentials) {
			s.metrics.RecordLogin("failure")
		}
		return nil, err
	}

	token, err := s.tokens.Generate(ident.Email)
	if err != nil {
		s.log.Error("failed to generate access token", zap.Error(err))
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordLogin("success")
	}

	s.log.Info("user logged in", zap.String("email", strings.ToLower(ident.Email)))
	return token, nil
}
