package local

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/identity"
	"spamguard/backend/internal/storage"
)

// Provider 本地身份提供者
//
// 凭证以 bcrypt 哈希保存在记录存储的 profiles 表里。
// 只用于开发环境和测试，生产部署走 httpapi 客户端。
type Provider struct {
	store storage.Store
}

// New 创建本地身份提供者
func New(store storage.Store) *Provider {
	return &Provider{store: store}
}

// Register 注册本地用户
func (p *Provider) Register(ctx context.Context, email, password string) (*identity.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := domain.ValidateEmail(email); err != nil {
		return nil, identity.ErrInvalidEmail
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, identity.ErrWeakPassword
	}

	if user, err := p.store.GetUserByEmail(ctx, email); err == nil && user != nil {
		return nil, identity.ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return &identity.Identity{
		Subject:   user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}

// Authenticate 校验本地凭证
func (p *Provider) Authenticate(ctx context.Context, email, password string) (*identity.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := p.store.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, identity.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, identity.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, identity.ErrInvalidCredentials
	}

	_ = p.store.UpdateLastLogin(ctx, user.ID)

	return &identity.Identity{
		Subject:   user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}
