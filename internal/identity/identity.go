package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrEmailExists 邮箱已被注册
	ErrEmailExists = errors.New("email already exists")
	// ErrInvalidCredentials 邮箱或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidEmail 邮箱格式无效
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword 密码不满足强度要求
	ErrWeakPassword = errors.New("password does not meet requirements")
	// ErrUnavailable 身份服务不可用
	ErrUnavailable = errors.New("identity service unavailable")
)

// Identity 身份服务返回的认证主体
type Identity struct {
	Subject   string    // 身份服务内部的用户标识
	Email     string    // 认证邮箱
	CreatedAt time.Time // 身份创建时间
}

// Provider 身份提供者接口
//
// 凭证校验和会话签发完全委托给实现方，本系统只转发调用并
// 映射结果。remote 实现走外部身份服务的 HTTP API，local 实现
// 基于存储层和 bcrypt，用于开发环境和测试替身。
type Provider interface {
	// Register 注册新身份，邮箱冲突时返回 ErrEmailExists
	Register(ctx context.Context, email, password string) (*Identity, error)
	// Authenticate 校验凭证，失败时返回 ErrInvalidCredentials
	Authenticate(ctx context.Context, email, password string) (*Identity, error)
}
