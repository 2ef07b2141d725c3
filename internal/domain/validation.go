package domain

import (
	"errors"
	"net/mail"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooLong     = errors.New("email address too long")
	ErrPasswordTooShort = errors.New("password too short (min 8 chars)")
	ErrPasswordTooLong  = errors.New("password too long (max 72 chars)")
	ErrMessageEmpty     = errors.New("message text is empty")
	ErrMessageTooLong   = errors.New("message text too long")
)

// 验证常量
const (
	// RFC 5322 邮箱地址长度限制
	MaxEmailLength = 254

	// 密码长度限制（上限对齐 bcrypt 的 72 字节输入限制）
	MinPasswordLength = 8
	MaxPasswordLength = 72

	// 待分类文本最大长度
	MaxMessageLength = 64 * 1024
)

// ValidateEmail 验证邮箱地址格式
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidEmail
	}
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	if !strings.Contains(strings.SplitN(email, "@", 2)[1], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword 验证密码长度
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateMessage 验证待分类文本
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrMessageEmpty
	}
	if len(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}
