package storage

import (
	"context"
	"errors"

	"spamguard/backend/internal/domain"
)

var (
	// ErrUserNotFound 用户未找到错误
	ErrUserNotFound = errors.New("user not found")
	// ErrRecordNotFound 分类记录未找到错误
	ErrRecordNotFound = errors.New("classification record not found")
)

// UserRepository 定义用户资料数据存取操作。
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, userID string) error
}

// RecordRepository 定义分类记录数据存取操作。
//
// ListRecordsByEmail 按创建时间倒序返回（最新在前）。
// SetRecordFeedback 只修改反馈标志，不存在的记录返回
// ErrRecordNotFound，从不创建新行。
type RecordRepository interface {
	CreateRecord(ctx context.Context, record *domain.ClassificationRecord) error
	GetRecord(ctx context.Context, id string) (*domain.ClassificationRecord, error)
	ListRecordsByEmail(ctx context.Context, email string) ([]domain.ClassificationRecord, error)
	SetRecordFeedback(ctx context.Context, id string, correct bool) error
}

// Store 聚合存储接口。
type Store interface {
	UserRepository
	RecordRepository

	// Health 检查存储健康状态
	Health() error
	// Close 释放底层连接
	Close() error
}
