package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/storage"
)

// Store 内存存储实现
//
// 用于开发环境和测试，进程退出即丢失。所有方法并发安全。
type Store struct {
	mu      sync.RWMutex
	users   map[string]*domain.User                 // key: user ID
	records map[string]*domain.ClassificationRecord // key: record ID
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*domain.User),
		records: make(map[string]*domain.ClassificationRecord),
	}
}

// ========== User Repository ==========

// CreateUser 创建新用户
func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := *user
	s.users[u.ID] = &u
	return nil
}

// GetUserByID 根据ID获取用户
func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			u := *user
			return &u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

// UpdateLastLogin 更新用户最后登录时间
func (s *Store) UpdateLastLogin(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	now := time.Now()
	user.LastLoginAt = &now
	return nil
}

// ========== Record Repository ==========

// CreateRecord 保存分类记录
func (s *Store) CreateRecord(_ context.Context, record *domain.ClassificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := *record
	s.records[r.ID] = &r
	return nil
}

// GetRecord 根据ID获取分类记录
func (s *Store) GetRecord(_ context.Context, id string) (*domain.ClassificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, storage.ErrRecordNotFound
	}
	r := *record
	return &r, nil
}

// ListRecordsByEmail 按邮箱列出分类记录，最新在前
func (s *Store) ListRecordsByEmail(_ context.Context, email string) ([]domain.ClassificationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ClassificationRecord
	for _, record := range s.records {
		if strings.EqualFold(record.Email, email) {
			out = append(out, *record)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// SetRecordFeedback 设置分类记录的反馈标志
func (s *Store) SetRecordFeedback(_ context.Context, id string, correct bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return storage.ErrRecordNotFound
	}
	record.IsClassificationCorrect = &correct
	return nil
}

// Health 检查存储健康状态
func (s *Store) Health() error {
	return nil
}

// Close 释放资源（内存存储无操作）
func (s *Store) Close() error {
	return nil
}
