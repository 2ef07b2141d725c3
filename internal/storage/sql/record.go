package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/storage"
)

// CreateRecord 创建分类记录
func (s *Store) CreateRecord(ctx context.Context, record *domain.ClassificationRecord) error {
	if err := s.gormDB.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create classification record: %w", err)
	}
	return nil
}

// GetRecord 根据ID获取分类记录
func (s *Store) GetRecord(ctx context.Context, id string) (*domain.ClassificationRecord, error) {
	var record domain.ClassificationRecord
	err := s.gormDB.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get classification record: %w", err)
	}
	return &record, nil
}

// ListRecordsByEmail 获取指定用户的全部分类记录（按创建时间倒序）
func (s *Store) ListRecordsByEmail(ctx context.Context, email string) ([]domain.ClassificationRecord, error) {
	var records []domain.ClassificationRecord
	err := s.gormDB.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(email)).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list classification records: %w", err)
	}
	return records, nil
}

// SetRecordFeedback 设置分类记录的反馈标记
//
// 记录不存在时返回 ErrRecordNotFound，不会创建新记录。
// MySQL 对未变更的行报告 0 受影响行数，因此先检查记录存在性再更新。
func (s *Store) SetRecordFeedback(ctx context.Context, id string, correct bool) error {
	var count int64
	err := s.gormDB.WithContext(ctx).
		Model(&domain.ClassificationRecord{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check classification record: %w", err)
	}
	if count == 0 {
		return storage.ErrRecordNotFound
	}

	result := s.gormDB.WithContext(ctx).
		Model(&domain.ClassificationRecord{}).
		Where("id = ?", id).
		Update("is_classification_correct", correct)
	if result.Error != nil {
		return fmt.Errorf("failed to set record feedback: %w", result.Error)
	}
	return nil
}
