package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"spamguard/backend/internal/classifier"
	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/monitoring"
	"spamguard/backend/internal/storage"
)

var (
	// ErrClassifierUnavailable 分类模型不可用
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	// ErrNoRecords 用户没有任何分类记录
	ErrNoRecords = errors.New("no classification records")
)

// ResultCache 分类结果缓存接口
type ResultCache interface {
	GetResult(ctx context.Context, text string) (*classifier.Result, error)
	SetResult(ctx context.Context, text string, result *classifier.Result) error
}

// Notifier 分类事件通知接口（WebSocket推送）
type Notifier interface {
	NotifyClassification(record *domain.ClassificationRecord)
	NotifyFeedback(email, recordID string, correct bool)
}

// ClassificationService 封装文本分类相关业务操作。
type ClassificationService struct {
	model    classifier.Classifier
	records  storage.RecordRepository
	cache    ResultCache // 可选
	notifier Notifier    // 可选
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// NewClassificationService 创建分类业务服务。
//
// cache 和 notifier 可以为 nil，对应能力会被跳过。
func NewClassificationService(
	model classifier.Classifier,
	records storage.RecordRepository,
	cache ResultCache,
	notifier Notifier,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *ClassificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ClassificationService{
		model:    model,
		records:  records,
		cache:    cache,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
	}
}

// Classify 对文本执行垃圾分类并持久化记录。
//
// 记录归属于调用者邮箱，仅本人可在历史中看到。
func (s *ClassificationService) Classify(ctx context.Context, email, text string) (*domain.ClassificationRecord, error) {
	if err := domain.ValidateMessage(text); err != nil {
		return nil, err
	}
	if s.model == nil {
		return nil, ErrClassifierUnavailable
	}

	result, source, err := s.classify(ctx, text)
	if err != nil {
		return nil, err
	}

	record := &domain.ClassificationRecord{
		ID:         uuid.New().String(),
		Email:      strings.ToLower(email),
		Message:    text,
		Label:      result.Label,
		Confidence: result.Confidence,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.records.CreateRecord(ctx, record); err != nil {
		s.log.Error("failed to persist classification record",
			zap.String("email", record.Email),
			zap.Error(err))
		return nil, fmt.Errorf("failed to persist classification record: %w", err)
	}

	s.log.Info("text classified",
		zap.String("record_id", record.ID),
		zap.String("email", record.Email),
		zap.String("label", string(record.Label)),
		zap.Float64("confidence", record.Confidence),
		zap.String("source", source))

	if s.notifier != nil {
		s.notifier.NotifyClassification(record)
	}

	return record, nil
}

// classify 执行推理，优先命中缓存；返回结果及其来源（model/cache）
func (s *ClassificationService) classify(ctx context.Context, text string) (*classifier.Result, string, error) {
	if s.cache != nil {
		cached, err := s.cache.GetResult(ctx, text)
		if err != nil {
			// 缓存故障不阻断分类
			s.log.Warn("classification cache lookup failed", zap.Error(err))
		} else if cached != nil {
			if s.metrics != nil {
				s.metrics.RecordClassification(string(cached.Label), "cache", 0)
			}
			return cached, "cache", nil
		}
	}

	start := time.Now()
	result, err := s.model.Classify(text)
	if err != nil {
		if errors.Is(err, classifier.ErrEmptyText) {
			return nil, "", domain.ErrMessageEmpty
		}
		s.log.Error("classification failed", zap.Error(err))
		return nil, "", ErrClassifierUnavailable
	}
	elapsed := time.Since(start)

	if s.metrics != nil {
		s.metrics.RecordClassification(string(result.Label), "model", elapsed)
	}

	if s.cache != nil {
		if err := s.cache.SetResult(ctx, text, result); err != nil {
			s.log.Warn("failed to cache classification result", zap.Error(err))
		}
	}

	return result, "model", nil
}

// History 返回调用者的全部分类记录（按创建时间倒序）。
//
// 没有任何记录时返回 ErrNoRecords。
func (s *ClassificationService) History(ctx context.Context, email string) ([]domain.ClassificationRecord, error) {
	records, err := s.records.ListRecordsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list classification records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	return records, nil
}

// Feedback 记录用户对某次分类结果的正确性反馈。
//
// 只能反馈本人的记录；记录不存在（或不属于调用者）返回
// storage.ErrRecordNotFound，绝不创建新记录。
func (s *ClassificationService) Feedback(ctx context.Context, email, recordID string, correct bool) error {
	record, err := s.records.GetRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return storage.ErrRecordNotFound
		}
		return fmt.Errorf("failed to load classification record: %w", err)
	}

	// 不泄露他人记录的存在性
	if !strings.EqualFold(record.Email, email) {
		return storage.ErrRecordNotFound
	}

	if err := s.records.SetRecordFeedback(ctx, recordID, correct); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return storage.ErrRecordNotFound
		}
		return fmt.Errorf("failed to set record feedback: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordFeedback(correct)
	}

	s.log.Info("feedback recorded",
		zap.String("record_id", recordID),
		zap.String("email", strings.ToLower(email)),
		zap.Bool("correct", correct))

	if s.notifier != nil {
		s.notifier.NotifyFeedback(email, recordID, correct)
	}

	return nil
}
