package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spamguard/backend/internal/classifier"
	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/storage"
	"spamguard/backend/internal/storage/memory"
)

// stubClassifier 固定返回结果的分类器
type stubClassifier struct {
	result *classifier.Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(text string) (*classifier.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// stubCache 内存缓存测试替身
type stubCache struct {
	entries map[string]*classifier.Result
	getErr  error
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*classifier.Result)}
}

func (c *stubCache) GetResult(_ context.Context, text string) (*classifier.Result, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[text], nil
}

func (c *stubCache) SetResult(_ context.Context, text string, result *classifier.Result) error {
	c.entries[text] = result
	return nil
}

func TestClassificationService_Classify(t *testing.T) {
	ctx := context.Background()

	t.Run("分类成功并持久化记录", func(t *testing.T) {
		store := memory.NewStore()
		model := &stubClassifier{result: &classifier.Result{Label: domain.LabelSpam, Confidence: 0.97}}
		svc := NewClassificationService(model, store, nil, nil, nil, nil)

		record, err := svc.Classify(ctx, "Alice@example.com", "win free money now")

		require.NoError(t, err)
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, "alice@example.com", record.Email)
		assert.Equal(t, "win free money now", record.Message)
		assert.Equal(t, domain.LabelSpam, record.Label)
		assert.Equal(t, 0.97, record.Confidence)
		assert.Nil(t, record.IsClassificationCorrect)

		stored, err := store.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, stored.ID)
	})

	t.Run("空文本返回验证错误且不写入存储", func(t *testing.T) {
		store := memory.NewStore()
		model := &stubClassifier{result: &classifier.Result{Label: domain.LabelHam, Confidence: 0.9}}
		svc := NewClassificationService(model, store, nil, nil, nil, nil)

		_, err := svc.Classify(ctx, "alice@example.com", "   ")

		assert.ErrorIs(t, err, domain.ErrMessageEmpty)
		assert.Equal(t, 0, model.calls)

		_, err = svc.History(ctx, "alice@example.com")
		assert.ErrorIs(t, err, ErrNoRecords)
	})

	t.Run("模型不可用返回依赖错误", func(t *testing.T) {
		store := memory.NewStore()
		model := &stubClassifier{err: classifier.ErrModelUnavailable}
		svc := NewClassificationService(model, store, nil, nil, nil, nil)

		_, err := svc.Classify(ctx, "alice@example.com", "hello")

		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})

	t.Run("模型未加载返回依赖错误", func(t *testing.T) {
		store := memory.NewStore()
		svc := NewClassificationService(nil, store, nil, nil, nil, nil)

		_, err := svc.Classify(ctx, "alice@example.com", "hello")

		assert.ErrorIs(t, err, ErrClassifierUnavailable)
	})

	t.Run("重复文本命中缓存跳过推理", func(t *testing.T) {
		store := memory.NewStore()
		model := &stubClassifier{result: &classifier.Result{Label: domain.LabelSpam, Confidence: 0.88}}
		cache := newStubCache()
		svc := NewClassificationService(model, store, cache, nil, nil, nil)

		_, err := svc.Classify(ctx, "alice@example.com", "free prize")
		require.NoError(t, err)
		assert.Equal(t, 1, model.calls)

		record, err := svc.Classify(ctx, "alice@example.com", "free prize")
		require.NoError(t, err)
		assert.Equal(t, 1, model.calls, "second classification should come from cache")
		assert.Equal(t, domain.LabelSpam, record.Label)

		// 缓存命中依然生成新记录
		records, err := svc.History(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("缓存故障不阻断分类", func(t *testing.T) {
		store := memory.NewStore()
		model := &stubClassifier{result: &classifier.Result{Label: domain.LabelHam, Confidence: 0.75}}
		cache := newStubCache()
		cache.getErr = errors.New("redis down")
		svc := NewClassificationService(model, store, cache, nil, nil, nil)

		record, err := svc.Classify(ctx, "alice@example.com", "see you at lunch")

		require.NoError(t, err)
		assert.Equal(t, domain.LabelHam, record.Label)
	})
}

func TestClassificationService_History(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	model := &stubClassifier{result: &classifier.Result{Label: domain.LabelHam, Confidence: 0.8}}
	svc := NewClassificationService(model, store, nil, nil, nil, nil)

	t.Run("无记录返回ErrNoRecords", func(t *testing.T) {
		_, err := svc.History(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNoRecords)
	})

	t.Run("只返回本人记录且按时间倒序", func(t *testing.T) {
		_, err := svc.Classify(ctx, "alice@example.com", "first message")
		require.NoError(t, err)
		_, err = svc.Classify(ctx, "bob@example.com", "bob message")
		require.NoError(t, err)
		second, err := svc.Classify(ctx, "alice@example.com", "second message")
		require.NoError(t, err)

		records, err := svc.History(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, second.ID, records[0].ID)
		for _, r := range records {
			assert.Equal(t, "alice@example.com", r.Email)
		}
	})
}

func TestClassificationService_Feedback(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	model := &stubClassifier{result: &classifier.Result{Label: domain.LabelSpam, Confidence: 0.95}}
	svc := NewClassificationService(model, store, nil, nil, nil, nil)

	record, err := svc.Classify(ctx, "alice@example.com", "free winner prize")
	require.NoError(t, err)

	t.Run("反馈成功更新记录", func(t *testing.T) {
		err := svc.Feedback(ctx, "alice@example.com", record.ID, false)
		require.NoError(t, err)

		stored, err := store.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.IsClassificationCorrect)
		assert.False(t, *stored.IsClassificationCorrect)
	})

	t.Run("重复反馈覆盖之前的标记", func(t *testing.T) {
		err := svc.Feedback(ctx, "alice@example.com", record.ID, true)
		require.NoError(t, err)

		stored, err := store.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.IsClassificationCorrect)
		assert.True(t, *stored.IsClassificationCorrect)
	})

	t.Run("记录不存在返回NotFound且不创建记录", func(t *testing.T) {
		err := svc.Feedback(ctx, "alice@example.com", "no-such-id", true)
		assert.ErrorIs(t, err, storage.ErrRecordNotFound)

		records, err := svc.History(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("他人记录返回NotFound", func(t *testing.T) {
		err := svc.Feedback(ctx, "mallory@example.com", record.ID, true)
		assert.ErrorIs(t, err, storage.ErrRecordNotFound)

		// 原记录未被篡改
		stored, err := store.GetRecord(ctx, record.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.IsClassificationCorrect)
		assert.True(t, *stored.IsClassificationCorrect)
	})
}
