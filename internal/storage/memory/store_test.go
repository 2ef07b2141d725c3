package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spamguard/backend/internal/domain"
	"spamguard/backend/internal/storage"
)

func TestStore_Users(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	user := &domain.User{
		ID:        "user-1",
		Email:     "test@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(ctx, user))

	got, err := store.GetUserByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", got.Email)

	// 邮箱查找不区分大小写
	got, err = store.GetUserByEmail(ctx, "TEST@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.ID)

	_, err = store.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	require.NoError(t, store.UpdateLastLogin(ctx, "user-1"))
	got, err = store.GetUserByID(ctx, "user-1")
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)
}

func TestStore_Records(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"rec-1", "rec-2", "rec-3"} {
		record := &domain.ClassificationRecord{
			ID:         id,
			Email:      "test@example.com",
			Message:    "message " + id,
			Label:      domain.LabelSpam,
			Confidence: 0.9,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.CreateRecord(ctx, record))
	}
	require.NoError(t, store.CreateRecord(ctx, &domain.ClassificationRecord{
		ID:        "rec-other",
		Email:     "other@example.com",
		Label:     domain.LabelHam,
		CreatedAt: base,
	}))

	records, err := store.ListRecordsByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	require.Len(t, records, 3)

	// 最新在前
	assert.Equal(t, "rec-3", records[0].ID)
	assert.Equal(t, "rec-2", records[1].ID)
	assert.Equal(t, "rec-1", records[2].ID)

	records, err = store.ListRecordsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_SetRecordFeedback(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRecord(ctx, &domain.ClassificationRecord{
		ID:        "rec-1",
		Email:     "test@example.com",
		Label:     domain.LabelSpam,
		CreatedAt: time.Now(),
	}))

	require.NoError(t, store.SetRecordFeedback(ctx, "rec-1", true))

	got, err := store.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	require.NotNil(t, got.IsClassificationCorrect)
	assert.True(t, *got.IsClassificationCorrect)

	// 未知ID返回错误且不创建新记录
	err = store.SetRecordFeedback(ctx, "rec-missing", false)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
	_, err = store.GetRecord(ctx, "rec-missing")
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateRecord(ctx, &domain.ClassificationRecord{
		ID:        "rec-1",
		Email:     "test@example.com",
		Message:   "original",
		Label:     domain.LabelHam,
		CreatedAt: time.Now(),
	}))

	got, err := store.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	got.Message = "mutated"

	again, err := store.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Message)
}
