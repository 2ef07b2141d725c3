package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spamguard/backend/internal/identity"
	"spamguard/backend/internal/storage/memory"
)

func TestProvider_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("注册成功写入用户", func(t *testing.T) {
		store := memory.NewStore()
		provider := New(store)

		ident, err := provider.Register(ctx, "Alice@Example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", ident.Email)
		assert.NotEmpty(t, ident.Subject)

		user, err := store.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "password123", user.PasswordHash)
	})

	t.Run("重复注册返回ErrEmailExists", func(t *testing.T) {
		store := memory.NewStore()
		provider := New(store)

		_, err := provider.Register(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		_, err = provider.Register(ctx, "ALICE@example.com", "password456")
		assert.ErrorIs(t, err, identity.ErrEmailExists)
	})

	t.Run("非法邮箱返回ErrInvalidEmail", func(t *testing.T) {
		provider := New(memory.NewStore())

		_, err := provider.Register(ctx, "nope", "password123")
		assert.ErrorIs(t, err, identity.ErrInvalidEmail)
	})

	t.Run("短密码返回ErrWeakPassword", func(t *testing.T) {
		provider := New(memory.NewStore())

		_, err := provider.Register(ctx, "alice@example.com", "123")
		assert.ErrorIs(t, err, identity.ErrWeakPassword)
	})
}

func TestProvider_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("正确凭证认证成功", func(t *testing.T) {
		store := memory.NewStore()
		provider := New(store)
		_, err := provider.Register(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		ident, err := provider.Authenticate(ctx, "alice@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", ident.Email)
	})

	t.Run("错误密码返回ErrInvalidCredentials", func(t *testing.T) {
		store := memory.NewStore()
		provider := New(store)
		_, err := provider.Register(ctx, "alice@example.com", "password123")
		require.NoError(t, err)

		_, err = provider.Authenticate(ctx, "alice@example.com", "wrongpassword")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("未注册用户返回ErrInvalidCredentials", func(t *testing.T) {
		provider := New(memory.NewStore())

		_, err := provider.Authenticate(ctx, "ghost@example.com", "password123")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})
}
