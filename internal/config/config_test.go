package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// 保存原始环境变量
	originalEnvs := make(map[string]string)
	envKeys := []string{
		"SPAMGUARD_JWT_SECRET",
		"SPAMGUARD_SERVER_HOST",
		"SPAMGUARD_SERVER_PORT",
		"SPAMGUARD_IDENTITY_MODE",
		"SPAMGUARD_IDENTITY_BASE_URL",
		"SPAMGUARD_IDENTITY_SERVICE_KEY",
		"SPAMGUARD_CLASSIFIER_MODEL_PATH",
		"SPAMGUARD_CLASSIFIER_VECTORIZER_PATH",
		"SPAMGUARD_LOG_LEVEL",
		"SPAMGUARD_LOG_DEVELOPMENT",
	}

	for _, key := range envKeys {
		originalEnvs[key] = os.Getenv(key)
	}

	// 测试后恢复环境变量
	defer func() {
		for key, value := range originalEnvs {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	t.Run("加载默认配置成功", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}

		os.Setenv("SPAMGUARD_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")
		os.Setenv("SPAMGUARD_IDENTITY_MODE", "local")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "./models/model.json", cfg.Classifier.ModelPath)
		assert.Equal(t, "./models/vectorizer.json", cfg.Classifier.VectorizerPath)
		assert.Equal(t, time.Hour, cfg.Classifier.CacheTTL)
		assert.Equal(t, IdentityModeLocal, cfg.Identity.Mode)
		assert.False(t, cfg.SMTP.Enabled)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)
		assert.Equal(t, "spamguard", cfg.JWT.Issuer)
		assert.Equal(t, time.Hour, cfg.JWT.AccessExpiry)
	})

	t.Run("缺少JWT密钥时返回错误", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("SPAMGUARD_IDENTITY_MODE", "local")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWT secret")
	})

	t.Run("JWT密钥过短时返回错误", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("SPAMGUARD_IDENTITY_MODE", "local")
		os.Setenv("SPAMGUARD_JWT_SECRET", "short")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 characters")
	})

	t.Run("remote模式缺少身份服务配置时启动失败", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("SPAMGUARD_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")
		os.Setenv("SPAMGUARD_IDENTITY_MODE", "remote")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "identity.base_url")

		os.Setenv("SPAMGUARD_IDENTITY_BASE_URL", "https://identity.example.com")
		_, err = Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "identity.service_key")
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("SPAMGUARD_JWT_SECRET", "custom-jwt-secret-key-32-chars-long-minimum")
		os.Setenv("SPAMGUARD_SERVER_HOST", "127.0.0.1")
		os.Setenv("SPAMGUARD_SERVER_PORT", "9090")
		os.Setenv("SPAMGUARD_IDENTITY_MODE", "remote")
		os.Setenv("SPAMGUARD_IDENTITY_BASE_URL", "https://identity.example.com/")
		os.Setenv("SPAMGUARD_IDENTITY_SERVICE_KEY", "service-key-123")
		os.Setenv("SPAMGUARD_CLASSIFIER_MODEL_PATH", "/etc/spamguard/model.json")
		os.Setenv("SPAMGUARD_CLASSIFIER_VECTORIZER_PATH", "/etc/spamguard/vectorizer.json")
		os.Setenv("SPAMGUARD_LOG_LEVEL", "debug")
		os.Setenv("SPAMGUARD_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)
		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, IdentityModeRemote, cfg.Identity.Mode)
		// 末尾斜杠被去除
		assert.Equal(t, "https://identity.example.com", cfg.Identity.BaseURL)
		assert.Equal(t, "service-key-123", cfg.Identity.ServiceKey)
		assert.Equal(t, "/etc/spamguard/model.json", cfg.Classifier.ModelPath)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Development)
	})

	t.Run("无效的身份模式返回错误", func(t *testing.T) {
		for _, key := range envKeys {
			os.Unsetenv(key)
		}
		os.Setenv("SPAMGUARD_JWT_SECRET", "test-secret-key-for-development-32-chars-long-at-least")
		os.Setenv("SPAMGUARD_IDENTITY_MODE", "oauth")

		_, err := Load()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "identity.mode")
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList("a, b"))
	assert.Equal(t, []string{"a"}, parseList("a,,"))
	assert.Empty(t, parseList(""))
}
