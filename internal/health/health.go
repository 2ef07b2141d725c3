package health

import (
	"errors"

	"github.com/heptiolabs/healthcheck"

	"spamguard/backend/internal/classifier"
	"spamguard/backend/internal/storage"
)

// New 创建健康检查处理器
//
// 存活检查关注进程自身（goroutine 数量），就绪检查覆盖
// 存储连接和分类模型的可用性。
func New(store storage.Store, model classifier.Classifier) healthcheck.Handler {
	h := healthcheck.NewHandler()

	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(500))

	if store != nil {
		h.AddReadinessCheck("storage", healthcheck.Check(func() error {
			return store.Health()
		}))
	}

	h.AddReadinessCheck("classifier", healthcheck.Check(func() error {
		if model == nil {
			return errors.New("classification model not loaded")
		}
		return nil
	}))

	return h
}
