package classifier

import (
	"errors"

	"spamguard/backend/internal/domain"
)

var (
	// ErrEmptyText 待分类文本为空
	ErrEmptyText = errors.New("text is empty")
	// ErrModelUnavailable 模型或向量化器未能加载
	ErrModelUnavailable = errors.New("classifier model unavailable")
)

// Result 单次分类的输出
type Result struct {
	Label      domain.Label `json:"label"`
	Confidence float64      `json:"confidence"` // 最大后验概率，取值 [0,1]
}

// Classifier 文本分类器接口
//
// 分类是纯内存计算，没有外部 I/O，调用方无需传入 context。
// 实现必须支持并发调用。
type Classifier interface {
	Classify(text string) (*Result, error)
}
