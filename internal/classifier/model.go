package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"spamguard/backend/internal/domain"
)

// vectorizerFile 向量化器工件的磁盘格式
//
// Vocabulary 把词项映射到特征下标，与模型参数矩阵的列一一对应。
// 这份映射在训练时生成，加载后只读。
type vectorizerFile struct {
	Lowercase  bool           `json:"lowercase"`
	Vocabulary map[string]int `json:"vocabulary"`
}

// modelFile 多项式朴素贝叶斯模型工件的磁盘格式
//
// Classes 的顺序就是数值类别下标到语义标签的映射，
// 必须与训练时保持一致，否则分类结果会被静默反转。
type modelFile struct {
	Classes        []string    `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
}

// Model 从磁盘工件加载的朴素贝叶斯文本分类器
//
// 所有字段在 Load 之后只读，并发 Classify 调用无需加锁。
type Model struct {
	lowercase      bool
	vocabulary     map[string]int
	labels         []domain.Label
	classLogPrior  []float64
	featureLogProb [][]float64
}

// Load 从向量化器和模型两份 JSON 工件构建分类器
//
// 参数:
//   - vectorizerPath: 向量化器文件路径
//   - modelPath: 模型参数文件路径
//
// 返回值:
//   - *Model: 加载成功的分类器
//   - error: 文件缺失、JSON 无效或参数维度不一致时返回错误
func Load(vectorizerPath, modelPath string) (*Model, error) {
	var vf vectorizerFile
	if err := readJSON(vectorizerPath, &vf); err != nil {
		return nil, fmt.Errorf("failed to load vectorizer: %w", err)
	}
	if len(vf.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer %s has an empty vocabulary", vectorizerPath)
	}

	var mf modelFile
	if err := readJSON(modelPath, &mf); err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	if len(mf.Classes) < 2 {
		return nil, fmt.Errorf("model %s must define at least two classes", modelPath)
	}
	if len(mf.ClassLogPrior) != len(mf.Classes) {
		return nil, fmt.Errorf("model %s: class_log_prior has %d entries for %d classes",
			modelPath, len(mf.ClassLogPrior), len(mf.Classes))
	}
	if len(mf.FeatureLogProb) != len(mf.Classes) {
		return nil, fmt.Errorf("model %s: feature_log_prob has %d rows for %d classes",
			modelPath, len(mf.FeatureLogProb), len(mf.Classes))
	}

	labels := make([]domain.Label, len(mf.Classes))
	for i, class := range mf.Classes {
		label := domain.Label(class)
		if !label.Valid() {
			return nil, fmt.Errorf("model %s: unknown class %q", modelPath, class)
		}
		labels[i] = label
	}

	vocabSize := len(vf.Vocabulary)
	for i, row := range mf.FeatureLogProb {
		if len(row) != vocabSize {
			return nil, fmt.Errorf("model %s: feature_log_prob row %d has %d features, vocabulary has %d",
				modelPath, i, len(row), vocabSize)
		}
	}

	return &Model{
		lowercase:      vf.Lowercase,
		vocabulary:     vf.Vocabulary,
		labels:         labels,
		classLogPrior:  mf.ClassLogPrior,
		featureLogProb: mf.FeatureLogProb,
	}, nil
}

// Classify 对文本执行分类
//
// 流程: 分词 -> 词表计数 -> 各类别对数后验 -> softmax。
// 词表外的词项被忽略，与训练端的向量化行为一致。
func (m *Model) Classify(text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	counts := m.vectorize(text)

	// 各类别的对数联合概率
	scores := make([]float64, len(m.labels))
	for c := range m.labels {
		score := m.classLogPrior[c]
		for idx, count := range counts {
			score += float64(count) * m.featureLogProb[c][idx]
		}
		scores[c] = score
	}

	// log-sum-exp 归一化，数值稳定地得到后验概率
	maxScore := scores[0]
	best := 0
	for c, score := range scores {
		if score > maxScore {
			maxScore = score
			best = c
		}
	}
	var sum float64
	for _, score := range scores {
		sum += math.Exp(score - maxScore)
	}
	confidence := 1.0 / sum

	return &Result{
		Label:      m.labels[best],
		Confidence: confidence,
	}, nil
}

// Labels 返回模型的标签表（按类别下标顺序）
func (m *Model) Labels() []domain.Label {
	out := make([]domain.Label, len(m.labels))
	copy(out, m.labels)
	return out
}

// vectorize 将文本转换为词表下标 -> 出现次数的稀疏计数
func (m *Model) vectorize(text string) map[int]int {
	if m.lowercase {
		text = strings.ToLower(text)
	}

	counts := make(map[int]int)
	for _, token := range tokenize(text) {
		if idx, ok := m.vocabulary[token]; ok {
			counts[idx]++
		}
	}
	return counts
}

// tokenize 按字母数字序列切分文本
func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// readJSON 读取并反序列化一个 JSON 文件
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}
