package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spamguard/backend/internal/domain"
)

func loadTestModel(t *testing.T) *Model {
	t.Helper()
	model, err := Load("testdata/vectorizer.json", "testdata/model.json")
	require.NoError(t, err)
	return model
}

func TestLoad(t *testing.T) {
	model := loadTestModel(t)
	assert.Equal(t, []domain.Label{domain.LabelHam, domain.LabelSpam}, model.Labels())
}

func TestLoad_MissingFiles(t *testing.T) {
	_, err := Load("testdata/nope.json", "testdata/model.json")
	assert.ErrorIs(t, err, ErrModelUnavailable)

	_, err = Load("testdata/vectorizer.json", "testdata/nope.json")
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoad_InvalidArtifacts(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	vectorizer := write("vectorizer.json", `{"lowercase":true,"vocabulary":{"free":0,"money":1}}`)

	tests := []struct {
		name  string
		model string
	}{
		{"invalid JSON", `not json`},
		{"single class", `{"classes":["spam"],"class_log_prior":[0],"feature_log_prob":[[0,0]]}`},
		{"unknown class", `{"classes":["ham","junk"],"class_log_prior":[0,0],"feature_log_prob":[[0,0],[0,0]]}`},
		{"prior size mismatch", `{"classes":["ham","spam"],"class_log_prior":[0],"feature_log_prob":[[0,0],[0,0]]}`},
		{"feature row mismatch", `{"classes":["ham","spam"],"class_log_prior":[0,0],"feature_log_prob":[[0,0]]}`},
		{"feature column mismatch", `{"classes":["ham","spam"],"class_log_prior":[0,0],"feature_log_prob":[[0],[0]]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modelPath := write("model.json", tt.model)
			_, err := Load(vectorizer, modelPath)
			assert.Error(t, err)
		})
	}

	t.Run("empty vocabulary", func(t *testing.T) {
		emptyVec := write("empty_vec.json", `{"lowercase":true,"vocabulary":{}}`)
		model := write("model.json", `{"classes":["ham","spam"],"class_log_prior":[0,0],"feature_log_prob":[[],[]]}`)
		_, err := Load(emptyVec, model)
		assert.Error(t, err)
	})
}

func TestModel_Classify(t *testing.T) {
	model := loadTestModel(t)

	tests := []struct {
		name string
		text string
		want domain.Label
	}{
		{"obvious spam", "Free money now!!!", domain.LabelSpam},
		{"spam with casing", "CLICK here to claim your PRIZE, WINNER", domain.LabelSpam},
		{"obvious ham", "lunch meeting tomorrow to discuss the report", domain.LabelHam},
		{"ham with punctuation", "Meeting: tomorrow. Report due.", domain.LabelHam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := model.Classify(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Label)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
		})
	}
}

func TestModel_Classify_AlwaysValidOutput(t *testing.T) {
	model := loadTestModel(t)

	// 词表外文本也必须返回合法的标签和置信度
	inputs := []string{
		"completely unrelated words",
		"xyzzy plugh 12345",
		"免费 赢取 大奖",
	}

	for _, text := range inputs {
		result, err := model.Classify(text)
		require.NoError(t, err)
		assert.True(t, result.Label.Valid(), "label %q for input %q", result.Label, text)
		assert.GreaterOrEqual(t, result.Confidence, 0.0)
		assert.LessOrEqual(t, result.Confidence, 1.0)
	}
}

func TestModel_Classify_EmptyText(t *testing.T) {
	model := loadTestModel(t)

	_, err := model.Classify("")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = model.Classify("   \n\t")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestModel_Classify_Deterministic(t *testing.T) {
	model := loadTestModel(t)

	first, err := model.Classify("free prize winner")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := model.Classify("free prize winner")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"free", "money", "now"}, tokenize("free money, now!!!"))
	assert.Empty(t, tokenize("!!! ... ---"))
}
