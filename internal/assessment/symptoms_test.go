package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSymptomScore(t *testing.T) {
	tests := []struct {
		name     string
		answers  map[string]interface{}
		tone     SkinTone
		expected float64
	}{
		{
			name:     "no answers returns zero",
			answers:  map[string]interface{}{},
			tone:     SkinToneLight,
			expected: 0.0,
		},
		{
			name:     "unknown question keys are ignored",
			answers:  map[string]interface{}{"unknown_q": 3},
			tone:     SkinToneLight,
			expected: 0.0,
		},
		{
			name:     "single base question",
			answers:  map[string]interface{}{QuestionItching: 3},
			tone:     SkinToneLight,
			expected: 0.9,
		},
		{
			name:     "pigmentation severity 3 on dark skin",
			answers:  map[string]interface{}{QuestionPigmentation: 3},
			tone:     SkinToneDark,
			expected: 0.8,
		},
		{
			name:     "pigmentation severity 3 on light skin",
			answers:  map[string]interface{}{QuestionPigmentation: 3},
			tone:     SkinToneLight,
			expected: 0.3,
		},
		{
			name:     "out of range index clamps to table edge",
			answers:  map[string]interface{}{QuestionPigmentation: 99},
			tone:     SkinToneDark,
			expected: 0.8,
		},
		{
			name:     "negative index clamps to zero",
			answers:  map[string]interface{}{QuestionDuration: -5},
			tone:     SkinToneLight,
			expected: 0.1,
		},
		{
			name: "mean over all contributions",
			answers: map[string]interface{}{
				QuestionDuration: 2, // 0.6
				QuestionItching:  3, // 0.9
			},
			tone:     SkinToneLight,
			expected: 0.75,
		},
		{
			name: "uncoercible answers are silently skipped",
			answers: map[string]interface{}{
				QuestionDuration: "often", // 不可转换，不计入分母
				QuestionItching:  3,
			},
			tone:     SkinToneLight,
			expected: 0.9,
		},
		{
			name: "json decoded floats and numeric strings coerce",
			answers: map[string]interface{}{
				QuestionDuration: float64(2), // 0.6
				QuestionItching:  " 3 ",      // 0.9
			},
			tone:     SkinToneLight,
			expected: 0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, SymptomScore(tt.answers, tt.tone), 1e-9)
		})
	}
}

// 得分必须与 map 的遍历顺序无关：多次计算结果一致。
func TestSymptomScoreOrderInvariant(t *testing.T) {
	answers := map[string]interface{}{
		QuestionDuration:     3,
		QuestionItching:      1,
		QuestionTexture:      2,
		QuestionLocation:     1,
		QuestionPigmentation: 2,
	}

	first := SymptomScore(answers, SkinToneDark)
	for i := 0; i < 20; i++ {
		assert.InDelta(t, first, SymptomScore(answers, SkinToneDark), 1e-12)
	}
}
