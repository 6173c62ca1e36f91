package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsensus(t *testing.T) {
	tests := []struct {
		name     string
		results  []ScanResult
		expected float64
	}{
		{
			name:     "empty input returns zero",
			results:  nil,
			expected: 0.0,
		},
		{
			name: "single ad prediction reduces to its score",
			results: []ScanResult{
				{Prediction: Prediction{Label: LabelAD, Score: 0.9}},
			},
			expected: 0.9,
		},
		{
			name: "single not_ad prediction keeps its confidence value",
			results: []ScanResult{
				{Prediction: Prediction{Label: LabelNotAD, Score: 0.2}},
			},
			// weight = 1-0.2 = 0.8, consensus = 0.2*0.8/0.8
			expected: 0.2,
		},
		{
			name: "score absent falls back to confidence",
			results: []ScanResult{
				{Prediction: Prediction{Label: LabelAD, Confidence: 0.7}},
			},
			expected: 0.7,
		},
		{
			name: "confident predictions dominate the average",
			results: []ScanResult{
				{Prediction: Prediction{Label: LabelAD, Score: 0.8}},
				{Prediction: Prediction{Label: LabelNotAD, Score: 0.6}},
			},
			// (0.8*0.8 + 0.6*0.4) / (0.8+0.4)
			expected: 0.88 / 1.2,
		},
		{
			name: "zero total weight returns zero",
			results: []ScanResult{
				{Prediction: Prediction{Label: LabelNotAD, Score: 1.0}},
			},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Consensus(tt.results), 1e-9)
		})
	}
}

func TestInferSkinTone(t *testing.T) {
	tests := []struct {
		name     string
		models   []string
		expected SkinTone
	}{
		{"no results defaults to light", nil, SkinToneLight},
		{"dark majority", []string{"dark skin model", "dark skin model", "general model"}, SkinToneDark},
		{"light majority", []string{"light skin model", "general model", "dark skin model"}, SkinToneLight},
		{"tie resolves to light", []string{"dark skin model", "general model"}, SkinToneLight},
		{"unrecognized model names are not counted", []string{"mystery-v2", "dark skin model"}, SkinToneDark},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]ScanResult, 0, len(tt.models))
			for _, m := range tt.models {
				results = append(results, ScanResult{Prediction: Prediction{ModelUsed: m}})
			}
			assert.Equal(t, tt.expected, InferSkinTone(results))
		})
	}
}

func TestResolveSkinTone(t *testing.T) {
	darkScan := []ScanResult{{Prediction: Prediction{ModelUsed: "dark skin model"}}}

	assert.Equal(t, SkinToneDark, ResolveSkinTone("dark", nil))
	assert.Equal(t, SkinToneLight, ResolveSkinTone(" Light ", darkScan))
	// 无效提示回退到模型名推断
	assert.Equal(t, SkinToneDark, ResolveSkinTone("medium", darkScan))
	assert.Equal(t, SkinToneDark, ResolveSkinTone("", darkScan))
}
