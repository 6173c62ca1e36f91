package classifier

import (
	"encoding/json"
	"testing"

	"adscan-go/internal/assessment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected assessment.Prediction
		wantErr  bool
	}{
		{
			name: "full object",
			raw:  `{"label":"ad","score":0.82,"confidence":0.8,"model_used":"dark skin model"}`,
			expected: assessment.Prediction{
				Label: "ad", Score: 0.82, Confidence: 0.8, ModelUsed: "dark skin model",
			},
		},
		{
			name: "object without model_used keeps the strategy model",
			raw:  `{"label":"not_ad","score":0.2}`,
			expected: assessment.Prediction{
				Label: "not_ad", Score: 0.2, ModelUsed: "general model",
			},
		},
		{
			name: "bare probability above threshold",
			raw:  `0.9`,
			expected: assessment.Prediction{
				Label: "ad", Score: 0.9, Confidence: 0.9, ModelUsed: "general model",
			},
		},
		{
			name: "bare probability below threshold",
			raw:  `0.3`,
			expected: assessment.Prediction{
				Label: "not_ad", Score: 0.3, Confidence: 0.3, ModelUsed: "general model",
			},
		},
		{
			name: "single element array unwraps",
			raw:  `[{"label":"ad","score":0.7}]`,
			expected: assessment.Prediction{
				Label: "ad", Score: 0.7, ModelUsed: "general model",
			},
		},
		{
			name: "out of range score clamps",
			raw:  `{"label":"ad","score":1.7}`,
			expected: assessment.Prediction{
				Label: "ad", Score: 1.0, ModelUsed: "general model",
			},
		},
		{
			name: "object infers label from probability",
			raw:  `{"score":0.8}`,
			expected: assessment.Prediction{
				Label: "ad", Score: 0.8, ModelUsed: "general model",
			},
		},
		{name: "unknown label rejected", raw: `{"label":"maybe","score":0.5}`, wantErr: true},
		{name: "empty array rejected", raw: `[]`, wantErr: true},
		{name: "string shape rejected", raw: `"positive"`, wantErr: true},
		{name: "garbage rejected", raw: `{{{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := normalize(json.RawMessage(tt.raw), "general model")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pred)
		})
	}
}

func TestNeutralPrediction(t *testing.T) {
	pred := neutralPrediction("general model")
	assert.Equal(t, assessment.LabelNotAD, pred.Label)
	assert.Equal(t, 0.5, pred.Score)
	assert.Equal(t, 0.5, pred.Confidence)
}
