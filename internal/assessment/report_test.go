package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssessmentLevelBoundaries(t *testing.T) {
	tests := []struct {
		final   float64
		level   string
		urgency string
	}{
		{0.7, "HIGH", "Strong evidence"},
		{0.699999, "MODERATE", "Suggestive"},
		{0.4, "MODERATE", "Suggestive"},
		{0.399999, "LOW", "Limited evidence"},
		{1.0, "HIGH", "Strong evidence"},
		{0.0, "LOW", "Limited evidence"},
	}

	for _, tt := range tests {
		level, urgency := assessmentLevel(tt.final)
		assert.Equalf(t, tt.level, level, "final=%v", tt.final)
		assert.Equalf(t, tt.urgency, urgency, "final=%v", tt.final)
	}
}

func TestBuildInsightsAdditiveRules(t *testing.T) {
	answers := map[string]interface{}{
		QuestionPigmentation: 2,
		QuestionLocation:     1,
		QuestionDuration:     3,
		QuestionItching:      2,
	}

	insights := buildInsights(answers, SkinToneDark)
	// 四条规则全部命中，顺序固定：色素沉着、屈侧分布、病程、瘙痒
	require.Len(t, insights, 4)
	assert.Contains(t, insights[0], "darker skin")
	assert.Contains(t, insights[1], "Flexural")
	assert.Contains(t, insights[2], "chronic")
	assert.Contains(t, insights[3], "itching")

	// 同样的答案在浅色肤色下色素沉着要点措辞不同
	lightInsights := buildInsights(answers, SkinToneLight)
	require.Len(t, lightInsights, 4)
	assert.NotEqual(t, insights[0], lightInsights[0])
}

func TestBuildInsightsNoRulesFire(t *testing.T) {
	answers := map[string]interface{}{
		QuestionPigmentation: 0,
		QuestionLocation:     0,
		QuestionDuration:     1,
		QuestionItching:      0,
	}
	assert.Empty(t, buildInsights(answers, SkinToneLight))
}

func TestSynthesizeRoleProjection(t *testing.T) {
	a := Aggregate(0.75, 0.73, UserTypeClinician, SkinToneLight, nil)
	results := []ScanResult{{Filename: "a.jpg"}, {Filename: "b.jpg"}}

	clinical := Synthesize(a, nil, results, UserTypeClinician)
	assert.Equal(t, "clinical_assessment", clinical.ReportType)
	assert.NotEmpty(t, clinical.Recommendations)
	assert.Empty(t, clinical.NextSteps)
	assert.Empty(t, clinical.WhatThisMeans)
	assert.Equal(t, 2, clinical.ImagesAnalyzed)
	assert.False(t, clinical.Timestamp.IsZero())

	patient := Synthesize(a, nil, results, UserTypePatient)
	assert.Equal(t, "patient_assessment", patient.ReportType)
	assert.NotEmpty(t, patient.NextSteps)
	assert.NotEmpty(t, patient.WhatThisMeans)
	assert.Empty(t, patient.Recommendations)
	assert.Empty(t, patient.KeyFindings)
}

// 端到端场景：两张扫描图 + 两个症状答案，无显式肤色提示。
func TestAssessEndToEnd(t *testing.T) {
	results := []ScanResult{
		{Filename: "scan1.jpg", Prediction: Prediction{Label: LabelAD, Score: 0.8, ModelUsed: "general model"}},
		{Filename: "scan2.jpg", Prediction: Prediction{Label: LabelNotAD, Score: 0.6, ModelUsed: "dark skin model"}},
	}
	answers := map[string]interface{}{
		QuestionDuration: 2,
		QuestionItching:  3,
	}

	report, agg := Assess(answers, results, UserTypePatient, "")

	// 一票 dark 对一票 general 为平票，平票判浅色
	assert.Equal(t, SkinToneLight, agg.SkinToneConsidered)
	assert.InDelta(t, 0.75, agg.SymptomScore, 1e-9)
	assert.InDelta(t, 0.88/1.2, agg.AIConfidence, 1e-9)
	assert.InDelta(t, 0.4*0.75+0.6*(0.88/1.2), agg.FinalConfidence, 1e-9)

	assert.Equal(t, "HIGH", report.AssessmentLevel)
	assert.Equal(t, "Strong evidence", report.Urgency)
	assert.Equal(t, 2, report.ImagesAnalyzed)
	assert.InDelta(t, agg.FinalConfidence, report.FinalConfidence, 1e-9)
}
