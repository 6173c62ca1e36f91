package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateMixingWeights(t *testing.T) {
	tests := []struct {
		name          string
		userType      UserType
		symptomScore  float64
		aiConfidence  float64
		expectedFinal float64
	}{
		{"clinician weights symptoms at 0.6", UserTypeClinician, 1.0, 0.0, 0.6},
		{"patient weights symptoms at 0.4", UserTypePatient, 1.0, 0.0, 0.4},
		{"clinician weights ai at 0.4", UserTypeClinician, 0.0, 1.0, 0.4},
		{"patient weights ai at 0.6", UserTypePatient, 0.0, 1.0, 0.6},
		{"unknown role falls back to patient", UserType("caretaker"), 1.0, 0.0, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Aggregate(tt.symptomScore, tt.aiConfidence, tt.userType, SkinToneLight, nil)
			assert.InDelta(t, tt.expectedFinal, a.FinalConfidence, 1e-9)
			assert.InDelta(t, tt.symptomScore, a.SymptomScore, 1e-9)
			assert.InDelta(t, tt.aiConfidence, a.AIConfidence, 1e-9)
		})
	}
}

func TestAggregateBreakdown(t *testing.T) {
	answers := map[string]interface{}{QuestionPigmentation: 2}
	a := Aggregate(0.5, 0.8, UserTypeClinician, SkinToneDark, answers)

	assert.InDelta(t, 0.5, a.Breakdown.BaseSymptoms, 1e-9)
	assert.InDelta(t, 0.6*0.5, a.Breakdown.SymptomContribution, 1e-9)
	assert.InDelta(t, 0.4*0.8, a.Breakdown.AIContribution, 1e-9)
	assert.Equal(t, pigmentationImpactText[SkinToneDark][2], a.Breakdown.PigmentationImpact)
	assert.Equal(t, SkinToneDark, a.SkinToneConsidered)
	assert.Equal(t, UserTypeClinician, a.UserType)
}

func TestPigmentationImpact(t *testing.T) {
	tests := []struct {
		name     string
		answers  map[string]interface{}
		tone     SkinTone
		expected string
	}{
		{"missing answer yields no-data text", map[string]interface{}{}, SkinToneDark, pigmentationNoData},
		{"uncoercible answer yields no-data text", map[string]interface{}{QuestionPigmentation: "some"}, SkinToneLight, pigmentationNoData},
		{"out of range clamps to last entry", map[string]interface{}{QuestionPigmentation: 42}, SkinToneLight, pigmentationImpactText[SkinToneLight][3]},
		{"dark tone table is selected", map[string]interface{}{QuestionPigmentation: 1}, SkinToneDark, pigmentationImpactText[SkinToneDark][1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pigmentationImpact(tt.answers, tt.tone))
		})
	}
}
