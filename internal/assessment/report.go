package assessment

import (
	"fmt"
	"time"
)

// 评估等级的边界含下界：final >= 0.7 为 HIGH，>= 0.4 为 MODERATE，其余 LOW。
func assessmentLevel(final float64) (level, urgency string) {
	switch {
	case final >= 0.7:
		return "HIGH", "Strong evidence"
	case final >= 0.4:
		return "MODERATE", "Suggestive"
	default:
		return "LOW", "Limited evidence"
	}
}

// 临床报告的固定建议列表。
var clinicianRecommendations = []string{
	"Correlate with full dermatological examination and patient history",
	"Consider SCORAD or EASI scoring for severity grading",
	"Evaluate for secondary infection if oozing or crusting is present",
	"Review topical therapy options appropriate to the affected sites",
}

// 患者报告的固定后续步骤列表。
var patientNextSteps = []string{
	"Book an appointment with a dermatologist to confirm these findings",
	"Keep the affected skin moisturized and avoid known irritants",
	"Take photos of the affected areas to track changes over time",
	"Avoid scratching; keep a note of anything that triggers flare-ups",
}

// Synthesize 将 Assessment 确定性地投影为面向角色的报告结构。
// 临床报告暴露 key_findings/recommendations，患者报告暴露
// what_this_means/next_steps；两者都包含等级、拆解、图片数量与生成时间。
func Synthesize(a Assessment, answers map[string]interface{}, results []ScanResult, userType UserType) Report {
	level, urgency := assessmentLevel(a.FinalConfidence)
	insights := buildInsights(answers, a.SkinToneConsidered)

	rep := Report{
		FinalConfidence: a.FinalConfidence,
		AssessmentLevel: level,
		Urgency:         urgency,
		ImagesAnalyzed:  len(results),
		SkinTone:        a.SkinToneConsidered,
		Timestamp:       time.Now(),
	}

	if userType == UserTypeClinician {
		rep.ReportType = "clinical_assessment"
		rep.Title = "Clinical Assessment Report: Atopic Dermatitis Screening"
		rep.Summary = fmt.Sprintf(
			"Combined assessment yields %.0f%% confidence (%s). Symptom evidence weighted at 60%%, imaging consensus at 40%%. Skin tone context: %s.",
			a.FinalConfidence*100, level, a.SkinToneConsidered)
		rep.Breakdown = []BreakdownItem{
			{Label: "Symptom evidence (60%)", Value: fmt.Sprintf("%.2f", a.Breakdown.SymptomContribution)},
			{Label: "Imaging consensus (40%)", Value: fmt.Sprintf("%.2f", a.Breakdown.AIContribution)},
			{Label: "Raw symptom score", Value: fmt.Sprintf("%.2f", a.Breakdown.BaseSymptoms)},
			{Label: "Pigmentation assessment", Value: a.Breakdown.PigmentationImpact},
		}
		rep.KeyFindings = insights
		rep.Recommendations = clinicianRecommendations
		return rep
	}

	rep.ReportType = "patient_assessment"
	rep.Title = "Your Skin Assessment Results"
	rep.Summary = fmt.Sprintf(
		"Based on your answers and %d analyzed image(s), the overall confidence is %.0f%%.",
		len(results), a.FinalConfidence*100)
	rep.Breakdown = []BreakdownItem{
		{Label: "Your symptoms", Value: fmt.Sprintf("%.2f", a.Breakdown.BaseSymptoms)},
		{Label: "Image analysis", Value: fmt.Sprintf("%.2f", a.AIConfidence)},
		{Label: "Skin color changes", Value: a.Breakdown.PigmentationImpact},
	}
	rep.WhatThisMeans = patientNarrative(level)
	rep.NextSteps = patientNextSteps
	return rep
}

// patientNarrative 返回等级对应的面向患者的解释文字。
func patientNarrative(level string) string {
	switch level {
	case "HIGH":
		return "Your results show strong signs that are consistent with atopic dermatitis (eczema). This is not a diagnosis, but it is worth discussing with a doctor soon."
	case "MODERATE":
		return "Your results show some signs that could be related to atopic dermatitis (eczema). A skin specialist can help clarify what is going on."
	default:
		return "Your results show only limited signs of atopic dermatitis. Keep an eye on your skin and seek advice if symptoms get worse."
	}
}

// buildInsights 依据具体答案与肤色上下文构建叙事要点。
// 规则是叠加式的：可同时命中多条，输出顺序固定。
func buildInsights(answers map[string]interface{}, tone SkinTone) []string {
	insights := make([]string, 0, 4)

	if pig, ok := answerIndex(answers, QuestionPigmentation); ok && pig >= 1 {
		switch {
		case pig >= 2 && tone == SkinToneDark:
			insights = append(insights, "Persistent pigmentation changes reported; on darker skin these are a common and significant presentation of atopic dermatitis.")
		case pig >= 2:
			insights = append(insights, "Notable pigmentation changes reported alongside the inflammatory symptoms.")
		default:
			insights = append(insights, "Mild skin color changes reported in the affected areas.")
		}
	}

	if loc, ok := answerIndex(answers, QuestionLocation); ok && loc == 1 {
		insights = append(insights, "Flexural involvement (elbows, knees, wrists) is a classic distribution pattern for atopic dermatitis.")
	}

	if dur, ok := answerIndex(answers, QuestionDuration); ok && dur >= 2 {
		insights = append(insights, "Symptom duration beyond one month suggests a chronic rather than transient condition.")
	}

	if itch, ok := answerIndex(answers, QuestionItching); ok && itch >= 2 {
		insights = append(insights, "Moderate to severe itching is among the strongest indicators of atopic dermatitis.")
	}

	return insights
}
