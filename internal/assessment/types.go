// Package assessment 实现了评估打分引擎：AI 共识计算、肤色感知的症状打分、
// 置信度聚合以及报告合成。该包是纯计算逻辑，不做任何 I/O，可安全并发调用。
package assessment

import "time"

// UserType 表示发起评估的用户角色。
type UserType string

const (
	// UserTypePatient 是默认角色，面向普通用户的评估流程。
	UserTypePatient UserType = "patient"
	// UserTypeClinician 面向临床人员，症状证据权重更高。
	UserTypeClinician UserType = "clinician"
)

// SkinTone 是一个二值的肤色上下文，仅用于选择权重表。
type SkinTone string

const (
	SkinToneLight SkinTone = "light"
	SkinToneDark  SkinTone = "dark"
)

// 分类器输出的两个枚举标签。
const (
	LabelAD    = "ad"
	LabelNotAD = "not_ad"
)

// 症状问卷的问题键。答案是 0..3 的序数索引。
const (
	QuestionDuration     = "symptom_duration"
	QuestionItching      = "itching_severity"
	QuestionTexture      = "skin_texture"
	QuestionLocation     = "location_pattern"
	QuestionPigmentation = "pigmentation_changes"
)

// Prediction 是分类器对单张图片的规范化预测结果。
// Score 和 Confidence 均在 [0,1] 区间内；Label 只会是 "ad" 或 "not_ad"。
type Prediction struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"model_used"`
}

// ScanResult 表示一张已分类的扫描图片。
// ImageObject 是对象存储中原始图片的键，可能为空（例如客户端直接提交结果时）。
type ScanResult struct {
	Filename    string     `json:"filename"`
	Prediction  Prediction `json:"prediction"`
	ImageObject string     `json:"uploaded_image,omitempty"`
}

// Breakdown 是最终置信度的结构化拆解，会原样嵌入报告与 PDF。
type Breakdown struct {
	BaseSymptoms        float64 `json:"base_symptoms"`
	PigmentationImpact  string  `json:"pigmentation_impact"`
	AIContribution      float64 `json:"ai_contribution"`
	SymptomContribution float64 `json:"symptom_contribution"`
}

// Assessment 是一次评估的聚合结果，创建后不可变。
type Assessment struct {
	FinalConfidence    float64   `json:"final_confidence"`
	SymptomScore       float64   `json:"symptom_score"`
	AIConfidence       float64   `json:"ai_confidence"`
	SkinToneConsidered SkinTone  `json:"skin_tone_considered"`
	UserType           UserType  `json:"user_type"`
	Breakdown          Breakdown `json:"breakdown"`
}

// BreakdownItem 是报告中一条带角色化标签的拆解项。
// 使用切片而不是 map，保证渲染顺序稳定。
type BreakdownItem struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report 是 Assessment 面向角色的叙事投影。
// 临床报告填充 KeyFindings/Recommendations，患者报告填充 WhatThisMeans/NextSteps。
type Report struct {
	ReportType      string          `json:"report_type"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	FinalConfidence float64         `json:"final_confidence"`
	AssessmentLevel string          `json:"assessment_level"`
	Urgency         string          `json:"urgency"`
	Breakdown       []BreakdownItem `json:"breakdown"`
	KeyFindings     []string        `json:"key_findings,omitempty"`
	WhatThisMeans   string          `json:"what_this_means,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	NextSteps       []string        `json:"next_steps,omitempty"`
	ImagesAnalyzed  int             `json:"images_analyzed"`
	SkinTone        SkinTone        `json:"skin_tone"`
	Timestamp       time.Time       `json:"timestamp"`
}

// confidenceOf 将一条预测归一为参与共识计算的置信值。
// 优先使用 score，score 缺失（为零值）时回退到 confidence，两者都缺失记 0。
func confidenceOf(p Prediction) float64 {
	if p.Score > 0 {
		return p.Score
	}
	if p.Confidence > 0 {
		return p.Confidence
	}
	return 0
}

// clampIndex 将序数答案钳制到权重表的有效下标范围内。
func clampIndex(idx, tableLen int) int {
	if idx < 0 {
		return 0
	}
	if idx > tableLen-1 {
		return tableLen - 1
	}
	return idx
}
