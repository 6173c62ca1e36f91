package assessment

// 角色相关的混合权重：临床人员更信任症状证据，患者流程更信任影像模型。
const (
	clinicianSymptomWeight = 0.6
	clinicianAIWeight      = 0.4
	patientSymptomWeight   = 0.4
	patientAIWeight        = 0.6
)

// pigmentationImpact 的人类可读描述表，按钳制后的色素沉着严重度索引。
var pigmentationImpactText = map[SkinTone][]string{
	SkinToneLight: {
		"No visible pigmentation changes reported",
		"Slight pigmentation changes, low diagnostic weight on lighter skin",
		"Moderate pigmentation changes observed",
		"Persistent pigmentation changes present",
	},
	SkinToneDark: {
		"No pigmentation changes reported",
		"Mild post-inflammatory changes, common early sign on darker skin",
		"Pigmentation changes consistent with inflammation on darker skin",
		"Marked persistent pigmentation changes, strong indicator on darker skin",
	},
}

const pigmentationNoData = "No pigmentation data provided"

// Aggregate 将症状得分与 AI 共识按角色权重合成最终置信度，并生成结构化拆解。
// 输入得分均应在 [0,1] 内；未知角色按患者处理。
func Aggregate(symptomScore, aiConfidence float64, userType UserType, tone SkinTone, answers map[string]interface{}) Assessment {
	symptomWeight, aiWeight := patientSymptomWeight, patientAIWeight
	if userType == UserTypeClinician {
		symptomWeight, aiWeight = clinicianSymptomWeight, clinicianAIWeight
	} else {
		userType = UserTypePatient
	}

	final := symptomWeight*symptomScore + aiWeight*aiConfidence

	return Assessment{
		FinalConfidence:    final,
		SymptomScore:       symptomScore,
		AIConfidence:       aiConfidence,
		SkinToneConsidered: tone,
		UserType:           userType,
		Breakdown: Breakdown{
			BaseSymptoms:        symptomScore,
			PigmentationImpact:  pigmentationImpact(answers, tone),
			AIContribution:      aiWeight * aiConfidence,
			SymptomContribution: symptomWeight * symptomScore,
		},
	}
}

// pigmentationImpact 根据色素沉着答案选取描述文本。
// 答案缺失或不可转换时返回固定的无数据提示；越界索引钳制到表尾。
func pigmentationImpact(answers map[string]interface{}, tone SkinTone) string {
	idx, ok := answerIndex(answers, QuestionPigmentation)
	if !ok {
		return pigmentationNoData
	}
	table, known := pigmentationImpactText[tone]
	if !known {
		table = pigmentationImpactText[SkinToneLight]
	}
	return table[clampIndex(idx, len(table))]
}
