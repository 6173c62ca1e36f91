package assessment

// Assess 是评估引擎对外的单一入口：解析肤色上下文、计算症状得分与
// AI 共识、聚合置信度并合成报告。纯函数，除时间戳外对相同输入产生相同输出。
func Assess(answers map[string]interface{}, results []ScanResult, userType UserType, toneHint string) (Report, Assessment) {
	tone := ResolveSkinTone(toneHint, results)
	symptomScore := SymptomScore(answers, tone)
	aiConfidence := Consensus(results)
	agg := Aggregate(symptomScore, aiConfidence, userType, tone, answers)
	report := Synthesize(agg, answers, results, userType)
	return report, agg
}
