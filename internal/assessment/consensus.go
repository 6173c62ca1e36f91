package assessment

import "strings"

// Consensus 将一组预测归约为 [0,1] 内的单一 AI 置信度。
// 每条预测的权重为：label == "ad" 时取其置信值，否则取 (1 - 置信值)；
// 结果是 Σ(conf·weight)/Σ(weight)。远离 0.5 的自信预测会主导平均值，
// 形成按确定性加权的软多数投票。空输入或总权重为 0 时返回 0.0，从不报错。
func Consensus(results []ScanResult) float64 {
	if len(results) == 0 {
		return 0.0
	}

	var weightedSum, totalWeight float64
	for _, r := range results {
		conf := confidenceOf(r.Prediction)
		weight := conf
		if r.Prediction.Label != LabelAD {
			weight = 1 - conf
		}
		weightedSum += conf * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// InferSkinTone 根据各预测使用的模型名推断肤色上下文：
// 对 model_used 做子串匹配，"dark" 记一票深色，"light"/"general" 记一票浅色，
// 多数获胜，平票判为浅色。
func InferSkinTone(results []ScanResult) SkinTone {
	var dark, light int
	for _, r := range results {
		m := strings.ToLower(r.Prediction.ModelUsed)
		switch {
		case strings.Contains(m, "dark"):
			dark++
		case strings.Contains(m, "light"), strings.Contains(m, "general"):
			light++
		}
	}
	if dark > light {
		return SkinToneDark
	}
	return SkinToneLight
}

// ResolveSkinTone 优先采用显式提示（"light"/"dark"），否则回退到模型名推断。
func ResolveSkinTone(hint string, results []ScanResult) SkinTone {
	switch SkinTone(strings.ToLower(strings.TrimSpace(hint))) {
	case SkinToneLight:
		return SkinToneLight
	case SkinToneDark:
		return SkinToneDark
	}
	return InferSkinTone(results)
}
