package assessment

import (
	"strconv"
	"strings"
)

// baseWeights 是与肤色无关的基础权重表，按答案序数（0..3）索引。
var baseWeights = map[string][]float64{
	QuestionDuration: {0.1, 0.3, 0.6, 0.8},
	QuestionItching:  {0.0, 0.2, 0.5, 0.9},
	QuestionTexture:  {0.0, 0.2, 0.5, 0.8},
	QuestionLocation: {0.2, 0.7, 0.5, 0.6},
}

// pigmentationWeights 是色素沉着问题的肤色相关权重表。
// 同等严重度在深色皮肤上的证据权重明显更高。
var pigmentationWeights = map[SkinTone][]float64{
	SkinToneLight: {0.0, 0.1, 0.2, 0.3},
	SkinToneDark:  {0.0, 0.3, 0.6, 0.8},
}

// SymptomScore 将症状问卷答案映射为 [0,1] 的标量。
// 未知问题键被忽略；无法转成整数的答案被静默跳过，不计入分母；
// 序数越界时钳制到表边界。最终得分是全部贡献值的算术平均，
// 与答案的遍历顺序无关。没有任何答案命中已知问题时返回 0.0。
func SymptomScore(answers map[string]interface{}, tone SkinTone) float64 {
	var sum float64
	var count int

	for key, raw := range answers {
		idx, ok := coerceIndex(raw)
		if !ok {
			continue
		}

		if table, known := baseWeights[key]; known {
			sum += table[clampIndex(idx, len(table))]
			count++
			continue
		}

		if key == QuestionPigmentation {
			table, known := pigmentationWeights[tone]
			if !known {
				table = pigmentationWeights[SkinToneLight]
			}
			sum += table[clampIndex(idx, len(table))]
			count++
		}
	}

	if count == 0 {
		return 0.0
	}
	return sum / float64(count)
}

// coerceIndex 尝试把任意 JSON 解码出的答案转成序数索引。
// 解码后的数字是 float64，前端偶尔会提交字符串形式的数字。
func coerceIndex(raw interface{}) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// answerIndex 读取某个问题的序数答案，答案缺失或不可转换时 ok 为 false。
func answerIndex(answers map[string]interface{}, key string) (int, bool) {
	raw, present := answers[key]
	if !present {
		return 0, false
	}
	return coerceIndex(raw)
}
