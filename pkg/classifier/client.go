// Package classifier provides a client for the external skin-condition
// classification service. All shape normalization and fallback policy for the
// external model lives here; the scoring engine only ever sees the canonical
// assessment.Prediction type.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"adscan-go/internal/assessment"
	"adscan-go/internal/config"
	"adscan-go/pkg/log"
)

// Client defines the interface for the classifier service.
type Client interface {
	// Classify 对单张图片运行分类，tone 用于选择针对肤色优化的模型端点。
	Classify(ctx context.Context, image []byte, filename string, tone assessment.SkinTone) (assessment.Prediction, error)
}

type httpClient struct {
	cfg    config.ClassifierConfig
	client *http.Client
}

// NewClient creates a new classifier client from the config.
func NewClient(cfg config.ClassifierConfig) Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// strategy 是一条命名的模型调用策略，按序尝试，每次失败都带名字记录日志。
type strategy struct {
	name  string
	model string
}

// Classify 按固定顺序尝试各模型策略：肤色专用模型 → 通用模型。
// 传输层全部失败时向调用方返回错误；模型返回了无法解析的结果时
// 在本边界内降级为中性的 0.5 预测（绝不把这种降级泄漏进打分逻辑之外的语义）。
func (c *httpClient) Classify(ctx context.Context, image []byte, filename string, tone assessment.SkinTone) (assessment.Prediction, error) {
	strategies := []strategy{
		{name: "tone-model", model: c.toneModel(tone)},
		{name: "general-model", model: c.cfg.GeneralModel},
	}

	var lastErr error
	for _, s := range strategies {
		if s.model == "" {
			continue
		}
		raw, err := c.predict(ctx, s.model, image, filename)
		if err != nil {
			log.Warnf("[Classifier] 策略 '%s' (model: %s) 调用失败: %v", s.name, s.model, err)
			lastErr = err
			continue
		}

		pred, err := normalize(raw, s.model)
		if err != nil {
			// 适配失败走中性回退：这是分类器边界内部的既定策略
			log.Warnf("[Classifier] 策略 '%s' 返回了无法解析的结果，使用中性回退: %v", s.name, err)
			return neutralPrediction(s.model), nil
		}
		return pred, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no classifier model configured")
	}
	return assessment.Prediction{}, fmt.Errorf("all classifier strategies failed: %w", lastErr)
}

// toneModel 返回肤色上下文对应的模型名。
func (c *httpClient) toneModel(tone assessment.SkinTone) string {
	if tone == assessment.SkinToneDark {
		return c.cfg.DarkModel
	}
	return c.cfg.LightModel
}

// predict 将图片以 multipart 形式提交给模型服务并返回原始响应体。
func (c *httpClient) predict(ctx context.Context, model string, image []byte, filename string) (json.RawMessage, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("failed to write image bytes: %w", err)
	}
	if err := writer.WriteField("model", model); err != nil {
		return nil, fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/predict", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call classifier api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier api returned non-200 status: %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read classifier response: %w", err)
	}
	return raw, nil
}

// normalize 将模型服务的任意响应形态规范化为单一的 Prediction：
// 对象、裸浮点概率、单元素数组都会被接受；其余形态报错交给中性回退。
func normalize(raw json.RawMessage, model string) (assessment.Prediction, error) {
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return assessment.Prediction{}, fmt.Errorf("invalid classifier response: %w", err)
	}
	return normalizeValue(decoded, model)
}

func normalizeValue(decoded interface{}, model string) (assessment.Prediction, error) {
	switch v := decoded.(type) {
	case map[string]interface{}:
		return normalizeObject(v, model)
	case float64:
		return predictionFromProbability(v, model), nil
	case []interface{}:
		if len(v) == 0 {
			return assessment.Prediction{}, fmt.Errorf("empty classifier result array")
		}
		return normalizeValue(v[0], model)
	default:
		return assessment.Prediction{}, fmt.Errorf("unsupported classifier result shape %T", decoded)
	}
}

func normalizeObject(obj map[string]interface{}, model string) (assessment.Prediction, error) {
	pred := assessment.Prediction{ModelUsed: model}

	if label, ok := obj["label"].(string); ok {
		pred.Label = label
	}
	if score, ok := asFloat(obj["score"]); ok {
		pred.Score = clamp01(score)
	}
	if conf, ok := asFloat(obj["confidence"]); ok {
		pred.Confidence = clamp01(conf)
	}
	if used, ok := obj["model_used"].(string); ok && used != "" {
		pred.ModelUsed = used
	}

	if pred.Label == "" {
		// 没有标签但有概率时按阈值推断
		if pred.Score == 0 && pred.Confidence == 0 {
			return assessment.Prediction{}, fmt.Errorf("classifier object has neither label nor score")
		}
		p := pred.Score
		if p == 0 {
			p = pred.Confidence
		}
		pred.Label = labelFromProbability(p)
	}
	if pred.Label != assessment.LabelAD && pred.Label != assessment.LabelNotAD {
		return assessment.Prediction{}, fmt.Errorf("unknown classifier label %q", pred.Label)
	}
	return pred, nil
}

// predictionFromProbability 将裸浮点的 AD 概率转换为规范化预测。
func predictionFromProbability(p float64, model string) assessment.Prediction {
	p = clamp01(p)
	return assessment.Prediction{
		Label:      labelFromProbability(p),
		Score:      p,
		Confidence: p,
		ModelUsed:  model,
	}
}

func labelFromProbability(p float64) string {
	if p >= 0.5 {
		return assessment.LabelAD
	}
	return assessment.LabelNotAD
}

// neutralPrediction 是适配失败时的中性回退：0.5 概率的 not_ad。
func neutralPrediction(model string) assessment.Prediction {
	return assessment.Prediction{
		Label:      assessment.LabelNotAD,
		Score:      0.5,
		Confidence: 0.5,
		ModelUsed:  model,
	}
}

func asFloat(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
