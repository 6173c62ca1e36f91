package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"adscan-go/internal/assessment"
	"adscan-go/internal/model"
	"adscan-go/internal/repository"
	"adscan-go/pkg/log"
	"adscan-go/pkg/tasks"
)

// AssessmentService 接口定义了核心评估流程。
type AssessmentService interface {
	// Assess 执行一次完整评估并持久化为一条新的 Chat 记录，
	// 返回面向角色的报告与新记录的 ID。
	Assess(ctx context.Context, user *model.User, answers map[string]interface{}, results []assessment.ScanResult, userTypeOverride, toneHint string) (*assessment.Report, uint, error)
}

// RenderTaskProducer 投递一个异步渲染任务，生产环境由 Kafka 生产者实现。
type RenderTaskProducer func(task tasks.ReportRenderTask) error

type assessmentService struct {
	chatRepo repository.ChatRepository
	produce  RenderTaskProducer
}

// NewAssessmentService 创建一个新的 AssessmentService 实例。
func NewAssessmentService(chatRepo repository.ChatRepository, produce RenderTaskProducer) AssessmentService {
	return &assessmentService{chatRepo: chatRepo, produce: produce}
}

// Assess 校验输入、运行评估引擎、把问答与报告作为消息日志写入新的
// Chat 记录，最后投递异步 PDF 渲染任务。渲染任务投递失败只记录日志，
// 绝不影响评估结果的保存与返回。
func (s *assessmentService) Assess(ctx context.Context, user *model.User, answers map[string]interface{}, results []assessment.ScanResult, userTypeOverride, toneHint string) (*assessment.Report, uint, error) {
	if len(answers) == 0 {
		return nil, 0, errors.New("症状问卷答案不能为空")
	}
	if len(results) == 0 {
		return nil, 0, errors.New("扫描结果不能为空")
	}

	userType := resolveUserType(user, userTypeOverride)
	report, agg := assessment.Assess(answers, results, userType, toneHint)

	chat := &model.Chat{
		UserID: user.ID,
		Title:  fmt.Sprintf("%s - %s", report.Title, time.Now().Format("2006-01-02 15:04")),
		Kind:   model.ChatKindAssessment,
		Messages: model.MessageLog{
			{
				Sender: "user",
				Text:   "Symptom assessment submitted",
				Meta: map[string]interface{}{
					"answers": answers,
				},
			},
			{
				Sender: "ai",
				Text:   report.Summary,
				Meta: map[string]interface{}{
					"report":        toJSONValue(report),
					"assessment":    toJSONValue(agg),
					"scan_results":  toJSONValue(results),
					"risk_estimate": agg.FinalConfidence,
					"model_used":    primaryModel(results),
				},
			},
		},
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, 0, err
	}

	if err := s.produce(tasks.ReportRenderTask{ChatID: chat.ID, UserID: user.ID}); err != nil {
		// 渲染任务丢失可以通过下载接口按需补渲染，不阻塞保存
		log.Errorf("[AssessmentService] 投递渲染任务失败: chatID=%d, error: %v", chat.ID, err)
	}

	return &report, chat.ID, nil
}

// resolveUserType 决定本次评估使用的角色权重：请求可以显式指定 user_type，
// 否则跟随账号角色，临床账号默认走临床权重。
func resolveUserType(user *model.User, override string) assessment.UserType {
	switch override {
	case string(assessment.UserTypeClinician):
		return assessment.UserTypeClinician
	case string(assessment.UserTypePatient):
		return assessment.UserTypePatient
	}
	if user.Role == model.RoleClinician {
		return assessment.UserTypeClinician
	}
	return assessment.UserTypePatient
}

// primaryModel 返回首个扫描结果使用的模型名，用于消息 meta 的展示字段。
func primaryModel(results []assessment.ScanResult) string {
	for _, r := range results {
		if r.Prediction.ModelUsed != "" {
			return r.Prediction.ModelUsed
		}
	}
	return ""
}

// toJSONValue 把任意结构体转换为可直接存入 JSON 消息日志的通用值。
func toJSONValue(v interface{}) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
