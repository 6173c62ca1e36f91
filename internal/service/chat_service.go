package service

import (
	"errors"
	"fmt"
	"strings"

	"adscan-go/internal/model"
	"adscan-go/internal/repository"

	"gorm.io/gorm"
)

// ChatService 接口定义了随访助手会话的业务操作。
// 助手会话按用户 get-or-create，消息在同一条记录上追加；
// 这一点与评估保存路径（每次新建记录）刻意不同。
type ChatService interface {
	AssistantChat(userID uint) (*model.Chat, error)
	// Reply 把用户消息追加到助手会话，生成回复并一并持久化。
	Reply(userID uint, message string) (string, error)
}

type chatService struct {
	chatRepo repository.ChatRepository
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(chatRepo repository.ChatRepository) ChatService {
	return &chatService{chatRepo: chatRepo}
}

// AssistantChat 返回用户的助手会话，不存在时创建一条带欢迎语的新会话。
func (s *chatService) AssistantChat(userID uint) (*model.Chat, error) {
	chat, err := s.chatRepo.FindAssistantChat(userID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	chat = &model.Chat{
		UserID: userID,
		Title:  "Assistant",
		Kind:   model.ChatKindAssistant,
		Messages: model.MessageLog{
			{
				Sender: "ai",
				Text:   "Hi! I can answer questions about your latest skin assessment, explain confidence levels, or help you find your PDF report.",
			},
		},
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// Reply 生成对用户消息的回复并把两条消息追加到会话日志。
func (s *chatService) Reply(userID uint, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("消息不能为空")
	}

	chat, err := s.AssistantChat(userID)
	if err != nil {
		return "", err
	}

	reply := s.answer(userID, message)

	chat.Messages = append(chat.Messages,
		model.ChatMessage{Sender: "user", Text: message},
		model.ChatMessage{Sender: "ai", Text: reply},
	)
	if err := s.chatRepo.Update(chat); err != nil {
		return "", err
	}
	return reply, nil
}

// answer 根据关键词与用户最近一次评估生成回复。
// 规则简单且完全本地化，不调用任何外部模型服务。
func (s *chatService) answer(userID uint, message string) string {
	lower := strings.ToLower(message)

	switch {
	case containsAny(lower, "result", "score", "confidence", "level", "assessment"):
		latest, err := s.chatRepo.FindLatestAssessment(userID)
		if err != nil {
			return "I couldn't find a completed assessment for your account yet. Upload your scan images and fill in the symptom questionnaire to get one."
		}
		rep, _, _, _, derr := decodeAssessmentChat(latest)
		if derr != nil {
			return "Your latest assessment exists but I couldn't read its details. You can open it from your scan history."
		}
		return fmt.Sprintf("Your latest assessment (%s) came back %s with a confidence of %.0f%%. %s",
			latest.CreatedAt.Format("2006-01-02"), rep.AssessmentLevel, rep.FinalConfidence*100, rep.Summary)

	case containsAny(lower, "pdf", "report", "download"):
		return "Each assessment has a downloadable PDF report. Open the entry in your scan history and use the download button; if the report is still being generated it will be rendered on demand."

	case containsAny(lower, "itch", "symptom", "rash", "dry", "flare"):
		return "I can't give medical advice, but persistent itching or worsening symptoms are worth a clinician visit. Keeping the affected skin moisturised and avoiding known triggers usually helps between appointments."

	case containsAny(lower, "delete", "remove", "privacy"):
		return "You can delete any assessment from your scan history. Deleting removes the stored images, the PDF report and the analytics entry."

	case containsAny(lower, "hello", "hi", "hey"):
		return "Hello! Ask me about your latest assessment results, PDF reports, or how the scoring works."

	default:
		return "I can help with questions about your assessment results, confidence levels, PDF reports or deleting scans. What would you like to know?"
	}
}

// containsAny 判断文本是否包含任一关键词。
func containsAny(text string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
