package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ChatMessage 是评估会话中的一条消息。用户消息携带原始问卷答案，
// AI 消息携带报告正文以及 meta（risk_estimate、model_used、assessment 等）。
type ChatMessage struct {
	Sender string                 `json:"sender"` // "user" 或 "ai"
	Text   string                 `json:"text"`
	Meta   map[string]interface{} `json:"meta,omitempty"`
}

// MessageLog 是按时间追加的消息日志，整体以 JSON 存入一列。
type MessageLog []ChatMessage

// Value 实现 driver.Valuer，将消息日志序列化为 JSON。
func (l MessageLog) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner，从 JSON 列还原消息日志。
func (l *MessageLog) Scan(value interface{}) error {
	if value == nil {
		*l = MessageLog{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return errors.New("unsupported type for MessageLog")
	}
}

// Chat 定义了 chats 表的 ORM 模型：一次评估或一次保存动作对应一行。
// 评估保存路径总是创建新行；只有会话助手按 get-or-create 追加消息。
type Chat struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"userId"`
	Title     string     `gorm:"type:varchar(255);not null" json:"title"`
	Kind      string     `gorm:"type:varchar(20);not null;default:'assessment'" json:"kind"` // assessment / assistant
	Messages  MessageLog `gorm:"type:json" json:"messages"`
	PDFObject string     `gorm:"type:varchar(255)" json:"pdfObject"` // MinIO 中已渲染 PDF 的对象键，为空表示尚未渲染
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Chat) TableName() string {
	return "chats"
}

// Chat 的 Kind 取值。
const (
	ChatKindAssessment = "assessment"
	ChatKindAssistant  = "assistant"
)
