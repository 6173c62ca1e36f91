package repository

import (
	"adscan-go/internal/model"

	"gorm.io/gorm"
)

// ChatRepository 接口定义了评估会话记录的持久化操作。
type ChatRepository interface {
	Create(chat *model.Chat) error
	FindByID(chatID uint) (*model.Chat, error)
	FindByUser(userID uint) ([]model.Chat, error)
	// FindAssistantChat 查找用户的会话助手 chat；不存在时返回 gorm.ErrRecordNotFound。
	FindAssistantChat(userID uint) (*model.Chat, error)
	// FindLatestAssessment 返回用户最近一次评估的 chat 记录。
	FindLatestAssessment(userID uint) (*model.Chat, error)
	Update(chat *model.Chat) error
	Delete(chatID uint) error
	CountAll() (int64, error)
	CountSince(days int) (int64, error)
}

// chatRepository 是 ChatRepository 接口的 GORM 实现。
type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository 创建一个新的 ChatRepository 实例。
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

// Create 创建一条新的 chat 记录。评估保存路径总是走这里创建新行。
func (r *chatRepository) Create(chat *model.Chat) error {
	return r.db.Create(chat).Error
}

// FindByID 根据 ID 查找 chat 记录。
func (r *chatRepository) FindByID(chatID uint) (*model.Chat, error) {
	var chat model.Chat
	if err := r.db.First(&chat, chatID).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindByUser 返回用户的全部 chat 记录，按创建时间倒序。
func (r *chatRepository) FindByUser(userID uint) ([]model.Chat, error) {
	var chats []model.Chat
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&chats).Error
	return chats, err
}

// FindAssistantChat 查找用户唯一的会话助手 chat。
func (r *chatRepository) FindAssistantChat(userID uint) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.Where("user_id = ? AND kind = ?", userID, model.ChatKindAssistant).
		Order("created_at DESC").First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindLatestAssessment 返回用户最近一次评估记录。
func (r *chatRepository) FindLatestAssessment(userID uint) (*model.Chat, error) {
	var chat model.Chat
	err := r.db.Where("user_id = ? AND kind = ?", userID, model.ChatKindAssessment).
		Order("created_at DESC").First(&chat).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// Update 保存对 chat 记录的修改（追加消息、写入 PDF 对象键）。
func (r *chatRepository) Update(chat *model.Chat) error {
	return r.db.Save(chat).Error
}

// Delete 删除一条 chat 记录。
func (r *chatRepository) Delete(chatID uint) error {
	return r.db.Delete(&model.Chat{}, chatID).Error
}

// CountAll 返回评估记录总数，不含助手会话。
func (r *chatRepository) CountAll() (int64, error) {
	var total int64
	err := r.db.Model(&model.Chat{}).
		Where("kind = ?", model.ChatKindAssessment).
		Count(&total).Error
	return total, err
}

// CountSince 返回最近 N 天创建的评估记录数量。
func (r *chatRepository) CountSince(days int) (int64, error) {
	var total int64
	err := r.db.Model(&model.Chat{}).
		Where("kind = ?", model.ChatKindAssessment).
		Where("created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)", days).
		Count(&total).Error
	return total, err
}
