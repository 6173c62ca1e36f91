package repository

import (
	"adscan-go/internal/model"

	"gorm.io/gorm"
)

// ContactRepository 接口定义了联系表单留言的持久化操作。
type ContactRepository interface {
	Create(msg *model.ContactMessage) error
	FindAll() ([]model.ContactMessage, error)
	Delete(msgID uint) error
}

type contactRepository struct {
	db *gorm.DB
}

// NewContactRepository 创建一个新的 ContactRepository 实例。
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(msg *model.ContactMessage) error {
	return r.db.Create(msg).Error
}

func (r *contactRepository) FindAll() ([]model.ContactMessage, error) {
	var msgs []model.ContactMessage
	err := r.db.Order("created_at DESC").Find(&msgs).Error
	return msgs, err
}

func (r *contactRepository) Delete(msgID uint) error {
	return r.db.Delete(&model.ContactMessage{}, msgID).Error
}
