package service

import (
	"errors"
	"strings"

	"adscan-go/internal/model"
	"adscan-go/internal/repository"
)

// ContactService 接口定义了联系表单留言的业务操作。
type ContactService interface {
	Submit(userID uint, name, email, subject, message string) (*model.ContactMessage, error)
	ListAll() ([]model.ContactMessage, error)
	Delete(msgID uint) error
}

type contactService struct {
	contactRepo repository.ContactRepository
}

// NewContactService 创建一个新的 ContactService 实例。
func NewContactService(contactRepo repository.ContactRepository) ContactService {
	return &contactService{contactRepo: contactRepo}
}

// Submit 保存一条留言。userID 为 0 表示匿名提交。
func (s *contactService) Submit(userID uint, name, email, subject, message string) (*model.ContactMessage, error) {
	name = strings.TrimSpace(name)
	message = strings.TrimSpace(message)
	if name == "" || message == "" {
		return nil, errors.New("姓名和留言内容不能为空")
	}
	if email != "" && !strings.Contains(email, "@") {
		return nil, errors.New("邮箱格式不正确")
	}

	msg := &model.ContactMessage{
		UserID:  userID,
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(subject),
		Message: message,
	}
	if err := s.contactRepo.Create(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListAll 返回全部留言，供管理端查看。
func (s *contactService) ListAll() ([]model.ContactMessage, error) {
	return s.contactRepo.FindAll()
}

// Delete 删除一条留言。
func (s *contactService) Delete(msgID uint) error {
	return s.contactRepo.Delete(msgID)
}
