package service

import (
	"context"
	"errors"
	"time"

	"adscan-go/internal/model"

	"gorm.io/gorm"
)

// 内存版 repository 实现，供本包测试使用。

type fakeChatRepo struct {
	chats  map[uint]*model.Chat
	nextID uint
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[uint]*model.Chat), nextID: 1}
}

func (r *fakeChatRepo) Create(chat *model.Chat) error {
	chat.ID = r.nextID
	r.nextID++
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) FindByID(chatID uint) (*model.Chat, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return chat, nil
}

func (r *fakeChatRepo) FindByUser(userID uint) ([]model.Chat, error) {
	var out []model.Chat
	for id := r.nextID; id > 0; id-- {
		if c, ok := r.chats[id]; ok && c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) FindAssistantChat(userID uint) (*model.Chat, error) {
	for _, c := range r.chats {
		if c.UserID == userID && c.Kind == model.ChatKindAssistant {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeChatRepo) FindLatestAssessment(userID uint) (*model.Chat, error) {
	for id := r.nextID; id > 0; id-- {
		if c, ok := r.chats[id]; ok && c.UserID == userID && c.Kind == model.ChatKindAssessment {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeChatRepo) Update(chat *model.Chat) error {
	if _, ok := r.chats[chat.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepo) Delete(chatID uint) error {
	delete(r.chats, chatID)
	return nil
}

func (r *fakeChatRepo) CountAll() (int64, error) {
	var n int64
	for _, c := range r.chats {
		if c.Kind == model.ChatKindAssessment {
			n++
		}
	}
	return n, nil
}

func (r *fakeChatRepo) CountSince(days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	var n int64
	for _, c := range r.chats {
		if c.Kind == model.ChatKindAssessment && c.CreatedAt.After(cutoff) {
			n++
		}
	}
	return n, nil
}

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Delete(userID uint) error {
	delete(r.users, userID)
	return nil
}

func (r *fakeUserRepo) FindWithPagination(offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for id := uint(1); id < r.nextID; id++ {
		if u, ok := r.users[id]; ok {
			all = append(all, *u)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeUserRepo) CountAll() (int64, error) {
	return int64(len(r.users)), nil
}

type fakeVerifyRepo struct {
	codes     map[uint]string
	resets    map[string]uint
	tickets   map[string]uint
	blacklist map[string]bool
}

func newFakeVerifyRepo() *fakeVerifyRepo {
	return &fakeVerifyRepo{
		codes:     make(map[uint]string),
		resets:    make(map[string]uint),
		tickets:   make(map[string]uint),
		blacklist: make(map[string]bool),
	}
}

func (r *fakeVerifyRepo) Store2FACode(_ context.Context, userID uint, code string, _ time.Duration) error {
	r.codes[userID] = code
	return nil
}

func (r *fakeVerifyRepo) Verify2FACode(_ context.Context, userID uint, code string) (bool, error) {
	stored, ok := r.codes[userID]
	if !ok || stored != code {
		return false, nil
	}
	delete(r.codes, userID)
	return true, nil
}

func (r *fakeVerifyRepo) StoreResetToken(_ context.Context, token string, userID uint, _ time.Duration) error {
	r.resets[token] = userID
	return nil
}

func (r *fakeVerifyRepo) ConsumeResetToken(_ context.Context, token string) (uint, error) {
	userID, ok := r.resets[token]
	if !ok {
		return 0, errors.New("凭据不存在或已过期")
	}
	delete(r.resets, token)
	return userID, nil
}

func (r *fakeVerifyRepo) StoreWSTicket(_ context.Context, ticket string, userID uint, _ time.Duration) error {
	r.tickets[ticket] = userID
	return nil
}

func (r *fakeVerifyRepo) ConsumeWSTicket(_ context.Context, ticket string) (uint, error) {
	userID, ok := r.tickets[ticket]
	if !ok {
		return 0, errors.New("凭据不存在或已过期")
	}
	delete(r.tickets, ticket)
	return userID, nil
}

func (r *fakeVerifyRepo) BlacklistToken(_ context.Context, token string, _ time.Duration) error {
	r.blacklist[token] = true
	return nil
}

func (r *fakeVerifyRepo) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	return r.blacklist[token], nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent []sentMail
	fail bool
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
