package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// VerificationRepository 接口定义了基于 Redis 的临时凭据存储操作，
// 包括两步验证码、密码重置令牌、WebSocket 票据与 JWT 黑名单。
type VerificationRepository interface {
	Store2FACode(ctx context.Context, userID uint, code string, ttl time.Duration) error
	Verify2FACode(ctx context.Context, userID uint, code string) (bool, error)
	StoreResetToken(ctx context.Context, token string, userID uint, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (uint, error)
	StoreWSTicket(ctx context.Context, ticket string, userID uint, ttl time.Duration) error
	ConsumeWSTicket(ctx context.Context, ticket string) (uint, error)
	BlacklistToken(ctx context.Context, token string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type verificationRepository struct {
	rdb *redis.Client
}

// NewVerificationRepository 创建一个新的 VerificationRepository 实例。
func NewVerificationRepository(rdb *redis.Client) VerificationRepository {
	return &verificationRepository{rdb: rdb}
}

func (r *verificationRepository) Store2FACode(ctx context.Context, userID uint, code string, ttl time.Duration) error {
	key := fmt.Sprintf("2fa:code:%d", userID)
	return r.rdb.Set(ctx, key, code, ttl).Err()
}

// Verify2FACode 校验验证码，校验成功后立刻删除，保证一次性使用。
func (r *verificationRepository) Verify2FACode(ctx context.Context, userID uint, code string) (bool, error) {
	key := fmt.Sprintf("2fa:code:%d", userID)
	stored, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored != code {
		return false, nil
	}
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *verificationRepository) StoreResetToken(ctx context.Context, token string, userID uint, ttl time.Duration) error {
	key := fmt.Sprintf("reset:token:%s", token)
	return r.rdb.Set(ctx, key, userID, ttl).Err()
}

func (r *verificationRepository) ConsumeResetToken(ctx context.Context, token string) (uint, error) {
	return r.consumeUintKey(ctx, fmt.Sprintf("reset:token:%s", token))
}

func (r *verificationRepository) StoreWSTicket(ctx context.Context, ticket string, userID uint, ttl time.Duration) error {
	key := fmt.Sprintf("ws:ticket:%s", ticket)
	return r.rdb.Set(ctx, key, userID, ttl).Err()
}

func (r *verificationRepository) ConsumeWSTicket(ctx context.Context, ticket string) (uint, error) {
	return r.consumeUintKey(ctx, fmt.Sprintf("ws:ticket:%s", ticket))
}

// consumeUintKey 原子地读取并删除一个存有用户 ID 的键。
func (r *verificationRepository) consumeUintKey(ctx context.Context, key string) (uint, error) {
	val, err := r.rdb.GetDel(ctx, key).Uint64()
	if err == redis.Nil {
		return 0, fmt.Errorf("凭据不存在或已过期")
	}
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

func (r *verificationRepository) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	key := fmt.Sprintf("jwt:blacklist:%s", token)
	return r.rdb.Set(ctx, key, 1, ttl).Err()
}

func (r *verificationRepository) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf("jwt:blacklist:%s", token)
	n, err := r.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
