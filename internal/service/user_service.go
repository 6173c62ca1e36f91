// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"adscan-go/internal/config"
	"adscan-go/internal/model"
	"adscan-go/internal/repository"
	"adscan-go/pkg/hash"
	"adscan-go/pkg/log"
	"adscan-go/pkg/mailer"
	"adscan-go/pkg/token"

	"gorm.io/gorm"
)

// UserService 接口定义了所有与用户和认证相关的业务操作。
// 登录分两步：Login 校验凭据并发送邮箱验证码，Verify2FA 校验验证码后签发令牌。
type UserService interface {
	Register(username, email, password, password2, role string) (*model.User, error)
	Login(username, password string) (userID uint, err error)
	Verify2FA(ctx context.Context, userID uint, code string) (accessToken, refreshToken string, user *model.User, err error)
	Resend2FA(ctx context.Context, userID uint) error
	RefreshToken(refreshTokenString string) (newAccessToken, newRefreshToken string, err error)
	Logout(ctx context.Context, tokenString string) error
	GetProfile(userID uint) (*model.User, error)
	UpdateProfile(userID uint, email, password string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo   repository.UserRepository
	verifyRepo repository.VerificationRepository
	jwtManager *token.JWTManager
	mail       mailer.Mailer
	codeTTL    time.Duration
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, verifyRepo repository.VerificationRepository, jwtManager *token.JWTManager, mail mailer.Mailer) UserService {
	ttl := time.Duration(config.Conf.TwoFA.CodeTTLMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &userService{
		userRepo:   userRepo,
		verifyRepo: verifyRepo,
		jwtManager: jwtManager,
		mail:       mail,
		codeTTL:    ttl,
	}
}

// Register 处理用户注册的业务逻辑。
func (s *userService) Register(username, email, password, password2, role string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// 1. 基本校验
	if username == "" || email == "" || password == "" {
		return nil, errors.New("用户名、邮箱和密码均不能为空")
	}
	if password != password2 {
		return nil, errors.New("两次输入的密码不一致")
	}
	if len(password) < 8 {
		return nil, errors.New("密码长度至少为 8 位")
	}
	if !strings.Contains(email, "@") {
		return nil, errors.New("邮箱格式不正确")
	}

	// 2. 角色只允许 patient / clinician，管理员账号不走注册接口
	switch role {
	case "":
		role = model.RolePatient
	case model.RolePatient, model.RoleClinician:
	default:
		return nil, errors.New("不支持的用户角色")
	}

	// 3. 检查用户名是否已存在
	_, err := s.userRepo.FindByUsername(username)
	if err == nil {
		return nil, errors.New("用户名已存在")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 4. 对密码进行哈希处理
	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	newUser := &model.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Role:     role,
		IsActive: true,
	}
	if err := s.userRepo.Create(newUser); err != nil {
		return nil, err
	}
	return newUser, nil
}

// Login 校验凭据；凭据正确时生成一次性验证码发送到用户邮箱，
// 并返回用户 ID 供客户端在第二步 Verify2FA 时携带。此时不签发任何令牌。
func (s *userService) Login(username, password string) (uint, error) {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.New("invalid credentials")
		}
		return 0, err
	}
	if !user.IsActive {
		return 0, errors.New("账号已被禁用")
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return 0, errors.New("invalid credentials")
	}

	if err := s.sendCode(context.Background(), user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// sendCode 生成一个 6 位数字验证码，写入 Redis 并通过邮件发送。
func (s *userService) sendCode(ctx context.Context, user *model.User) error {
	code, err := generate2FACode()
	if err != nil {
		return err
	}
	if err := s.verifyRepo.Store2FACode(ctx, user.ID, code, s.codeTTL); err != nil {
		return err
	}

	subject := "您的登录验证码"
	body := fmt.Sprintf("您好 %s，<br><br>您的登录验证码是：<b>%s</b><br>验证码 %d 分钟内有效。如非本人操作请忽略本邮件。",
		user.Username, code, int(s.codeTTL.Minutes()))
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		log.Errorf("[UserService] 发送验证码邮件失败, userID: %d, error: %v", user.ID, err)
		return errors.New("发送验证码邮件失败")
	}
	return nil
}

// Verify2FA 校验邮箱验证码，通过后签发 access token 和 refresh token。
func (s *userService) Verify2FA(ctx context.Context, userID uint, code string) (string, string, *model.User, error) {
	ok, err := s.verifyRepo.Verify2FACode(ctx, userID, strings.TrimSpace(code))
	if err != nil {
		return "", "", nil, err
	}
	if !ok {
		return "", "", nil, errors.New("验证码错误或已过期")
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return "", "", nil, errors.New("user not found")
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

// Resend2FA 重新发送验证码，旧验证码立即作废。
func (s *userService) Resend2FA(ctx context.Context, userID uint) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return errors.New("user not found")
	}
	return s.sendCode(ctx, user)
}

// RefreshToken 验证 refresh token 并签发新的 access token 和 refresh token。
func (s *userService) RefreshToken(refreshTokenString string) (string, string, error) {
	claims, err := s.jwtManager.VerifyToken(refreshTokenString)
	if err != nil {
		return "", "", errors.New("invalid refresh token")
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return "", "", errors.New("user not found")
	}

	newAccessToken, err := s.jwtManager.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	newRefreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", "", err
	}
	return newAccessToken, newRefreshToken, nil
}

// Logout 处理用户登出逻辑，将 token 加入 Redis 黑名单。
// token 的剩余有效期作为黑名单键的过期时间。
func (s *userService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	expiration := time.Until(claims.ExpiresAt.Time)
	if expiration <= 0 {
		return nil
	}
	return s.verifyRepo.BlacklistToken(ctx, tokenString, expiration)
}

// GetProfile 根据用户 ID 获取用户详细信息。
func (s *userService) GetProfile(userID uint) (*model.User, error) {
	return s.userRepo.FindByID(userID)
}

// UpdateProfile 更新用户邮箱和/或密码，空字段保持不变。
func (s *userService) UpdateProfile(userID uint, email, password string) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if email = strings.TrimSpace(email); email != "" {
		if !strings.Contains(email, "@") {
			return nil, errors.New("邮箱格式不正确")
		}
		user.Email = email
	}
	if password != "" {
		if len(password) < 8 {
			return nil, errors.New("密码长度至少为 8 位")
		}
		hashed, err := hash.HashPassword(password)
		if err != nil {
			return nil, err
		}
		user.Password = hashed
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset 为邮箱对应的账号生成重置令牌并邮件发送。
// 为避免探测账号是否存在，邮箱未注册时同样静默返回成功。
func (s *userService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	resetToken := token.GenerateRandomString(32)
	if err := s.verifyRepo.StoreResetToken(ctx, resetToken, user.ID, 30*time.Minute); err != nil {
		return err
	}

	subject := "密码重置请求"
	body := fmt.Sprintf("您好 %s，<br><br>您的密码重置令牌是：<b>%s</b><br>令牌 30 分钟内有效。如非本人操作请忽略本邮件。",
		user.Username, resetToken)
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		log.Errorf("[UserService] 发送密码重置邮件失败, userID: %d, error: %v", user.ID, err)
		return errors.New("发送密码重置邮件失败")
	}
	return nil
}

// ResetPassword 消费重置令牌并更新密码，令牌一次性有效。
func (s *userService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < 8 {
		return errors.New("密码长度至少为 8 位")
	}
	userID, err := s.verifyRepo.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return errors.New("重置令牌无效或已过期")
	}
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	hashed, err := hash.HashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.userRepo.Update(user)
}

// generate2FACode 使用加密随机源生成 6 位数字验证码。
func generate2FACode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
