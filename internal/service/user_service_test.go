package service

import (
	"context"
	"os"
	"testing"

	"adscan-go/internal/model"
	"adscan-go/pkg/hash"
	"adscan-go/pkg/log"
	"adscan-go/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func newTestUserService() (UserService, *fakeUserRepo, *fakeVerifyRepo, *fakeMailer) {
	userRepo := newFakeUserRepo()
	verifyRepo := newFakeVerifyRepo()
	mail := &fakeMailer{}
	jwtManager := token.NewJWTManager("test-secret", 1, 7)
	return NewUserService(userRepo, verifyRepo, jwtManager, mail), userRepo, verifyRepo, mail
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	tests := []struct {
		name      string
		username  string
		email     string
		password  string
		password2 string
		role      string
	}{
		{"密码不一致", "alice", "alice@example.com", "password1", "password2", ""},
		{"密码过短", "alice", "alice@example.com", "short", "short", ""},
		{"邮箱非法", "alice", "not-an-email", "password123", "password123", ""},
		{"缺少用户名", "", "alice@example.com", "password123", "password123", ""},
		{"非法角色", "alice", "alice@example.com", "password123", "password123", "admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(tt.username, tt.email, tt.password, tt.password2, tt.role)
			assert.Error(t, err)
		})
	}
}

func TestRegisterAndDuplicate(t *testing.T) {
	svc, _, _, _ := newTestUserService()

	user, err := svc.Register("alice", "alice@example.com", "password123", "password123", "")
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, user.Role)
	assert.True(t, user.IsActive)
	// 密码必须以哈希形式存储
	assert.NotEqual(t, "password123", user.Password)
	assert.True(t, hash.CheckPasswordHash("password123", user.Password))

	_, err = svc.Register("alice", "other@example.com", "password123", "password123", "")
	assert.Error(t, err)

	clinician, err := svc.Register("dr-bob", "bob@example.com", "password123", "password123", model.RoleClinician)
	require.NoError(t, err)
	assert.Equal(t, model.RoleClinician, clinician.Role)
}

func TestLoginSendsCode(t *testing.T) {
	svc, _, verifyRepo, mail := newTestUserService()
	user, err := svc.Register("alice", "alice@example.com", "password123", "password123", "")
	require.NoError(t, err)

	userID, err := svc.Login("alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	// 验证码已写入存储并发送到注册邮箱
	code, ok := verifyRepo.codes[user.ID]
	require.True(t, ok)
	assert.Len(t, code, 6)
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "alice@example.com", mail.sent[0].to)
	assert.Contains(t, mail.sent[0].body, code)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, mail := newTestUserService()
	_, err := svc.Register("alice", "alice@example.com", "password123", "password123", "")
	require.NoError(t, err)

	_, err = svc.Login("alice", "wrong-password")
	assert.Error(t, err)
	_, err = svc.Login("nobody", "password123")
	assert.Error(t, err)
	assert.Empty(t, mail.sent)
}

func TestVerify2FAFlow(t *testing.T) {
	svc, _, verifyRepo, _ := newTestUserService()
	user, err := svc.Register("alice", "alice@example.com", "password123", "password123", "")
	require.NoError(t, err)

	userID, err := svc.Login("alice", "password123")
	require.NoError(t, err)
	code := verifyRepo.codes[userID]

	// 错误验证码被拒绝
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	_, _, _, err = svc.Verify2FA(context.Background(), userID, wrong)
	assert.Error(t, err)

	// 重发后旧码作废
	require.NoError(t, svc.Resend2FA(context.Background(), userID))
	newCode := verifyRepo.codes[userID]
	if code != newCode {
		_, _, _, err = svc.Verify2FA(context.Background(), userID, code)
		assert.Error(t, err)
	}

	access, refresh, got, err := svc.Verify2FA(context.Background(), userID, newCode)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.Equal(t, user.Username, got.Username)

	// 验证码一次性有效
	_, _, _, err = svc.Verify2FA(context.Background(), userID, newCode)
	assert.Error(t, err)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, _, verifyRepo, _ := newTestUserService()
	_, err := svc.Register("alice", "alice@example.com", "password123", "password123", "")
	require.NoError(t, err)
	userID, err := svc.Login("alice", "password123")
	require.NoError(t, err)
	access, refresh, _, err := svc.Verify2FA(context.Background(), userID, verifyRepo.codes[userID])
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, newAccess)
	assert.NotEmpty(t, newRefresh)

	_, _, err = svc.RefreshToken("not-a-token")
	assert.Error(t, err)

	require.NoError(t, svc.Logout(context.Background(), access))
	blacklisted, err := verifyRepo.IsTokenBlacklisted(context.Background(), access)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, verifyRepo, mail := newTestUserService()
	_, err := svc.Register("alice", "alice@example.com", "oldpassword1", "oldpassword1", "")
	require.NoError(t, err)

	// 未注册邮箱静默成功，不发送邮件
	require.NoError(t, svc.RequestPasswordReset(context.Background(), "unknown@example.com"))
	assert.Empty(t, mail.sent)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "alice@example.com"))
	require.Len(t, mail.sent, 1)
	require.Len(t, verifyRepo.resets, 1)

	var resetToken string
	for tok := range verifyRepo.resets {
		resetToken = tok
	}

	assert.Error(t, svc.ResetPassword(context.Background(), resetToken, "short"))
	require.NoError(t, svc.ResetPassword(context.Background(), resetToken, "newpassword1"))

	// 旧密码失效，新密码可登录
	_, err = svc.Login("alice", "oldpassword1")
	assert.Error(t, err)
	_, err = svc.Login("alice", "newpassword1")
	assert.NoError(t, err)

	// 令牌一次性有效
	assert.Error(t, svc.ResetPassword(context.Background(), resetToken, "anotherpass1"))
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _, _ := newTestUserService()
	user, err := svc.Register("alice", "alice@example.com", "password123", "password123", "")
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(user.ID, "new@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)

	_, err = svc.UpdateProfile(user.ID, "bad-email", "")
	assert.Error(t, err)

	_, err = svc.UpdateProfile(user.ID, "", "newpassword1")
	require.NoError(t, err)
	_, err = svc.Login("alice", "newpassword1")
	assert.NoError(t, err)
}
