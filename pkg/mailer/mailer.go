// Package mailer 通过 SMTP 发送事务性邮件（2FA 验证码、密码重置）。
package mailer

import (
	"fmt"

	"adscan-go/internal/config"

	"gopkg.in/gomail.v2"
)

// Mailer 定义邮件发送接口，便于在测试中替换实现。
type Mailer interface {
	Send(to, subject, body string) error
}

type smtpMailer struct {
	cfg config.MailConfig
}

// NewMailer 创建一个基于 SMTP 的 Mailer。
func NewMailer(cfg config.MailConfig) Mailer {
	return &smtpMailer{cfg: cfg}
}

// Send 发送一封 HTML 邮件。
func (m *smtpMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	return nil
}
