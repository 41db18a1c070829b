package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	gomail "gopkg.in/mail.v2"

	"github.com/xxxsen/otpverify/internal/config"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type smtpConfig struct {
	Host           string `json:"host" validate:"required"`
	Port           int    `json:"port" validate:"required,gte=1,lte=65535"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	SSL            bool   `json:"ssl"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
}

func NewEmailSender(cfg config.MailConfig) (EmailSender, error) {
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, fmt.Errorf("mail.from is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "", "smtp":
		sc := &smtpConfig{}
		if err := config.DecodeData(cfg.Data, sc); err != nil {
			return nil, err
		}
		timeout := 10 * time.Second
		if sc.TimeoutSeconds > 0 {
			timeout = time.Duration(sc.TimeoutSeconds) * time.Second
		}
		dialer := gomail.NewDialer(sc.Host, sc.Port, sc.Username, sc.Password)
		dialer.Timeout = timeout
		if sc.SSL {
			dialer.SSL = true
		}
		return &smtpSender{from: from, dialer: dialer}, nil
	case "log":
		return &logSender{from: from}, nil
	default:
		return nil, fmt.Errorf("unsupported mail type: %s", cfg.Type)
	}
}

type smtpSender struct {
	from   string
	dialer *gomail.Dialer
}

func (s *smtpSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return s.dialer.DialAndSend(msg)
}

// logSender writes messages to the log instead of delivering them. Local
// development only.
type logSender struct {
	from string
}

func (s *logSender) Send(ctx context.Context, to, subject, body string) error {
	logutil.GetLogger(ctx).Info("mail delivered to log",
		zap.String("from", s.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
