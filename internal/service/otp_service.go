package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/otpverify/internal/model"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
	"github.com/xxxsen/otpverify/internal/pkg/otpcode"
	"github.com/xxxsen/otpverify/internal/repo"
)

const (
	MessageNoOTP      = "No OTP found"
	MessageInvalidOTP = "Invalid OTP"

	defaultSubject = "Your OTP Code"
)

type IssueResult struct {
	Success bool `json:"success"`
}

type VerifyResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type OtpService struct {
	repo    repo.OtpRepo
	sender  EmailSender
	codes   otpcode.Generator
	subject string
}

func NewOtpService(repo repo.OtpRepo, sender EmailSender, codes otpcode.Generator, subject string) *OtpService {
	if codes == nil {
		codes = otpcode.NewGenerator()
	}
	if strings.TrimSpace(subject) == "" {
		subject = defaultSubject
	}
	return &OtpService{repo: repo, sender: sender, codes: codes, subject: subject}
}

// Issue mails a fresh code to email and then records it. Previously issued
// codes are left in place; only the latest one is ever checked.
func (s *OtpService) Issue(ctx context.Context, email string) (*IssueResult, error) {
	if email == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("email", email))
	code, err := s.codes.Generate()
	if err != nil {
		logger.Error("generate otp failed", zap.Error(err))
		return nil, appErr.ErrInternal
	}
	if err := s.sender.Send(ctx, email, s.subject, fmt.Sprintf("Your OTP code is %s", code)); err != nil {
		logger.Error("send otp mail failed", zap.String("collaborator", "mail"), zap.Error(err))
		return nil, appErr.ErrInternal
	}
	record := &model.OtpRecord{Email: email, Code: code}
	if err := s.repo.Insert(ctx, record); err != nil {
		// the mail is already out; nothing to roll back
		logger.Error("save otp record failed", zap.String("collaborator", "store"), zap.Error(err))
		return nil, appErr.ErrInternal
	}
	logger.Info("otp issued", zap.String("record_id", record.ID))
	return &IssueResult{Success: true}, nil
}

// Verify checks otp against the latest record for email and consumes the
// record on match. A mismatch leaves every record untouched.
func (s *OtpService) Verify(ctx context.Context, email, otp string) (*VerifyResult, error) {
	if email == "" {
		return nil, appErr.ErrInvalid
	}
	logger := logutil.GetLogger(ctx).With(zap.String("email", email))
	record, err := s.repo.Latest(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return &VerifyResult{Success: false, Message: MessageNoOTP}, nil
		}
		logger.Error("load otp record failed", zap.String("collaborator", "store"), zap.Error(err))
		return nil, appErr.ErrInternal
	}
	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(otp)) != 1 {
		return &VerifyResult{Success: false, Message: MessageInvalidOTP}, nil
	}
	deleted, err := s.repo.DeleteIfMatch(ctx, record.ID, record.Code)
	if err != nil {
		logger.Error("delete otp record failed", zap.String("collaborator", "store"), zap.String("record_id", record.ID), zap.Error(err))
		return nil, appErr.ErrInternal
	}
	if !deleted {
		// consumed by a concurrent verify
		return &VerifyResult{Success: false, Message: MessageNoOTP}, nil
	}
	logger.Info("otp verified", zap.String("record_id", record.ID))
	return &VerifyResult{Success: true}, nil
}
