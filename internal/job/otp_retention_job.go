package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/otpverify/internal/repo"
)

// OtpRetentionJob deletes otp records older than maxAge.
type OtpRetentionJob struct {
	repo   repo.OtpRepo
	maxAge time.Duration
	now    func() time.Time
}

func NewOtpRetentionJob(repo repo.OtpRepo, maxAge time.Duration) *OtpRetentionJob {
	return &OtpRetentionJob{repo: repo, maxAge: maxAge, now: time.Now}
}

func (j *OtpRetentionJob) Name() string {
	return "otp_retention"
}

func (j *OtpRetentionJob) Run(ctx context.Context) error {
	if j.repo == nil || j.maxAge <= 0 {
		return nil
	}
	cutoff := j.now().Add(-j.maxAge).UnixMilli()
	removed, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("otp records purged", zap.Int64("removed", removed), zap.Int64("cutoff", cutoff))
	return nil
}
