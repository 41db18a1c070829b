package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/otpverify/internal/model"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
	"github.com/xxxsen/otpverify/internal/repo"
)

func TestOtpRetentionJobPurgesOldRecords(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryOtpRepo()
	require.NoError(t, store.Insert(ctx, &model.OtpRecord{Email: "e@x.com", Code: "123456"}))

	job := NewOtpRetentionJob(store, time.Hour)
	require.Equal(t, "otp_retention", job.Name())

	require.NoError(t, job.Run(ctx))
	_, err := store.Latest(ctx, "e@x.com")
	require.NoError(t, err)

	job.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, job.Run(ctx))
	_, err = store.Latest(ctx, "e@x.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestOtpRetentionJobDisabled(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryOtpRepo()
	require.NoError(t, store.Insert(ctx, &model.OtpRecord{Email: "e@x.com", Code: "123456"}))

	job := NewOtpRetentionJob(store, 0)
	job.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	require.NoError(t, job.Run(ctx))
	_, err := store.Latest(ctx, "e@x.com")
	require.NoError(t, err)

	require.NoError(t, NewOtpRetentionJob(nil, time.Hour).Run(ctx))
}
