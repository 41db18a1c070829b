package repo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/model"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
	"github.com/xxxsen/otpverify/internal/pkg/timeutil"
)

func testEmail() string {
	return "user-" + uuid.NewString() + "@example.com"
}

// runOtpRepoContract exercises the behaviour every backend must share.
func runOtpRepoContract(t *testing.T, r OtpRepo) {
	t.Helper()
	ctx := context.Background()

	t.Run("latest of unknown email", func(t *testing.T) {
		_, err := r.Latest(ctx, testEmail())
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})

	t.Run("insert assigns id and ctime", func(t *testing.T) {
		record := &model.OtpRecord{Email: testEmail(), Code: "123456"}
		require.NoError(t, r.Insert(ctx, record))
		require.NotEmpty(t, record.ID)
		require.Greater(t, record.Ctime, int64(0))

		latest, err := r.Latest(ctx, record.Email)
		require.NoError(t, err)
		require.Equal(t, *record, *latest)
	})

	t.Run("latest wins even within one millisecond", func(t *testing.T) {
		email := testEmail()
		first := &model.OtpRecord{Email: email, Code: "111111"}
		second := &model.OtpRecord{Email: email, Code: "222222"}
		require.NoError(t, r.Insert(ctx, first))
		require.NoError(t, r.Insert(ctx, second))

		latest, err := r.Latest(ctx, email)
		require.NoError(t, err)
		require.Equal(t, second.ID, latest.ID)
		require.Equal(t, "222222", latest.Code)

		deleted, err := r.DeleteIfMatch(ctx, second.ID, "222222")
		require.NoError(t, err)
		require.True(t, deleted)

		latest, err = r.Latest(ctx, email)
		require.NoError(t, err)
		require.Equal(t, first.ID, latest.ID)
	})

	t.Run("conditional delete", func(t *testing.T) {
		record := &model.OtpRecord{Email: testEmail(), Code: "654321"}
		require.NoError(t, r.Insert(ctx, record))

		deleted, err := r.DeleteIfMatch(ctx, record.ID, "000000")
		require.NoError(t, err)
		require.False(t, deleted)
		_, err = r.Latest(ctx, record.Email)
		require.NoError(t, err)

		deleted, err = r.DeleteIfMatch(ctx, record.ID, "654321")
		require.NoError(t, err)
		require.True(t, deleted)

		deleted, err = r.DeleteIfMatch(ctx, record.ID, "654321")
		require.NoError(t, err)
		require.False(t, deleted)

		_, err = r.Latest(ctx, record.Email)
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})

	t.Run("delete before cutoff", func(t *testing.T) {
		email := testEmail()
		require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: email, Code: "111111"}))
		require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: email, Code: "222222"}))

		_, err := r.DeleteBefore(ctx, timeutil.NowUnixMilli()-time.Hour.Milliseconds())
		require.NoError(t, err)
		_, err = r.Latest(ctx, email)
		require.NoError(t, err)

		removed, err := r.DeleteBefore(ctx, timeutil.NowUnixMilli()+1)
		require.NoError(t, err)
		require.GreaterOrEqual(t, removed, int64(2))
		_, err = r.Latest(ctx, email)
		require.ErrorIs(t, err, appErr.ErrNotFound)
	})
}

func TestMemoryOtpRepo(t *testing.T) {
	runOtpRepoContract(t, NewMemoryOtpRepo())
}

func TestMemoryOtpRepoTieBreakBySequence(t *testing.T) {
	r := NewMemoryOtpRepo()
	r.now = func() int64 { return 1000 }
	ctx := context.Background()
	for _, code := range []string{"111111", "222222", "333333"} {
		require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: "e@x.com", Code: code}))
	}
	latest, err := r.Latest(ctx, "e@x.com")
	require.NoError(t, err)
	require.Equal(t, "333333", latest.Code)
	require.Equal(t, int64(1000), latest.Ctime)
}

func TestMemoryOtpRepoLatestIgnoresClockStepBack(t *testing.T) {
	r := NewMemoryOtpRepo()
	ctx := context.Background()
	now := int64(5000)
	r.now = func() int64 { return now }
	require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: "e@x.com", Code: "111111"}))
	now = 4000
	require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: "e@x.com", Code: "222222"}))

	latest, err := r.Latest(ctx, "e@x.com")
	require.NoError(t, err)
	require.Equal(t, "222222", latest.Code)
	require.Equal(t, int64(4000), latest.Ctime)
}

func TestMemoryOtpRepoDeleteBeforeExact(t *testing.T) {
	r := NewMemoryOtpRepo()
	ctx := context.Background()
	now := int64(1000)
	r.now = func() int64 { return now }
	require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: "old@x.com", Code: "111111"}))
	now = 2000
	require.NoError(t, r.Insert(ctx, &model.OtpRecord{Email: "new@x.com", Code: "222222"}))

	removed, err := r.DeleteBefore(ctx, 1500)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)
	_, err = r.Latest(ctx, "old@x.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = r.Latest(ctx, "new@x.com")
	require.NoError(t, err)
}

func TestNewUnknownStore(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Type: "firestore"})
	require.Error(t, err)
	_, err = New(context.Background(), config.StoreConfig{})
	require.Error(t, err)
}

func TestNewMemoryStore(t *testing.T) {
	r, err := New(context.Background(), config.StoreConfig{Type: "memory"})
	require.NoError(t, err)
	require.IsType(t, &MemoryOtpRepo{}, r)
	require.NoError(t, r.Close())
}

func TestNewStoreRejectsIncompleteConfig(t *testing.T) {
	ctx := context.Background()
	_, err := New(ctx, config.StoreConfig{Type: "redis", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(ctx, config.StoreConfig{Type: "mongo", Data: map[string]interface{}{}})
	require.Error(t, err)
	_, err = New(ctx, config.StoreConfig{Type: "postgres", Data: map[string]interface{}{}})
	require.Error(t, err)
}

func TestPostgresOtpRepo(t *testing.T) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	r, err := New(context.Background(), config.StoreConfig{Type: "postgres", Data: map[string]interface{}{
		"host":     host,
		"user":     "otpverify",
		"password": "otpverify_pass",
		"dbname":   "otpverify_test",
	}})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	runOtpRepoContract(t, r)
}

func TestRedisOtpRepo(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping redis test")
	}
	r, err := New(context.Background(), config.StoreConfig{Type: "redis", Data: map[string]interface{}{
		"addr":   addr,
		"prefix": "otp-test-" + uuid.NewString(),
	}})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	runOtpRepoContract(t, r)
}

func TestMongoOtpRepo(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set, skipping mongo test")
	}
	r, err := New(context.Background(), config.StoreConfig{Type: "mongo", Data: map[string]interface{}{
		"uri":        uri,
		"database":   "otpverify_test",
		"collection": "otps_" + uuid.NewString(),
	}})
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	runOtpRepoContract(t, r)
}
