package repo

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/xxxsen/otpverify/internal/model"
	appErr "github.com/xxxsen/otpverify/internal/pkg/errors"
	"github.com/xxxsen/otpverify/internal/pkg/timeutil"
)

func init() {
	Register("memory", func(ctx context.Context, args interface{}) (OtpRepo, error) {
		return NewMemoryOtpRepo(), nil
	})
}

type memoryEntry struct {
	record model.OtpRecord
	seq    int64
}

// MemoryOtpRepo keeps records in process memory. It is only suitable for a
// single instance and for tests.
type MemoryOtpRepo struct {
	mu      sync.Mutex
	seq     int64
	byEmail map[string][]memoryEntry
	now     func() int64
}

func NewMemoryOtpRepo() *MemoryOtpRepo {
	return &MemoryOtpRepo{
		byEmail: make(map[string][]memoryEntry),
		now:     timeutil.NowUnixMilli,
	}
}

func (r *MemoryOtpRepo) Insert(ctx context.Context, record *model.OtpRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	record.ID = uuid.NewString()
	record.Ctime = r.now()
	r.byEmail[record.Email] = append(r.byEmail[record.Email], memoryEntry{record: *record, seq: r.seq})
	return nil
}

func (r *MemoryOtpRepo) Latest(ctx context.Context, email string) (*model.OtpRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.byEmail[email]
	if len(entries) == 0 {
		return nil, appErr.ErrNotFound
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.seq > best.seq {
			best = e
		}
	}
	record := best.record
	return &record, nil
}

func (r *MemoryOtpRepo) DeleteIfMatch(ctx context.Context, id, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, entries := range r.byEmail {
		for i, e := range entries {
			if e.record.ID != id {
				continue
			}
			if e.record.Code != code {
				return false, nil
			}
			r.byEmail[email] = append(entries[:i:i], entries[i+1:]...)
			if len(r.byEmail[email]) == 0 {
				delete(r.byEmail, email)
			}
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryOtpRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for email, entries := range r.byEmail {
		kept := entries[:0]
		for _, e := range entries {
			if e.record.Ctime < cutoff {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(r.byEmail, email)
			continue
		}
		r.byEmail[email] = kept
	}
	return removed, nil
}

func (r *MemoryOtpRepo) Close() error {
	return nil
}
