package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/model"
)

// OtpRepo persists issued passcodes. Records are append-only; the only
// mutation is deletion.
type OtpRepo interface {
	// Insert stores a new record, filling in its ID and Ctime.
	Insert(ctx context.Context, record *model.OtpRecord) error
	// Latest returns the most recently created record for email, or
	// appErr.ErrNotFound.
	Latest(ctx context.Context, email string) (*model.OtpRecord, error)
	// DeleteIfMatch atomically deletes the record only if its code still
	// equals code, reporting whether a record was removed.
	DeleteIfMatch(ctx context.Context, id, code string) (bool, error)
	// DeleteBefore removes every record with Ctime < cutoff (unix ms).
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
	Close() error
}

type Factory func(ctx context.Context, args interface{}) (OtpRepo, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(ctx context.Context, cfg config.StoreConfig) (OtpRepo, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		return nil, fmt.Errorf("store.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
	return factory(ctx, cfg.Data)
}
