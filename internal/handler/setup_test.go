package handler_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/otpverify/internal/handler"
	"github.com/xxxsen/otpverify/internal/middleware"
	"github.com/xxxsen/otpverify/internal/model"
	"github.com/xxxsen/otpverify/internal/pkg/otpcode"
	"github.com/xxxsen/otpverify/internal/repo"
	"github.com/xxxsen/otpverify/internal/service"
)

type recordingSender struct {
	mu   sync.Mutex
	fail bool
	to   []string
}

func (s *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("mail transport down")
	}
	s.to = append(s.to, to)
	return nil
}

// brokenStore fails every read; writes succeed.
type brokenStore struct {
	repo.OtpRepo
}

func (brokenStore) Latest(ctx context.Context, email string) (*model.OtpRecord, error) {
	return nil, errors.New("connection reset")
}

type testEnv struct {
	router http.Handler
	store  *repo.MemoryOtpRepo
	sender *recordingSender
}

func setupRouter(t *testing.T, code string) *testEnv {
	t.Helper()
	store := repo.NewMemoryOtpRepo()
	env := setupRouterWithStore(t, store, code)
	env.store = store
	return env
}

func setupRouterWithStore(t *testing.T, store repo.OtpRepo, code string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sender := &recordingSender{}
	otps := service.NewOtpService(store, sender, otpcode.Fixed(code), "")
	deps := handler.RouterDeps{
		Otps:     handler.NewOtpHandler(otps),
		Callable: handler.NewCallableHandler(otps),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
		),
	)
	require.NoError(t, err)
	return &testEnv{router: engine, sender: sender}
}
