package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs background housekeeping jobs next to the request path.
type Scheduler interface {
	AddJob(job Job, spec string) error
	Start(ctx context.Context)
	// Stop waits for running jobs until ctx is done, then cancels them.
	Stop(ctx context.Context) error
}

type CronScheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	chain   cron.Chain
	entries map[string]cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
}

var _ Scheduler = (*CronScheduler)(nil)

func NewCronScheduler() *CronScheduler {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	l := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &CronScheduler{
		cron:    cron.New(cron.WithParser(parser), cron.WithLogger(l)),
		chain:   cron.NewChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		entries: make(map[string]cron.EntryID),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob schedules job, replacing an earlier entry with the same name.
func (c *CronScheduler) AddJob(job Job, spec string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	logger := logutil.GetLogger(context.Background()).With(zap.String("job", job.Name()), zap.String("spec", spec))
	entryID, err := c.cron.AddJob(spec, c.wrap(job))
	if err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	if old, ok := c.entries[job.Name()]; ok {
		c.cron.Remove(old)
	}
	c.entries[job.Name()] = entryID
	logger.Info("job scheduled")
	return nil
}

// Start runs the cron loop. Jobs receive a context derived from ctx that is
// cancelled by Stop.
func (c *CronScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	c.mu.Lock()
	c.cancel()
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()
	c.cron.Start()
}

func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	defer c.jobCancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *CronScheduler) jobContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

func (c *CronScheduler) jobCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel()
}

func (c *CronScheduler) wrap(job Job) cron.Job {
	return c.chain.Then(cron.FuncJob(func() {
		ctx := c.jobContext()
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		start := time.Now()
		err := job.Run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			logger.Error("job failed", zap.Error(err), zap.Duration("duration", elapsed))
			return
		}
		logger.Info("job finished", zap.Duration("duration", elapsed))
	}))
}

// cronLogger routes robfig/cron's own messages (skips, recovered panics)
// to the zap logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logutil.GetLogger(context.Background()).Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logutil.GetLogger(context.Background()).Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
