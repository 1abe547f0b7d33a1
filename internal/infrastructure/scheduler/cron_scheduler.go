package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/k-shtanenko/ridership-api/internal/domain/ports"
	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

const minInterval = time.Second

// CronScheduler runs named jobs at fixed intervals. A job that is still
// running when its next tick fires is skipped for that tick.
type CronScheduler struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	timeout time.Duration
	mu      sync.RWMutex
	logger  logger.Logger
}

func NewCronScheduler(timeout time.Duration, log logger.Logger) *CronScheduler {
	log = logger.Component(log, "cron_scheduler")
	cronLog := cronLogger{log: log}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	scheduler := &CronScheduler{
		cron:    c,
		jobs:    make(map[string]cron.EntryID),
		timeout: timeout,
		logger:  log,
	}

	c.Start()
	scheduler.logger.Info("Cron scheduler started")

	return scheduler
}

// Schedule registers task under name. The task context derives from ctx,
// so cancelling ctx aborts running and future runs.
func (c *CronScheduler) Schedule(ctx context.Context, name string, interval time.Duration, task ports.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.jobs[name]; exists {
		return fmt.Errorf("job with name '%s' already exists", name)
	}

	spec := intervalToCron(interval)
	entryID, err := c.cron.AddFunc(spec, func() {
		c.runTask(ctx, name, task)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job '%s': %w", name, err)
	}

	c.jobs[name] = entryID
	c.logger.Infof("Job '%s' scheduled every %v (entry %d)", name, interval, entryID)
	return nil
}

func (c *CronScheduler) runTask(ctx context.Context, name string, task ports.Task) {
	if ctx.Err() != nil {
		return
	}

	startTime := time.Now()
	c.logger.Debugf("Starting scheduled job: %s", name)

	taskCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := task(taskCtx); err != nil {
		c.logger.Errorf("Job '%s' failed after %v: %v", name, time.Since(startTime), err)
		return
	}

	c.logger.Debugf("Job '%s' completed in %v", name, time.Since(startTime))
}

// Jobs returns the names of the registered jobs.
func (c *CronScheduler) Jobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.jobs))
	for name := range c.jobs {
		names = append(names, name)
	}
	return names
}

// Stop waits for running jobs to finish.
func (c *CronScheduler) Stop() {
	c.logger.Info("Stopping cron scheduler...")
	c.mu.Lock()
	defer c.mu.Unlock()

	<-c.cron.Stop().Done()

	for _, entryID := range c.jobs {
		c.cron.Remove(entryID)
	}
	c.jobs = make(map[string]cron.EntryID)
	c.logger.Info("Cron scheduler stopped")
}

func (c *CronScheduler) HealthCheck(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, entryID := range c.jobs {
		if entry := c.cron.Entry(entryID); entry.ID != entryID {
			return fmt.Errorf("job '%s' not found in cron", name)
		}
	}

	return nil
}

func intervalToCron(interval time.Duration) string {
	if interval < minInterval {
		interval = minInterval
	}
	return "@every " + interval.Truncate(time.Second).String()
}

// cronLogger routes cron's own messages to the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithFields(kvFields(keysAndValues)).WithError(err).Error(msg)
}

func kvFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
