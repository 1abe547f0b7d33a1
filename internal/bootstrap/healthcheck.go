package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/k-shtanenko/ridership-api/internal/pkg/logger"
)

type Check struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthChecker verifies dependencies at startup, retrying each one before
// giving up.
type HealthChecker struct {
	checks        []Check
	timeout       time.Duration
	retryInterval time.Duration
	maxRetries    int
	logger        logger.Logger
}

func NewHealthChecker(timeout, retryInterval time.Duration, maxRetries int, log logger.Logger, checks ...Check) *HealthChecker {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &HealthChecker{
		checks:        checks,
		timeout:       timeout,
		retryInterval: retryInterval,
		maxRetries:    maxRetries,
		logger:        logger.Component(log, "health_checker"),
	}
}

func (h *HealthChecker) CheckAll(ctx context.Context) error {
	h.logger.Info("Starting health checks for all dependencies")

	for _, check := range h.checks {
		if err := h.checkWithRetry(ctx, check); err != nil {
			return fmt.Errorf("%s health check failed: %w", check.Name, err)
		}
	}

	h.logger.Info("All health checks passed successfully")
	return nil
}

func (h *HealthChecker) checkWithRetry(ctx context.Context, check Check) error {
	var lastErr error

	for i := 0; i < h.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		h.logger.Debugf("Checking %s (attempt %d/%d)", check.Name, i+1, h.maxRetries)

		checkCtx := ctx
		cancel := context.CancelFunc(func() {})
		if h.timeout > 0 {
			checkCtx, cancel = context.WithTimeout(ctx, h.timeout)
		}
		err := check.Check(checkCtx)
		cancel()

		if err == nil {
			h.logger.Debugf("%s health check passed", check.Name)
			return nil
		}

		lastErr = err
		h.logger.Warnf("%s health check failed (attempt %d/%d): %v", check.Name, i+1, h.maxRetries, err)

		if i < h.maxRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(h.retryInterval):
			}
		}
	}

	return fmt.Errorf("all %d attempts failed, last error: %w", h.maxRetries, lastErr)
}
