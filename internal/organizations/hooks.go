package organizations

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Hook is a named post-commit side effect. Hooks run after the database
// transaction commits; their failures are logged and never surfaced to the
// caller; the enclosing mutation has already succeeded.
type Hook struct {
	Name string
	Run  func(ctx context.Context) error
	// OnExhausted runs once when Run has failed on every attempt, e.g. to
	// hand the work to a background queue.
	OnExhausted func(ctx context.Context)
}

// HookRunner executes post-commit hooks with bounded exponential backoff.
type HookRunner struct {
	logger     *zap.Logger
	maxTries   uint
	onceFailed func(hook string) // optional, e.g. metrics
}

// NewHookRunner creates a hook runner. maxTries bounds attempts per hook.
func NewHookRunner(logger *zap.Logger, maxTries uint, onceFailed func(hook string)) *HookRunner {
	if maxTries == 0 {
		maxTries = 1
	}
	return &HookRunner{logger: logger, maxTries: maxTries, onceFailed: onceFailed}
}

// RunAll executes hooks in order. Each hook is retried with exponential
// backoff up to maxTries; a hook that exhausts its retries is logged and the
// remaining hooks still run.
func (r *HookRunner) RunAll(ctx context.Context, hooks []Hook) {
	for _, h := range hooks {
		h := h
		op := func() (struct{}, error) {
			return struct{}{}, h.Run(ctx)
		}
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 200 * time.Millisecond
		bo.MaxInterval = 2 * time.Second

		_, err := backoff.Retry(ctx, op,
			backoff.WithBackOff(bo),
			backoff.WithMaxTries(r.maxTries),
		)
		if err != nil {
			r.logger.Warn("post-commit hook failed",
				zap.String("hook", h.Name),
				zap.Uint("max_tries", r.maxTries),
				zap.Error(err),
			)
			if r.onceFailed != nil {
				r.onceFailed(h.Name)
			}
			if h.OnExhausted != nil {
				h.OnExhausted(ctx)
			}
		}
	}
}
