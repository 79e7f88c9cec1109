package deduction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewpay/payroll-ledger/pkg/logger"
	"github.com/crewpay/payroll-ledger/pkg/redis"
)

// ErrRunInProgress means another trigger (timer or manual) currently
// holds the run lock. The pass is idempotent, so the caller can simply
// try again once the running pass finishes.
var ErrRunInProgress = errors.New("deduction pass already running")

const (
	runLockKey = "deduction:run-lock"
	runLockTTL = 5 * time.Minute
)

// Runner ties the pass to a timer. The pass is designed around
// re-runnability, not firing precision: the runner ticks daily and
// relies on the per-period idempotency probe to make every tick after
// the first of the period a no-op.
type Runner struct {
	pass     *Pass
	redis    redis.RedisAdapter
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewRunner(pass *Pass, redisAdapter redis.RedisAdapter, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Runner{
		pass:     pass,
		redis:    redisAdapter,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Runner) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := r.Trigger(context.Background()); err != nil && !errors.Is(err, ErrRunInProgress) {
					logger.Error("deduction: scheduled pass failed", "error", err)
				}
			case <-r.stop:
				return
			}
		}
	}()
	logger.Info("deduction: runner started", "interval", r.interval.String())
}

func (r *Runner) Stop() {
	close(r.stop)
	<-r.done
}

// Trigger runs the pass now, shared by the timer and the operator
// endpoint. A Redis SetNX lock keeps two triggers from overlapping;
// correctness does not depend on it (the per-account row lock and the
// idempotency probe do), it only avoids useless duplicate work.
func (r *Runner) Trigger(ctx context.Context) (int, error) {
	if r.redis != nil {
		acquired, err := r.redis.SetNX(runLockKey, []byte(time.Now().Format(time.RFC3339)), runLockTTL)
		if err != nil {
			// Redis being down must not stop the period-end pass.
			logger.Warn("deduction: run lock unavailable, proceeding", "error", err)
		} else if !acquired {
			return 0, ErrRunInProgress
		} else {
			defer func() {
				if err := r.redis.Del(runLockKey); err != nil {
					logger.Warn("deduction: failed to release run lock", "error", err)
				}
			}()
		}
	}

	n, err := r.pass.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("deduction pass: %w", err)
	}
	return n, nil
}
