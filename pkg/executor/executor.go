// Package executor is a fan-out/fan-in primitive for running independent
// units of work concurrently on a bounded pool. It holds no state between
// calls and is not specific to any task kind.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkerCeiling bounds the implicit pool size so a large batch does
// not oversubscribe the upstream providers.
const DefaultWorkerCeiling = 4

// Task is one independent unit of work.
type Task[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// Outcome is the per-task result-or-error. Exactly one Outcome is produced
// per submitted Task, in submission order.
type Outcome[T any] struct {
	Name    string
	Value   T
	Err     error
	Elapsed time.Duration
}

// Options configures a RunAll batch.
type Options struct {
	// MaxWorkers bounds concurrent tasks. Zero means one worker per task,
	// capped at DefaultWorkerCeiling.
	MaxWorkers int
	// PerTaskTimeout, when positive, cancels an individual task's context
	// after the duration. Sibling tasks are unaffected.
	PerTaskTimeout time.Duration
	Logger         *zap.Logger
}

// RunAll executes every task concurrently and returns one outcome per task,
// in input order. A task's failure, timeout or panic never aborts the batch.
func RunAll[T any](ctx context.Context, tasks []Task[T], opts Options) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))
	if len(tasks) == 0 {
		return outcomes
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = len(tasks)
		if workers > DefaultWorkerCeiling {
			workers = DefaultWorkerCeiling
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range tasks {
		g.Go(func() error {
			outcomes[i] = runOne(ctx, tasks[i], opts.PerTaskTimeout)
			if outcomes[i].Err != nil {
				logger.Debug("task failed",
					zap.String("task", tasks[i].Name),
					zap.Duration("elapsed", outcomes[i].Elapsed),
					zap.Error(outcomes[i].Err))
			} else {
				logger.Debug("task completed",
					zap.String("task", tasks[i].Name),
					zap.Duration("elapsed", outcomes[i].Elapsed))
			}
			return nil
		})
	}
	g.Wait()
	return outcomes
}

func runOne[T any](ctx context.Context, task Task[T], timeout time.Duration) (outcome Outcome[T]) {
	outcome.Name = task.Name
	start := time.Now()
	defer func() {
		outcome.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			outcome.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()

	// A batch already past its deadline produces timeout outcomes without
	// dispatching work.
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	taskCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outcome.Value, outcome.Err = task.Run(taskCtx)
	return outcome
}
