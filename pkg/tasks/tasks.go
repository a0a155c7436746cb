package tasks

import (
	"context"
	"log"
	"sync"
)

// Runner spawns detached background jobs. A job failure is logged and never
// propagated to the caller; the primary write the job follows is already
// committed by the time the job runs.
type Runner struct {
	wg sync.WaitGroup
}

func NewRunner() *Runner {
	return &Runner{}
}

// Spawn runs fn in its own goroutine. Panics are recovered so a bad job
// cannot take the process down.
func (r *Runner) Spawn(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("[task %s] panic: %v", name, rec)
			}
		}()

		if err := fn(context.Background()); err != nil {
			log.Printf("[task %s] failed: %v", name, err)
		}
	}()
}

// Wait blocks until all spawned jobs have returned. Used on shutdown and in
// tests; request handlers never call it.
func (r *Runner) Wait() {
	r.wg.Wait()
}
