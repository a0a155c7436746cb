package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestSpawnRunsJob(t *testing.T) {
	r := NewRunner()

	var ran atomic.Bool
	r.Spawn("ok", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	r.Wait()

	if !ran.Load() {
		t.Fatal("job did not run")
	}
}

func TestSpawnSwallowsFailure(t *testing.T) {
	r := NewRunner()

	r.Spawn("fails", func(ctx context.Context) error {
		return errors.New("boom")
	})
	// Wait returning means the failure did not propagate.
	r.Wait()
}

func TestSpawnRecoversPanic(t *testing.T) {
	r := NewRunner()

	r.Spawn("panics", func(ctx context.Context) error {
		panic("boom")
	})
	r.Wait()

	// A later job still runs after a panicking one.
	var ran atomic.Bool
	r.Spawn("after", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	r.Wait()

	if !ran.Load() {
		t.Fatal("runner unusable after panic")
	}
}
