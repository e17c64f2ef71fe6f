package session

import (
	"context"
	"sync"
)

// Unit is one source file queued for compilation.
type Unit struct {
	Name   string
	Source []byte
}

// BatchResult pairs one unit's outcome with the session that produced it.
// Err is non-nil only when the pipeline aborted, i.e. on cancellation.
type BatchResult struct {
	Summary Summary
	Session *Session
	Err     error
}

// CompileAll compiles every unit in its own session, fanning out across a
// fixed worker pool. Sessions share nothing, so units compile fully in
// parallel; results come back in unit order regardless of completion order.
func CompileAll(ctx context.Context, cfg *Config, units []Unit, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	if workers > len(units) {
		workers = len(units)
	}

	results := make([]BatchResult, len(units))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = compileUnit(ctx, cfg, units[i])
			}
		}()
	}

	for i := range units {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func compileUnit(ctx context.Context, cfg *Config, unit Unit) BatchResult {
	sess, err := New(cfg)
	if err != nil {
		return BatchResult{Err: err}
	}
	sum, err := sess.Compile(ctx, unit.Name, unit.Source)
	return BatchResult{Summary: sum, Session: sess, Err: err}
}
