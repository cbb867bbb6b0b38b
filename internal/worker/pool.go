// Package worker provides a bounded pool used to fan one batch request out
// across independent entity builds.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of work.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is the outcome of one job.
type Result interface {
	Err() error
}

// Pool runs jobs across a fixed number of workers. A Pool is stateless and
// reusable; each Run call owns its own channels.
type Pool struct {
	workers int
}

// NewPool creates a pool with the given worker count.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes all jobs and returns their results in completion order. It
// stops handing out new jobs once ctx is cancelled; jobs already running are
// expected to honor the same ctx.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	queue := make(chan Job)
	results := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				results <- job.Execute(ctx)
			}
		}()
	}

	for _, job := range jobs {
		select {
		case <-ctx.Done():
		case queue <- job:
			continue
		}
		break
	}
	close(queue)
	wg.Wait()
	close(results)

	out := make([]Result, 0, len(jobs))
	for r := range results {
		out = append(out, r)
	}
	return out
}
