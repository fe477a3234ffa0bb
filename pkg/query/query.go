// Package query runs batches of best-effort metadata lookups.
//
// A [Pool] collects independent tasks, each bound to one component and
// one outbound request, then runs them concurrently on a bounded number
// of workers until all finish or the batch deadline passes. Results of
// finished tasks are applied on the goroutine that called [Pool.Run], so
// tasks never touch shared state and no locking is needed by callers.
// Tasks still running at the deadline are abandoned: their context is
// cancelled and anything they return later is dropped.
package query

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/observability"
)

const (
	// DefaultWorkers bounds concurrent requests within one batch.
	DefaultWorkers = 16

	// DefaultTimeout is the deadline for a whole batch.
	DefaultTimeout = time.Minute
)

// Options configures a [Pool].
type Options struct {
	Workers int           // concurrent tasks (default: 16)
	Timeout time.Duration // batch deadline (default: 1m)
	Logger  *log.Logger   // defaults to log.Default()
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Func performs one lookup. On success it returns a function that
// publishes the result; the pool calls it only if the task finished
// before the deadline.
type Func func(ctx context.Context) (apply func(), err error)

// Fetch retrieves enrichment metadata for one dependency.
type Fetch func(ctx context.Context) (component.Enrichment, error)

type task struct {
	name string
	fn   Func
}

// Stats summarizes one batch.
type Stats struct {
	Tasks     int
	Completed int
	Failed    int
	Abandoned int
	Duration  time.Duration
}

// Pool is a reusable batch runner. A Pool is not safe for concurrent use;
// one extraction call owns it.
type Pool struct {
	opts  Options
	tasks []task
}

// NewPool creates a pool.
func NewPool(opts Options) *Pool {
	return &Pool{opts: opts.WithDefaults()}
}

// Len returns the number of queued tasks.
func (p *Pool) Len() int { return len(p.tasks) }

// Go queues a generic task. name identifies it in logs.
func (p *Pool) Go(name string, fn Func) {
	p.tasks = append(p.tasks, task{name: name, fn: fn})
}

// Enrich queues a lookup whose result is merged into target. A failed
// lookup leaves target unchanged.
func (p *Pool) Enrich(target *component.Candidate, url string, fetch Fetch) {
	p.Go(url, func(ctx context.Context) (func(), error) {
		e, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return func() { target.Apply(e) }, nil
	})
}

type outcome struct {
	apply func()
	err   error
}

// Run executes every queued task and blocks until all complete or the
// batch deadline passes, whichever is first. Task errors are logged and
// counted; they never affect sibling tasks. The queue is empty afterwards.
func (p *Pool) Run(ctx context.Context) Stats {
	tasks := p.tasks
	p.tasks = nil
	stats := Stats{Tasks: len(tasks)}
	if len(tasks) == 0 {
		return stats
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		closed   bool
		outcomes = make([]*outcome, len(tasks))
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(p.opts.Workers)
		for i, t := range tasks {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				apply, err := t.fn(ctx)
				mu.Lock()
				defer mu.Unlock()
				if !closed {
					outcomes[i] = &outcome{apply: apply, err: err}
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}

	mu.Lock()
	closed = true
	mu.Unlock()

	for i, o := range outcomes {
		switch {
		case o == nil:
			stats.Abandoned++
			p.opts.Logger.Debug("query abandoned", "task", tasks[i].name)
		case o.err != nil:
			stats.Failed++
			p.opts.Logger.Debug("query failed", "task", tasks[i].name, "err", o.err)
		default:
			stats.Completed++
			if o.apply != nil {
				o.apply()
			}
		}
	}
	stats.Duration = time.Since(start)

	if stats.Abandoned > 0 {
		p.opts.Logger.Warn("query batch timed out", "tasks", stats.Tasks, "abandoned", stats.Abandoned, "timeout", p.opts.Timeout)
	}
	observability.Scan().OnBatchComplete(ctx, stats.Tasks, stats.Abandoned, stats.Duration)
	return stats
}
