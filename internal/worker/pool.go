package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool manages a pool of workers that execute jobs concurrently. Sample
// evaluations are independent of each other, so results arrive in
// completion order, not submission order.
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a worker pool with the specified number of workers. The
// pool runs under the caller's context: once ctx expires, workers stop and
// Submit drops new jobs, so a batch deadline halts submission.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2), // Buffered to prevent blocking
		results:    make(chan Result, workers*2),
		ctx:        poolCtx,
		cancelFunc: cancel,
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit submits a job to the pool for execution. After cancellation or
// Shutdown the job is dropped.
func (p *Pool) Submit(job Job) {
	if p.ctx.Err() != nil {
		return
	}
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Close marks the intake complete and closes the results channel once the
// workers have drained the queue. Call after the last Submit.
func (p *Pool) Close() {
	close(p.jobQueue)

	go func() {
		p.wg.Wait()
		p.closeResults()
	}()
}

// Wait closes the intake and collects the remaining results. The results
// buffer holds roughly 5x the worker count; submitters of larger batches
// must drain concurrently through Collect, or Submit blocks with no reader
// on the other end.
func (p *Pool) Wait() []Result {
	p.Close()

	var results []Result
	for result := range p.results {
		results = append(results, result)
	}

	return results
}

// Shutdown shuts down the worker pool immediately
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// ResultCollector drains results while jobs are still being submitted, so
// submission never stalls on a full results buffer.
type ResultCollector struct {
	pool    *Pool
	results []Result
	mu      sync.Mutex
	done    chan struct{}
}

// Collect starts draining the pool's results in the background. Call it
// before submitting, then Wait on the collector after the last Submit.
func (p *Pool) Collect() *ResultCollector {
	c := &ResultCollector{
		pool: p,
		done: make(chan struct{}),
	}

	go func() {
		defer close(c.done)
		for result := range p.results {
			c.Add(result)
		}
	}()

	return c
}

// Add adds a result to the collector (thread-safe)
func (c *ResultCollector) Add(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns a snapshot of the results collected so far
func (c *ResultCollector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

// Wait closes the pool's intake, blocks until every in-flight job has been
// drained, and returns all collected results.
func (c *ResultCollector) Wait() []Result {
	c.pool.Close()
	<-c.done
	return c.results
}
