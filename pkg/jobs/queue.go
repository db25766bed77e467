package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work identified by a kind and a key. Tasks
// are best effort: a full queue drops rather than blocks the caller.
type Task struct {
	Kind    string
	Key     string
	attempt int
}

// HandlerFunc processes one task.
type HandlerFunc func(context.Context, Task) error

// Options tunes the worker pool.
type Options struct {
	Workers int
	Buffer  int
	Retries int
	Logger  *zap.Logger
}

// Queue dispatches tasks to a fixed pool of goroutines.
type Queue struct {
	name    string
	handler HandlerFunc
	workers int
	retries int
	logger  *zap.Logger

	tasks  chan Task
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue for the given handler.
func NewQueue(name string, handler HandlerFunc, opts Options) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.Buffer <= 0 {
		opts.Buffer = opts.Workers * 8
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		workers: opts.Workers,
		retries: opts.Retries,
		logger:  opts.Logger,
		tasks:   make(chan Task, opts.Buffer),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.started = true
	q.logger.Info("job queue started", zap.String("queue", q.name), zap.Int("workers", q.workers))
}

// Stop cancels in-flight work and waits for the workers to drain.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("job queue stopped", zap.String("queue", q.name))
}

// TryEnqueue offers a task without blocking. It reports whether the task was
// accepted; a stopped or saturated queue refuses it.
func (q *Queue) TryEnqueue(task Task) bool {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()
	if !started {
		return false
	}

	select {
	case q.tasks <- task:
		return true
	default:
		q.logger.Warn("job queue full, dropping task",
			zap.String("queue", q.name),
			zap.String("kind", task.Kind),
			zap.String("key", task.Key))
		return false
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			q.process(task)
		}
	}
}

func (q *Queue) process(task Task) {
	err := q.handler(q.ctx, task)
	if err == nil {
		return
	}
	if task.attempt >= q.retries {
		q.logger.Error("task abandoned",
			zap.String("queue", q.name),
			zap.String("kind", task.Kind),
			zap.String("key", task.Key),
			zap.Int("attempts", task.attempt+1),
			zap.Error(err))
		return
	}
	task.attempt++
	select {
	case <-q.ctx.Done():
	case <-time.After(time.Duration(task.attempt) * 200 * time.Millisecond):
		q.TryEnqueue(task)
	}
}
