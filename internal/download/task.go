package download

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// Task is one queued download. Cancel aborts it at the next chunk boundary.
type Task struct {
	ID    string
	Label string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	result Result
}

// Cancel requests cancellation. It is safe to call more than once.
func (t *Task) Cancel() { t.cancel() }

// Cancelled reports whether the task's context has ended.
func (t *Task) Cancelled() bool { return t.ctx.Err() != nil }

// Done is closed once the task has a result.
func (t *Task) Done() <-chan struct{} { return t.done }

// Result blocks until the task finishes and returns its outcome.
func (t *Task) Result() Result {
	<-t.done
	return t.result
}

// Queue runs download tasks on a bounded worker pool.
type Queue struct {
	ctx   context.Context
	pool  *pool.ContextPool
	mu    sync.Mutex
	tasks []*Task
}

// NewQueue starts a queue that runs at most concurrency tasks at once.
func NewQueue(ctx context.Context, concurrency int) *Queue {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Queue{
		ctx:  ctx,
		pool: pool.New().WithContext(ctx).WithMaxGoroutines(concurrency),
	}
}

// Submit schedules run and returns its task handle. Submit blocks while
// every worker is busy.
func (q *Queue) Submit(label string, run func(ctx context.Context) Result) *Task {
	ctx, cancel := context.WithCancel(q.ctx)
	task := &Task{
		ID:     uuid.NewString(),
		Label:  label,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	q.pool.Go(func(context.Context) error {
		defer close(task.done)
		defer cancel()
		task.result = run(ctx)
		return nil
	})
	return task
}

// Tasks returns the submitted tasks in submission order.
func (q *Queue) Tasks() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Task(nil), q.tasks...)
}

// Wait blocks until all tasks finish and returns results in submission order.
func (q *Queue) Wait() []Result {
	_ = q.pool.Wait()
	tasks := q.Tasks()
	results := make([]Result, 0, len(tasks))
	for _, t := range tasks {
		results = append(results, t.Result())
	}
	return results
}
