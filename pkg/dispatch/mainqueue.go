package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-drift/embedview/pkg/errors"
)

// MainQueueOptions configures a MainQueue.
type MainQueueOptions struct {
	// Name labels the thread in logs and metrics.
	Name string

	// Wake asks the platform to call Pump on the main thread soon. When
	// nil, the host must call Pump at regular intervals.
	Wake func(pump func())

	// IsMain reports whether the caller runs on the platform main thread.
	// When nil, only tasks the queue itself runs count as main.
	IsMain func() bool

	// Init runs once on the main thread before the first task. If it
	// fails, every task fails with a platform-init error.
	Init func() error

	// OnPump is called on the pumping thread at the start of every Pump.
	OnPump func()

	Metrics Metrics
}

// MainQueue runs work on the platform main thread. Calls already on the
// main thread run inline; others are queued and the caller blocks until the
// main thread drains the queue.
type MainQueue struct {
	id      ThreadID
	name    string
	wake    func(pump func())
	isMain  func() bool
	onPump  func()
	init    func() error
	metrics Metrics

	initOnce sync.Once
	initErr  error

	mu    sync.Mutex
	queue []func(ctx context.Context)

	pumping atomic.Bool
}

// NewMainQueue returns a main-thread queue.
func NewMainQueue(opts MainQueueOptions) *MainQueue {
	name := opts.Name
	if name == "" {
		name = "main"
	}
	return &MainQueue{
		id:      newThreadID(),
		name:    name,
		wake:    opts.Wake,
		isMain:  opts.IsMain,
		onPump:  opts.OnPump,
		init:    opts.Init,
		metrics: orNil(opts.Metrics),
	}
}

func (q *MainQueue) ID() ThreadID { return q.id }

func (q *MainQueue) Name() string { return q.name }

// IsCurrent reports whether the caller is on the main thread.
func (q *MainQueue) IsCurrent(ctx context.Context) bool {
	if Current(ctx) == q.id {
		return true
	}
	return q.isMain != nil && q.isMain()
}

func (q *MainQueue) enqueue(task func(ctx context.Context)) {
	q.mu.Lock()
	q.queue = append(q.queue, task)
	depth := len(q.queue)
	q.mu.Unlock()
	q.metrics.RecordQueueDepth(q.name, depth)
	if q.wake != nil {
		q.wake(q.Pump)
	}
}

// runTask runs fn on the main thread after the one-time init.
func (q *MainQueue) runTask(ctx context.Context, fn func(ctx context.Context) error) error {
	q.initOnce.Do(func() {
		if q.init == nil {
			return
		}
		if err := q.init(); err != nil {
			q.initErr = errors.PlatformInit("dispatch."+q.name, err)
		}
	})
	if q.initErr != nil {
		q.metrics.RecordTaskRejected(q.name, "init_failed")
		return q.initErr
	}
	return execute(ctx, q.id, q.name, q.metrics, fn)
}

// Run executes fn on the main thread and waits for it.
func (q *MainQueue) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if q.IsCurrent(ctx) {
		return q.runTask(ctx, fn)
	}
	done := make(chan error, 1)
	q.enqueue(func(mainCtx context.Context) {
		done <- q.runTask(mainCtx, fn)
	})
	return <-done
}

// Post schedules fn on the main thread without waiting. A post from the
// main thread itself runs inline.
func (q *MainQueue) Post(ctx context.Context, fn func(ctx context.Context)) {
	if q.IsCurrent(ctx) {
		errors.Report("dispatch."+q.name, q.runTask(ctx, postTask(fn)))
		return
	}
	q.enqueue(func(mainCtx context.Context) {
		errors.Report("dispatch."+q.name, q.runTask(mainCtx, postTask(fn)))
	})
}

// Pump runs every task queued before the call, in FIFO order, on the
// calling thread. Tasks queued while pumping wait for the next Pump.
// Nested calls return immediately.
func (q *MainQueue) Pump() {
	if !q.pumping.CompareAndSwap(false, true) {
		return
	}
	defer q.pumping.Store(false)

	if q.onPump != nil {
		q.onPump()
	}

	q.mu.Lock()
	tasks := q.queue
	q.queue = nil
	q.mu.Unlock()

	ctx := WithThread(context.Background(), q.id)
	for _, task := range tasks {
		task(ctx)
	}
}

// Pending returns the number of queued tasks.
func (q *MainQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}
