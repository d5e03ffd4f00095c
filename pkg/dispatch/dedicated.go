package dispatch

import (
	"context"
	"runtime"
	"sync"

	"github.com/go-drift/embedview/pkg/errors"
	"github.com/go-drift/embedview/pkg/logging"
)

// DefaultQueueSize is the task buffer of a Dedicated thread.
const DefaultQueueSize = 1024

// DedicatedOptions configures a Dedicated thread.
type DedicatedOptions struct {
	// Name labels the thread in logs and metrics.
	Name string

	// Init runs once on the thread before any task, e.g. to initialize a
	// toolkit that must not be initialized twice. If it fails, every later
	// Run returns a platform-init error.
	Init func() error

	// QueueSize bounds the task buffer. Zero means DefaultQueueSize.
	QueueSize int

	Metrics Metrics
}

// Dedicated serializes all work onto one goroutine locked to its own OS
// thread. The thread starts on first use and lives until Close.
type Dedicated struct {
	id      ThreadID
	name    string
	init    func() error
	metrics Metrics

	queue chan func(ctx context.Context)
	quit  chan struct{}

	startOnce sync.Once
	ready     chan struct{}
	initErr   error
	osThread  uint64
	closeOnce sync.Once
	stopped   chan struct{}
}

// NewDedicated returns a dedicated thread. The OS thread is not started
// until the first Run or Post.
func NewDedicated(opts DedicatedOptions) *Dedicated {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	name := opts.Name
	if name == "" {
		name = "dedicated"
	}
	return &Dedicated{
		id:      newThreadID(),
		name:    name,
		init:    opts.Init,
		metrics: orNil(opts.Metrics),
		queue:   make(chan func(ctx context.Context), size),
		quit:    make(chan struct{}),
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (d *Dedicated) ID() ThreadID { return d.id }

func (d *Dedicated) Name() string { return d.name }

// IsCurrent reports whether ctx was issued by this thread, or the calling
// goroutine runs on the thread's OS thread.
func (d *Dedicated) IsCurrent(ctx context.Context) bool {
	if Current(ctx) == d.id {
		return true
	}
	select {
	case <-d.ready:
	default:
		return false
	}
	tid, ok := osThreadID()
	return ok && d.osThread != 0 && tid == d.osThread
}

func (d *Dedicated) start() {
	d.startOnce.Do(func() {
		go d.loop()
		<-d.ready
	})
}

func (d *Dedicated) loop() {
	runtime.LockOSThread()
	defer close(d.stopped)

	if tid, ok := osThreadID(); ok {
		d.osThread = tid
	}
	if d.init != nil {
		if err := d.init(); err != nil {
			d.initErr = errors.PlatformInit("dispatch."+d.name, err)
		}
	}
	logging.Logf("%s thread started init_err=%v", d.name, d.initErr)
	close(d.ready)
	if d.initErr != nil {
		return
	}

	ctx := WithThread(context.Background(), d.id)
	for {
		select {
		case task := <-d.queue:
			task(ctx)
		case <-d.quit:
			return
		}
	}
}

func (d *Dedicated) closed() bool {
	select {
	case <-d.quit:
		return true
	default:
		return false
	}
}

// enqueue hands task to the loop. It fails once the thread is closed or
// failed to initialize.
func (d *Dedicated) enqueue(task func(ctx context.Context)) error {
	d.start()
	if d.initErr != nil {
		d.metrics.RecordTaskRejected(d.name, "init_failed")
		return d.initErr
	}
	if d.closed() {
		d.metrics.RecordTaskRejected(d.name, "closed")
		return errors.Internal("dispatch."+d.name, "thread closed")
	}
	select {
	case d.queue <- task:
		d.metrics.RecordQueueDepth(d.name, len(d.queue))
		return nil
	case <-d.stopped:
		d.metrics.RecordTaskRejected(d.name, "closed")
		return errors.Internal("dispatch."+d.name, "thread closed")
	}
}

// Run executes fn on the dedicated thread and waits for it. A call from
// the thread itself runs inline.
func (d *Dedicated) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if d.IsCurrent(ctx) {
		return execute(ctx, d.id, d.name, d.metrics, fn)
	}
	done := make(chan error, 1)
	if err := d.enqueue(func(loopCtx context.Context) {
		done <- execute(loopCtx, d.id, d.name, d.metrics, fn)
	}); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-d.stopped:
		// The loop may have run the task just before stopping.
		select {
		case err := <-done:
			return err
		default:
			return errors.Internal("dispatch."+d.name, "thread stopped before running task")
		}
	}
}

// Post schedules fn without waiting. Failures are reported to the global
// error handler.
func (d *Dedicated) Post(ctx context.Context, fn func(ctx context.Context)) {
	err := d.enqueue(func(loopCtx context.Context) {
		errors.Report("dispatch."+d.name, execute(loopCtx, d.id, d.name, d.metrics, postTask(fn)))
	})
	errors.Report("dispatch."+d.name, err)
}

// Pump is a no-op; the dedicated thread drives its own loop.
func (d *Dedicated) Pump() {}

// Close stops the loop after the running task. Queued tasks are dropped
// and their callers receive an internal error. Close is idempotent.
func (d *Dedicated) Close() {
	d.closeOnce.Do(func() {
		close(d.quit)
	})
	select {
	case <-d.ready:
		<-d.stopped
	default:
	}
}
