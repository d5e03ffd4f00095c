package dispatch

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-drift/embedview/pkg/errors"
)

func newDedicated(t *testing.T, opts DedicatedOptions) *Dedicated {
	t.Helper()
	d := NewDedicated(opts)
	t.Cleanup(d.Close)
	return d
}

func TestCurrent(t *testing.T) {
	if Current(context.Background()) != 0 {
		t.Error("background context should carry no thread")
	}
	ctx := WithThread(context.Background(), 7)
	if Current(ctx) != 7 {
		t.Errorf("Current() = %d", Current(ctx))
	}
}

func TestThreadIDsAreUnique(t *testing.T) {
	a := NewMainQueue(MainQueueOptions{})
	b := NewMainQueue(MainQueueOptions{})
	if a.ID() == 0 || a.ID() == b.ID() {
		t.Errorf("ids %d and %d", a.ID(), b.ID())
	}
}

func TestDedicatedRunsOnItsThread(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{Name: "test"})

	var seen ThreadID
	err := d.Run(context.Background(), func(ctx context.Context) error {
		seen = Current(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if seen != d.ID() {
		t.Errorf("task ran with thread %d, want %d", seen, d.ID())
	}
	if d.IsCurrent(context.Background()) {
		t.Error("test goroutine must not be current")
	}
}

func TestDedicatedReentrantRunIsInline(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{})

	err := d.Run(context.Background(), func(ctx context.Context) error {
		return d.Run(ctx, func(ctx context.Context) error {
			if !d.IsCurrent(ctx) {
				t.Error("nested task should be current")
			}
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested Run deadlocked or failed: %v", err)
	}
}

func TestDedicatedPropagatesError(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{})
	want := stderrors.New("native failure")
	if err := d.Run(context.Background(), func(context.Context) error { return want }); err != want {
		t.Errorf("Run err = %v, want %v", err, want)
	}
}

func TestDedicatedRecoversPanic(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{})
	err := d.Run(context.Background(), func(context.Context) error { panic("boom") })
	if !stderrors.Is(err, errors.ErrInternal) {
		t.Fatalf("err = %v, want internal", err)
	}
	var ee *errors.EmbedError
	if !stderrors.As(err, &ee) {
		t.Fatalf("err = %T, want *EmbedError", err)
	}
	if ee.Op != "dispatch.dedicated" || ee.StackTrace == "" || !strings.Contains(ee.Error(), "boom") {
		t.Errorf("op=%q stack=%d err=%v", ee.Op, len(ee.StackTrace), ee)
	}
	// The thread survives the panic.
	if err := d.Run(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Errorf("Run after panic: %v", err)
	}
}

func TestDedicatedInitOnce(t *testing.T) {
	var calls atomic.Int32
	d := newDedicated(t, DedicatedOptions{Init: func() error {
		calls.Add(1)
		return nil
	}})
	for i := 0; i < 3; i++ {
		if err := d.Run(context.Background(), func(context.Context) error { return nil }); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("init ran %d times", calls.Load())
	}
}

func TestDedicatedInitFailure(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{Init: func() error { return stderrors.New("no display") }})
	for i := 0; i < 2; i++ {
		err := d.Run(context.Background(), func(context.Context) error {
			t.Error("task must not run after init failure")
			return nil
		})
		if !stderrors.Is(err, errors.ErrPlatformInit) {
			t.Errorf("err = %v, want platform init failure", err)
		}
	}
}

func TestDedicatedFIFO(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{})
	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		i := i
		d.Post(context.Background(), func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	// Run waits behind every earlier post.
	if err := d.Run(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 50 {
		t.Fatalf("ran %d posts", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d", i, v)
		}
	}
}

func TestDedicatedClose(t *testing.T) {
	d := NewDedicated(DedicatedOptions{})
	if err := d.Run(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	d.Close()
	d.Close()
	err := d.Run(context.Background(), func(context.Context) error { return nil })
	if !stderrors.Is(err, errors.ErrInternal) {
		t.Errorf("Run after Close err = %v", err)
	}
}

func TestCall(t *testing.T) {
	d := newDedicated(t, DedicatedOptions{})
	got, err := Call(context.Background(), d, func(ctx context.Context) (string, error) {
		return "result", nil
	})
	if err != nil || got != "result" {
		t.Errorf("Call = %q, %v", got, err)
	}
}

func TestMainQueuePump(t *testing.T) {
	q := NewMainQueue(MainQueueOptions{Name: "main"})

	result := make(chan error, 1)
	var ran ThreadID
	go func() {
		result <- q.Run(context.Background(), func(ctx context.Context) error {
			ran = Current(ctx)
			return nil
		})
	}()

	deadline := time.After(2 * time.Second)
	for q.Pending() == 0 {
		select {
		case <-deadline:
			t.Fatal("task never queued")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	select {
	case <-result:
		t.Fatal("Run returned before the queue was pumped")
	default:
	}

	q.Pump()
	if err := <-result; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ran != q.ID() {
		t.Errorf("task thread = %d, want %d", ran, q.ID())
	}
}

func TestMainQueueInlineOnMain(t *testing.T) {
	q := NewMainQueue(MainQueueOptions{IsMain: func() bool { return true }})
	called := false
	if err := q.Run(context.Background(), func(ctx context.Context) error {
		called = Current(ctx) == q.ID()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("expected inline execution marked with the queue's thread")
	}
}

func TestMainQueueWake(t *testing.T) {
	q := NewMainQueue(MainQueueOptions{Wake: func(pump func()) { go pump() }})
	got, err := Call(context.Background(), q, func(context.Context) (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("Call = %d, %v", got, err)
	}
}

func TestMainQueueInitFailure(t *testing.T) {
	var calls int
	q := NewMainQueue(MainQueueOptions{
		Wake: func(pump func()) { go pump() },
		Init: func() error {
			calls++
			return stderrors.New("ole init failed")
		},
	})
	for i := 0; i < 2; i++ {
		err := q.Run(context.Background(), func(context.Context) error { return nil })
		if !stderrors.Is(err, errors.ErrPlatformInit) {
			t.Errorf("err = %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("init ran %d times", calls)
	}
}

func TestMainQueuePostLastWins(t *testing.T) {
	q := NewMainQueue(MainQueueOptions{})
	var last int
	for i := 1; i <= 5; i++ {
		i := i
		q.Post(context.Background(), func(context.Context) { last = i })
	}
	q.Pump()
	if last != 5 {
		t.Errorf("last = %d, want 5", last)
	}
	if q.Pending() != 0 {
		t.Errorf("pending = %d", q.Pending())
	}
}

type countingMetrics struct {
	NilMetrics
	tasks  atomic.Int32
	panics atomic.Int32
}

func (m *countingMetrics) RecordTaskDuration(string, time.Duration) { m.tasks.Add(1) }
func (m *countingMetrics) RecordTaskPanic(string, any)              { m.panics.Add(1) }

func TestMetricsHook(t *testing.T) {
	m := &countingMetrics{}
	d := newDedicated(t, DedicatedOptions{Metrics: m})
	_ = d.Run(context.Background(), func(context.Context) error { return nil })
	_ = d.Run(context.Background(), func(context.Context) error { panic("x") })
	if m.tasks.Load() != 2 || m.panics.Load() != 1 {
		t.Errorf("tasks=%d panics=%d", m.tasks.Load(), m.panics.Load())
	}
}
