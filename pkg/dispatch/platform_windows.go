//go:build windows

package dispatch

import (
	"sync/atomic"

	"golang.org/x/sys/windows"
)

// Windows has no integrated loop the module can post to; the host pumps
// the queue from its UI thread, which becomes the main thread.
func newPlatformThread(cfg platformConfig) Thread {
	var mainThread atomic.Uint32
	return NewMainQueue(MainQueueOptions{
		Name: "win32",
		Init: cfg.init,
		OnPump: func() {
			mainThread.Store(windows.GetCurrentThreadId())
		},
		IsMain: func() bool {
			tid := mainThread.Load()
			return tid != 0 && tid == windows.GetCurrentThreadId()
		},
		Metrics: cfg.metrics,
	})
}
