//go:build darwin && cgo

package dispatch

/*
#cgo LDFLAGS: -framework Foundation
#include <dispatch/dispatch.h>
#include <pthread.h>
#include <stdint.h>

extern void embedviewMainTrampoline(uintptr_t handle);

static void embedview_main_entry(void *ctx) {
	embedviewMainTrampoline((uintptr_t)ctx);
}

static void embedview_post_main(uintptr_t handle) {
	dispatch_async_f(dispatch_get_main_queue(), (void *)handle, embedview_main_entry);
}

static int embedview_is_main(void) {
	return pthread_main_np();
}
*/
import "C"

import "runtime/cgo"

// AppKit widgets belong to the process main thread, reached through GCD's
// main queue.
func newPlatformThread(cfg platformConfig) Thread {
	return NewMainQueue(MainQueueOptions{
		Name: "appkit",
		Init: cfg.init,
		Wake: func(pump func()) {
			C.embedview_post_main(C.uintptr_t(cgo.NewHandle(pump)))
		},
		IsMain:  func() bool { return C.embedview_is_main() != 0 },
		Metrics: cfg.metrics,
	})
}
