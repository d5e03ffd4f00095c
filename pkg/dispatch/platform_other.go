//go:build !linux && !windows && !(darwin && cgo)

package dispatch

// Without a known toolkit loop, the host drives the queue with Pump.
func newPlatformThread(cfg platformConfig) Thread {
	return NewMainQueue(MainQueueOptions{
		Name:    "host",
		Init:    cfg.init,
		Metrics: cfg.metrics,
	})
}
