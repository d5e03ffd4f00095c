//go:build linux

package dispatch

// GTK may only be initialized once and never called from another thread,
// so Linux serializes everything onto a dedicated thread.
func newPlatformThread(cfg platformConfig) Thread {
	return NewDedicated(DedicatedOptions{
		Name:      "gtk",
		Init:      cfg.init,
		QueueSize: cfg.queueSize,
		Metrics:   cfg.metrics,
	})
}
