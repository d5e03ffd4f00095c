package dispatch

import "sync"

// platformConfig is captured when the platform thread is first created.
type platformConfig struct {
	init      func() error
	metrics   Metrics
	queueSize int
}

var (
	platformMu  sync.Mutex
	platformCfg platformConfig

	platformOnce   sync.Once
	platformThread Thread
)

// SetPlatformInit registers the toolkit initialization hook run once on the
// platform thread. It must be called before the first use of [Platform].
func SetPlatformInit(fn func() error) {
	platformMu.Lock()
	platformCfg.init = fn
	platformMu.Unlock()
}

// SetPlatformMetrics registers the metrics sink of the platform thread. It
// must be called before the first use of [Platform].
func SetPlatformMetrics(m Metrics) {
	platformMu.Lock()
	platformCfg.metrics = m
	platformMu.Unlock()
}

// SetPlatformQueueSize bounds the task buffer of platforms that use a
// dedicated thread. It must be called before the first use of [Platform].
func SetPlatformQueueSize(n int) {
	platformMu.Lock()
	platformCfg.queueSize = n
	platformMu.Unlock()
}

// Platform returns the process-wide thread selected for this build target.
// It is created on first use and never torn down.
func Platform() Thread {
	platformOnce.Do(func() {
		platformMu.Lock()
		cfg := platformCfg
		platformMu.Unlock()
		cfg.metrics = orNil(cfg.metrics)
		platformThread = newPlatformThread(cfg)
	})
	return platformThread
}
