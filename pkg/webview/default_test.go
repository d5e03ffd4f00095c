package webview

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/embedview/pkg/dispatch"
	"github.com/go-drift/embedview/pkg/engine/memengine"
	"github.com/go-drift/embedview/pkg/logging"
)

func TestDefaultService(t *testing.T) {
	thread := dispatch.NewDedicated(dispatch.DedicatedOptions{Name: "default"})
	t.Cleanup(thread.Close)
	f := memengine.NewFactory()
	f.AutoFinish = true
	SetDefaultOptions(Options{Thread: thread, Factory: f, Resolver: anyWindow})

	var mu sync.Mutex
	var lines []string
	SetLogSink(logging.SinkFunc(func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
	}))
	SetLoggingEnabled(true)
	t.Cleanup(func() {
		SetLoggingEnabled(false)
		SetLogSink(nil)
	})

	ctx := context.Background()
	id, err := Create(ctx, testParent, 320, 240, "https://example.com", nil)
	require.NoError(t, err)
	assert.Same(t, Default(), Default())

	require.NoError(t, LoadHTML(ctx, id, "<title>Doc</title>"))
	require.NoError(t, Flush(id))
	title, err := Title(id)
	require.NoError(t, err)
	assert.Equal(t, "Doc", title)

	require.NoError(t, Destroy(ctx, id))
	require.NoError(t, Destroy(ctx, id))
	Pump()

	SetLoggingEnabled(false)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, lines, logging.Prefix+"destroy_webview id=1")
}
