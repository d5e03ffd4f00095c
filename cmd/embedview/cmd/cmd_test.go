package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-drift/embedview/pkg/dispatch"
	"github.com/go-drift/embedview/pkg/webview"
)

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestExecuteHelpAndVersion(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no args", nil, "Commands:"},
		{"help", []string{"--help"}, "demo"},
		{"version flag", []string{"-v"}, "embedview version " + Version},
		{"version command", []string{"version"}, "embedview version " + Version},
		{"command help", []string{"demo", "--help"}, "embedview demo [url]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureStdout(t)
			if err := execute(tt.args); err != nil {
				t.Fatalf("execute(%v): %v", tt.args, err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, buf.String())
			}
		})
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	captureStdout(t)
	if err := execute([]string{"bogus"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunSession(t *testing.T) {
	thread := dispatch.NewMainQueue(dispatch.MainQueueOptions{Name: "test-main"})
	svc := webview.New(webview.Options{
		Thread:      thread,
		Factory:     newDemoFactory(),
		Resolver:    headlessWindow,
		AsyncBounds: true,
	})

	var out bytes.Buffer
	err := pumpUntilDone(svc, time.Millisecond, func() error {
		return runSession(context.Background(), &out, svc, "https://example.com", "Demo/1.0")
	})
	if err != nil {
		t.Fatalf("runSession: %v\n%s", err, out.String())
	}

	for _, want := range []string{
		`created webview id=1 on thread "test-main"`,
		`load html:    url=about:blank title="embedview demo"`,
		`go back:      url=about:blank`,
		`go forward:   url=https://example.com/about`,
		"cookie session=demo",
		`document.title = "embedview demo"`,
		`messages ["ready" "clicked"]`,
		"destroyed id=1",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}
