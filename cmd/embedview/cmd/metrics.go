package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/embedview/pkg/metrics/prometheus"
)

func init() {
	RegisterCommand(&Command{
		Name:  "metrics",
		Short: "Serve Prometheus metrics while running the demo",
		Long: `Run the demo session with dispatch and registry metrics enabled and
serve them at /metrics until interrupted.

The listen address defaults to metrics.addr from embedview.yaml.

Usage:
  embedview metrics                  # listen on the configured address
  embedview metrics 127.0.0.1:9100   # listen on a specific address`,
		Usage: "embedview metrics [addr]",
		Run:   runMetrics,
	})
}

func runMetrics(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	addr := cfg.MetricsAddr
	if len(args) > 0 {
		addr = args[0]
	}

	reg := prom.NewRegistry()
	exporter, err := prometheus.NewExporter(cfg.MetricsNamespace, reg, prometheus.ExporterOptions{})
	if err != nil {
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()
	fmt.Fprintf(stdout, "serving metrics on http://%s/metrics\n", ln.Addr())

	svc := configure(cfg, exporter)
	if err := pumpUntilDone(svc, cfg.PumpInterval, func() error {
		return runSession(context.Background(), stdout, svc, defaultDemoURL, cfg.UserAgent)
	}); err != nil {
		srv.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintln(stdout, "demo finished; press Ctrl+C to stop")

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
