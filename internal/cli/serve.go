package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/parley/internal/config"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/dialogue"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// shutdownTimeout bounds how long outstanding requests may run after a signal.
const shutdownTimeout = 5 * time.Second

// ServeOptions configures the HTTP server command.
type ServeOptions struct {
	ConfigPath string
	// Addr overrides server.addr from the config.
	Addr  string
	Debug bool
	Out   io.Writer
}

// Serve runs the HTTP API until SIGINT/SIGTERM, then shuts down gracefully.
func Serve(opts ServeOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}
	logger := createLogger(cfg.Log, opts.Debug, false)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return err
	}
	eventLog := observability.NewLogger(logger)

	engine, be, err := createEngine(sigCtx, cfg, EngineOptions{
		Participants: func() []dialogue.Participant {
			return []dialogue.Participant{metrics, eventLog}
		},
	}, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	handler := httpAdapter.NewHandler(engine,
		httpAdapter.WithLogger(logger),
		httpAdapter.WithMetrics(reg),
		httpAdapter.WithMaxInputSize(cfg.Runner.MaxInputSize),
	)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(opts.Out, "Parley server listening on %s", srv.Addr)
		printSystemMessage(opts.Out, "Scripts: %s, store: %s", cfg.Scripts.Dir, cfg.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		printSystemMessage(opts.Out, "Shutting down (%v).", sigCtx.Signal())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		printSystemMessage(opts.Out, "Server stopped.")
		return nil
	}
}
