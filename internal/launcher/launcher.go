// Package launcher holds the process-lifecycle plumbing shared by the
// Tribbler cmd/* binaries: binding an HTTP server, waiting for shutdown
// signals, and notifying the readiness addresses a supervising bins-run
// process passes on the command line (spec §6.4).
package launcher

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

// ShutdownGrace bounds how long RunHTTPServer waits for in-flight requests
// to drain once a shutdown signal arrives.
const ShutdownGrace = 10 * time.Second

// RunHTTPServer binds and serves handler on addr until SIGINT or SIGTERM,
// then drains in-flight requests for up to ShutdownGrace before returning.
// It returns a non-nil error if the listener failed to bind, the server
// stopped for a reason other than a clean Shutdown call, or the drain did
// not finish within ShutdownGrace.
func RunHTTPServer(log zerolog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info().Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	return srv.Shutdown(ctx)
}

// WaitForSignal blocks until SIGINT or SIGTERM is received, then calls stop.
func WaitForSignal(log zerolog.Logger, stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")
	stop()
}

// NotifyReady best-effort POSTs an empty message to every addr in addrs,
// giving a bins-run-style supervisor a liveness signal (spec §6.4's
// --ready-addrs). Failures are logged, not returned: a launcher's own
// readiness does not depend on whether anyone is listening.
func NotifyReady(addrs []string, timeout time.Duration, log zerolog.Logger) {
	client := &http.Client{Timeout: timeout}
	for _, addr := range addrs {
		resp, err := client.Post(addr, "application/json", nil)
		if err != nil {
			log.Warn().Str("addr", addr).Err(err).Msg("ready notification failed")
			continue
		}
		resp.Body.Close()
	}
}
