package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	wclog "github.com/vovakirdan/wirecode/internal/log"
	"github.com/vovakirdan/wirecode/internal/testbackend"
)

// devbackend serves the in-memory backend so the client can be tried
// without the real service.
func main() {
	addr := flag.String("addr", ":8000", "HTTP listen address")
	logLevel := flag.String("log-level", "info", "log level")
	readHeaderTimeout := flag.Duration("read-header-timeout", 5*time.Second, "HTTP read header timeout")
	shutdownTimeout := flag.Duration("shutdown-timeout", 5*time.Second, "graceful shutdown timeout")
	flag.Parse()

	logger := wclog.New(*logLevel, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend := testbackend.New()
	backend.SetSuggest(testbackend.PatternSuggest)
	server := &http.Server{
		Addr:              *addr,
		Handler:           backend.Handler(),
		ReadHeaderTimeout: *readHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	logger.Info().Str("addr", *addr).Msg("dev backend listening")

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		logger.Info().Msg("shutting down dev backend")
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}
