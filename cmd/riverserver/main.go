// File: cmd/riverserver/main.go
// Command riverserver hosts the River v2.0 server core over a single HTTP
// listener: it upgrades every request on Config.Path to a WebSocket
// transport and hands it to a dispatch.Server running the example adder
// service, then waits for SIGINT/SIGTERM and tears down within
// Config.ShutdownTimeout.
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/flowmux/river/api"
	"github.com/flowmux/river/dispatch"
	"github.com/flowmux/river/examples/adder"
	"github.com/flowmux/river/transport"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults used when empty)")
	addr := flag.String("addr", "", "listen address override, e.g. :8080")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := dispatch.DefaultConfig()
	if *configPath != "" {
		loaded, err := dispatch.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	srv, err := dispatch.NewServer(cfg, []api.ServiceHandler{adder.New()}, dispatch.WithLogger(logger))
	if err != nil {
		logger.Error("failed to construct server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		t, err := transport.Upgrade(w, r)
		if err != nil {
			logger.Warn("upgrade failed", "remoteAddr", r.RemoteAddr, "error", err)
			return
		}
		defer t.Close()

		clientID := r.RemoteAddr
		if err := srv.ServeTransport(r.Context(), clientID, t); err != nil {
			logger.Info("connection closed", "clientId", clientID, "error", err)
		}
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr, "path", cfg.Path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown timed out", "error", err)
	}
}
