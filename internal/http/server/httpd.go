// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package server // import "lettre.app/internal/http/server"

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"lettre.app/internal/api"
	"lettre.app/internal/config"
	"lettre.app/internal/fetchqueue"
	"lettre.app/internal/http/middleware"
	"lettre.app/internal/http/mux"
	"lettre.app/internal/metric"
	"lettre.app/internal/scheduler"
	"lettre.app/internal/storage"
	"lettre.app/internal/version"
)

// Listener creates the listen socket when the configured address is a Unix
// socket path. For TCP addresses the http.Server creates its own listener.
func Listener() (net.Listener, error) {
	if !config.Opts.HasHTTPService() {
		return nil, nil
	}

	listenAddr := config.Opts.ListenAddr()
	if !strings.HasPrefix(listenAddr, "/") {
		return nil, nil
	}

	l, err := unixListener(listenAddr, 0o666)
	if err != nil {
		return nil, fmt.Errorf("create unix listener on %q: %w", listenAddr,
			err)
	}
	return l, nil
}

func unixListener(path string, mode uint32) (*net.UnixListener, error) {
	if err := unlinkStaleUnix(path); err != nil {
		return nil, err
	}

	laddr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("http/server: resolve unix address: %w", err)
	}

	l, err := net.ListenUnix("unix", laddr)
	if err != nil {
		return nil, fmt.Errorf("http/server: listen unix: %w", err)
	}

	l.SetUnlinkOnClose(true)
	if mode == 0 {
		return l, nil
	}

	if err := os.Chmod(path, os.FileMode(mode)); err != nil {
		return nil, fmt.Errorf(
			"http/server: change socket mode to %O: %w", mode, err)
	}
	return l, nil
}

func unlinkStaleUnix(path string) error {
	sockdir := filepath.Dir(path)
	stat, err := os.Stat(sockdir)
	switch {
	case err != nil && os.IsNotExist(err):
		if err := os.MkdirAll(sockdir, 0o755); err != nil {
			return fmt.Errorf("http/server: cannot mkdir %q: %w", sockdir, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("http/server: cannot stat(2) %q: %w", sockdir, err)
	case !stat.IsDir():
		return fmt.Errorf("http/server: not a directory: %q", sockdir)
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("http/server: cannot remove stale socket: %w", err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("http/server: cannot stat(2): %w", err)
	}
	return nil
}

// StartWebServer starts serving the REST API on the configured address.
func StartWebServer(store *storage.Storage, queue *fetchqueue.Queue,
	sched *scheduler.Scheduler, labels api.LabelSource, g *errgroup.Group,
	listener net.Listener,
) *http.Server {
	listenAddr := config.Opts.ListenAddr()
	server := &http.Server{
		ReadTimeout:  config.Opts.HTTPServerTimeout(),
		WriteTimeout: config.Opts.HTTPServerTimeout(),
		IdleTimeout:  config.Opts.HTTPServerTimeout(),
		Handler:      setupHandler(store, queue, sched, labels),
	}

	if strings.HasPrefix(listenAddr, "/") {
		startUnixSocketServer(server, listenAddr, listener, g)
	} else {
		server.Addr = listenAddr
		startHTTPServer(server, g)
	}
	return server
}

func startUnixSocketServer(server *http.Server, path string,
	listener net.Listener, g *errgroup.Group,
) {
	g.Go(func() error {
		defer listener.Close()
		slog.Info("Starting server using a Unix socket",
			slog.String("socket", path))
		if err := server.Serve(listener); err != http.ErrServerClosed {
			slog.Error("failed serve on unix socket",
				slog.String("socket", path), slog.Any("error", err))
			return fmt.Errorf(
				"http/server: failed serve on unix socket %q: %w", path, err)
		}
		return nil
	})
}

func startHTTPServer(server *http.Server, g *errgroup.Group) {
	g.Go(func() error {
		slog.Info("Starting HTTP server",
			slog.String("listen_address", server.Addr))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("failed serve plain HTTP server", slog.Any("error", err))
			return fmt.Errorf("http/server: failed serve plain HTTP server: %w", err)
		}
		return nil
	})
}

func setupHandler(store *storage.Storage, queue *fetchqueue.Queue,
	sched *scheduler.Scheduler, labels api.LabelSource,
) http.Handler {
	serveMux := mux.New()

	readinessProbe := makeReadinessProbe(store)
	serveMux.HandleFunc("/liveness", livenessProbe).
		HandleFunc("/healthz", livenessProbe).
		HandleFunc("/readiness", readinessProbe).
		HandleFunc("/readyz", readinessProbe).
		HandleFunc("/healthcheck", readinessProbe).
		HandleFunc("/version", handleVersion)

	serveMux.Use(middleware.Gzip, middleware.RequestId, middleware.ClientIP)

	if config.Opts.HasMetricsCollector() {
		serveMux.Handle("/metrics", metric.Handler(store))
	}

	serveMux.Use(middleware.WithAccessLog("/healthcheck", "/metrics"),
		middleware.WithPanic)

	api.Serve(serveMux, store, queue, sched, labels)
	return serveMux
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(version.Version))
}
