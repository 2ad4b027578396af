// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package metric // import "lettre.app/internal/metric"

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lettre.app/internal/config"
	"lettre.app/internal/logging"
	"lettre.app/internal/storage"
)

// Prometheus Metrics.
var (
	NewsletterFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lettre",
			Name:      "newsletter_fetch_duration",
			Help:      "Processing time of one newsletter fetch in the background worker",
			Buckets:   prometheus.LinearBuckets(1, 2, 15),
		},
		[]string{"status"},
	)

	GmailRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lettre",
			Name:      "gmail_request_duration",
			Help:      "Gmail API request duration",
			Buckets:   prometheus.LinearBuckets(1, 2, 15),
		},
		[]string{"status"},
	)
)

// Enabled reports whether the Prometheus collector is turned on.
func Enabled() bool {
	return config.Opts != nil && config.Opts.HasMetricsCollector()
}

func RegisterMetrics(store *storage.Storage) {
	prometheus.MustRegister(NewsletterFetchDuration)
	prometheus.MustRegister(GmailRequestDuration)
	store.RegisterMetrics()
}

func Handler(store *storage.Storage) http.Handler {
	promHandler := promhttp.Handler()
	var lastStorageMetricsAt time.Time

	fn := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		log := logging.FromContext(ctx)
		if !isAllowedToAccessMetricsEndpoint(r) {
			log.Warn("Authentication failed while accessing the metrics endpoint",
				slog.String("client_remote_addr", r.RemoteAddr),
				slog.String("client_user_agent", r.UserAgent()),
			)
			http.NotFound(w, r)
			return
		}

		d := time.Since(lastStorageMetricsAt)
		fromDB := d >= config.Opts.MetricsRefreshInterval()
		if fromDB {
			lastStorageMetricsAt = time.Now()
		}
		if err := store.Metrics(ctx, fromDB); err != nil {
			log.Error("unable collect storage metrics", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError),
				http.StatusInternalServerError)
			return
		}
		promHandler.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func isAllowedToAccessMetricsEndpoint(r *http.Request) bool {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}
	if remoteIP == "@" {
		// Request sent via a Unix socket, always consider these trusted.
		return true
	}

	for _, cidr := range config.Opts.MetricsAllowedNetworks() {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(net.ParseIP(remoteIP)) {
			return true
		}
	}
	return false
}
