// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "lettre.app/internal/storage"

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

var (
	poolAcquireCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "pgx_acquire_count",
		Help:      "The cumulative count of successful acquires from the pool",
	})

	poolAcquireDurationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "pgx_acquire_duration",
		Help:      "The total duration of all successful acquires from the pool",
	})

	poolAcquiredConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "pgx_acquired_conns",
		Help:      "The number of currently acquired connections in the pool",
	})

	poolIdleConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "pgx_idle_conns",
		Help:      "The number of currently idle conns in the pool",
	})

	poolMaxConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "pgx_max_conns",
		Help:      "The maximum size of the pool",
	})

	poolTotalConnsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "pgx_total_conns",
		Help:      "The total number of resources currently in the pool",
	})

	newslettersGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "newsletters",
		Help:      "Number of newsletters by active state",
	}, []string{"state"})

	emailsGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lettre",
		Name:      "emails",
		Help:      "Number of emails by read state",
	}, []string{"status"})
)

func (s *Storage) RegisterMetrics() {
	prometheus.MustRegister(
		poolAcquireCountGauge,
		poolAcquireDurationGauge,
		poolAcquiredConnsGauge,
		poolIdleConnsGauge,
		poolMaxConnsGauge,
		poolTotalConnsGauge,
		newslettersGauge,
		emailsGauge)
}

func (s *Storage) Metrics(ctx context.Context, fromDB bool) error {
	if fromDB {
		if err := s.metricsFromDB(ctx); err != nil {
			return err
		}
	}

	stat := s.db.Stat()
	poolAcquireCountGauge.Set(float64(stat.AcquireCount()))
	poolAcquireDurationGauge.Set(float64(stat.AcquireDuration()))
	poolAcquiredConnsGauge.Set(float64(stat.AcquiredConns()))
	poolIdleConnsGauge.Set(float64(stat.IdleConns()))
	poolMaxConnsGauge.Set(float64(stat.MaxConns()))
	poolTotalConnsGauge.Set(float64(stat.TotalConns()))
	return nil
}

func (s *Storage) metricsFromDB(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.updateNewslettersGauge(ctx) })
	g.Go(func() error { return s.updateEmailsGauge(ctx) })
	return g.Wait() //nolint:wrapcheck // already wrapped
}

func (s *Storage) updateNewslettersGauge(ctx context.Context) error {
	counts, err := s.CountNewsletters(ctx)
	if err != nil {
		return err
	}
	for active, count := range counts {
		state := "inactive"
		if active {
			state = "active"
		}
		newslettersGauge.WithLabelValues(state).Set(float64(count))
	}
	return nil
}

func (s *Storage) updateEmailsGauge(ctx context.Context) error {
	counts, err := s.CountAllEmails(ctx)
	if err != nil {
		return err
	}
	for status, count := range counts {
		emailsGauge.WithLabelValues(status).Set(float64(count))
	}
	return nil
}
