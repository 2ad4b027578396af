// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "lettre.app/internal/cli"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lettre.app/internal/api"
	"lettre.app/internal/config"
	"lettre.app/internal/crypto"
	"lettre.app/internal/fetchqueue"
	"lettre.app/internal/gmail"
	"lettre.app/internal/http/server"
	"lettre.app/internal/metric"
	"lettre.app/internal/model"
	"lettre.app/internal/reader/handler"
	"lettre.app/internal/scheduler"
	"lettre.app/internal/storage"
)

func NewDaemon() *Daemon { return &Daemon{} }

type Daemon struct {
	store      *storage.Storage
	gmail      *gmail.Client
	queue      *fetchqueue.Queue
	sched      *scheduler.Scheduler
	g          *errgroup.Group
	httpServer *http.Server
}

func (self *Daemon) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, os.Interrupt)
	defer cancel()

	slog.Info("Starting daemon...")
	defer self.close(ctx)

	if err := self.configure(ctx); err != nil {
		return err
	}

	if err := self.start(ctx); err != nil {
		return err
	}
	return self.wait(ctx)
}

func (self *Daemon) close(ctx context.Context) {
	if self.store != nil {
		self.store.Close(ctx)
	}
}

func (self *Daemon) configure(ctx context.Context) error {
	store, err := makeStorage(ctx)
	if err != nil {
		return err
	}
	self.store = store

	// Run migrations and start the daemon.
	if config.Opts.RunMigrations() {
		if err := self.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := self.store.SchemaUpToDate(ctx); err != nil {
		return err
	}

	if err := self.connectGmail(ctx); err != nil {
		return err
	}
	return self.seedNewsletters(ctx)
}

// connectGmail builds the Gmail client from the stored OAuth credential. A
// missing credential isn't fatal: the daemon runs, serves the API and gets
// a working client on the next restart after "lettre authorize".
func (self *Daemon) connectGmail(ctx context.Context) error {
	box := crypto.NewBox(config.Opts.CredentialsKey())
	httpClient, err := gmail.NewAuthorizedClient(ctx, self.store, box)
	if errors.Is(err, gmail.ErrNoCredential) {
		slog.Warn("No Gmail credential stored, fetching is disabled",
			slog.String("hint", "run \"lettre authorize\""))
		return nil
	} else if err != nil {
		return err
	}

	self.gmail = gmail.New(httpClient, config.Opts.GmailRateLimit())
	return nil
}

// seedNewsletters upserts the newsletters declared in the YAML
// configuration file.
func (self *Daemon) seedNewsletters(ctx context.Context) error {
	for _, seed := range config.Opts.NewsletterSeeds() {
		known, err := self.store.NewsletterByLabelID(ctx, seed.LabelID)
		if err != nil {
			return err
		} else if known != nil {
			continue
		}

		newsletter, err := self.store.CreateNewsletter(ctx,
			&model.NewsletterCreationRequest{
				Name:                 seed.Name,
				GmailLabelID:         seed.LabelID,
				GmailLabelName:       seed.LabelName,
				AutoFetchEnabled:     seed.AutoFetch,
				FetchIntervalMinutes: seed.IntervalMinutes,
			})
		if err != nil {
			return err
		}
		slog.Info("Created newsletter from configuration",
			slog.Int64("newsletter_id", newsletter.ID),
			slog.String("name", newsletter.Name))
	}
	return nil
}

func (self *Daemon) start(ctx context.Context) error {
	listener, err := server.Listener()
	if err != nil {
		return err
	}

	self.g, ctx = errgroup.WithContext(ctx)

	self.queue = fetchqueue.New(ctx, self.fetchNewsletter,
		config.Opts.FetchQueueDelay())
	self.sched = scheduler.New(ctx, config.Opts.MisfireGraceTime())
	self.sched.Initialize(func(ctx context.Context, newsletterID int64,
	) error {
		self.queue.Push(newsletterID, fetchqueue.PriorityNormal)
		return nil
	})

	if config.Opts.HasSchedulerService() {
		if err := self.startScheduler(ctx); err != nil {
			return err
		}
	}

	if config.Opts.HasHTTPService() {
		self.httpServer = server.StartWebServer(self.store, self.queue,
			self.sched, self.labelSource(), self.g, listener)
	}

	if config.Opts.HasMetricsCollector() {
		metric.RegisterMetrics(self.store)
	}
	return nil
}

func (self *Daemon) fetchNewsletter(ctx context.Context, newsletterID int64,
) (int, error) {
	if self.gmail == nil {
		return 0, gmail.ErrNoCredential
	}
	return handler.RefreshNewsletter(ctx, self.store, self.gmail,
		newsletterID)
}

func (self *Daemon) labelSource() api.LabelSource {
	if self.gmail == nil {
		return nil
	}
	return self.gmail
}

// startScheduler registers a recurring fetch job for every active
// newsletter with auto-fetch enabled and starts the timers.
func (self *Daemon) startScheduler(ctx context.Context) error {
	newsletters, err := self.store.Newsletters(ctx, true)
	if err != nil {
		return err
	}

	for _, newsletter := range newsletters {
		if !newsletter.AutoFetchEnabled {
			continue
		}
		if err := self.sched.ScheduleNewsletterFetch(newsletter.ID,
			newsletter.FetchIntervalMinutes); err != nil {
			return err
		}
	}
	return self.sched.Start()
}

func (self *Daemon) wait(ctx context.Context) error {
	<-ctx.Done()
	slog.Info("Shutting down the process gracefully...")

	self.queue.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		5*time.Second)
	defer cancel()

	if err := self.sched.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed shutdown scheduler", slog.Any("error", err))
	}

	if self.httpServer != nil {
		if err := self.httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed shutdown http server", slog.Any("error", err))
		}
	}

	if err := self.g.Wait(); err != nil {
		slog.Error("process stopped with error", slog.Any("error", err))
		return fmt.Errorf("process stopped with error: %w", err)
	}
	slog.Info("Process gracefully stopped")
	return nil
}
