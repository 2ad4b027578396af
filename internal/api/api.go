// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "lettre.app/internal/api"

import (
	"context"
	"net/http"
	"runtime"

	"lettre.app/internal/fetchqueue"
	"lettre.app/internal/gmail"
	"lettre.app/internal/http/mux"
	"lettre.app/internal/http/response/json"
	"lettre.app/internal/scheduler"
	"lettre.app/internal/storage"
	"lettre.app/internal/version"
)

const PathPrefix = "/v1"

// LabelSource lists Gmail labels for the label discovery endpoint. Nil when
// the Gmail account isn't authorized yet.
type LabelSource interface {
	Labels(ctx context.Context) ([]gmail.Label, error)
}

type handler struct {
	store  *storage.Storage
	queue  *fetchqueue.Queue
	sched  *scheduler.Scheduler
	labels LabelSource
}

// Serve declares API routes for the application. labels may be nil when the
// Gmail account isn't authorized yet.
func Serve(m *mux.ServeMux, store *storage.Storage, queue *fetchqueue.Queue,
	sched *scheduler.Scheduler, labels LabelSource,
) {
	m = m.PrefixGroup(PathPrefix)

	handler := &handler{store: store, queue: queue, sched: sched,
		labels: labels}

	m.HandleFunc("POST /newsletters", handler.createNewsletter).
		HandleFunc("GET /newsletters", handler.getNewsletters).
		HandleFunc("GET /newsletters/{newsletterID}", handler.getNewsletter).
		HandleFunc("PUT /newsletters/{newsletterID}", handler.updateNewsletter).
		HandleFunc("DELETE /newsletters/{newsletterID}",
			handler.removeNewsletter).
		HandleFunc("PUT /newsletters/{newsletterID}/schedule",
			handler.updateNewsletterSchedule).
		HandleFunc("PUT /newsletters/refresh", handler.refreshAllNewsletters).
		HandleFunc("/newsletters/{newsletterID}/refresh",
			handler.refreshNewsletter).
		HandleFunc("/newsletters/{newsletterID}/mark-all-as-read",
			handler.markNewsletterAsRead).
		HandleFunc("GET /newsletters/{newsletterID}/emails",
			handler.getNewsletterEmails).
		HandleFunc("GET /labels", handler.getLabels).
		HandleFunc("GET /emails", handler.getEmails).
		HandleFunc("GET /emails/{emailID}", handler.getEmail).
		HandleFunc("DELETE /emails/{emailID}", handler.removeEmail).
		HandleFunc("/emails/{emailID}/read", handler.markEmailAsRead).
		HandleFunc("/emails/{emailID}/unread", handler.markEmailAsUnread).
		HandleFunc("/emails/{emailID}/star", handler.toggleEmailStar).
		HandleFunc("/emails/{emailID}/archive", handler.archiveEmail).
		HandleFunc("/emails/{emailID}/unarchive", handler.unarchiveEmail).
		HandleFunc("GET /queue/status", handler.queueStatus).
		HandleFunc("DELETE /queue", handler.clearQueue).
		HandleFunc("/queue/reset-stats", handler.resetQueueStats).
		HandleFunc("GET /jobs", handler.getJobs).
		HandleFunc("/scheduler/pause", handler.pauseScheduler).
		HandleFunc("/scheduler/resume", handler.resumeScheduler).
		HandleFunc("/version", handler.versionHandler)
}

// VersionResponse describes the running build.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Compiler  string `json:"compiler"`
	Arch      string `json:"arch"`
	OS        string `json:"os"`
}

func (h *handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	json.OK(w, r, &VersionResponse{
		Version:   version.Version,
		Commit:    version.Commit,
		BuildDate: version.BuildDate,
		GoVersion: runtime.Version(),
		Compiler:  runtime.Compiler,
		Arch:      runtime.GOARCH,
		OS:        runtime.GOOS,
	})
}
