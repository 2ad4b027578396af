// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "lettre.app/internal/api"

import (
	"net/http"

	"lettre.app/internal/http/response/json"
	"lettre.app/internal/scheduler"
)

func (h *handler) queueStatus(w http.ResponseWriter, r *http.Request) {
	status := h.queue.Status()
	json.OK(w, r, &status)
}

func (h *handler) clearQueue(w http.ResponseWriter, r *http.Request) {
	h.queue.Clear()
	json.NoContent(w, r)
}

func (h *handler) resetQueueStats(w http.ResponseWriter, r *http.Request) {
	h.queue.ResetStats()
	json.NoContent(w, r)
}

type jobsResponse struct {
	Running bool                `json:"running"`
	Jobs    []scheduler.JobInfo `json:"jobs"`
}

func (h *handler) getJobs(w http.ResponseWriter, r *http.Request) {
	json.OK(w, r, &jobsResponse{
		Running: h.sched.IsRunning(),
		Jobs:    h.sched.Jobs(),
	})
}

func (h *handler) pauseScheduler(w http.ResponseWriter, r *http.Request) {
	h.sched.Pause()
	json.NoContent(w, r)
}

func (h *handler) resumeScheduler(w http.ResponseWriter, r *http.Request) {
	h.sched.Resume()
	json.NoContent(w, r)
}
