// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lettre.app/internal/fetchqueue"
	"lettre.app/internal/gmail"
	"lettre.app/internal/http/mux"
	"lettre.app/internal/scheduler"
)

func newTestHandler(t *testing.T, labels LabelSource) http.Handler {
	t.Helper()
	ctx, cancel := context.WithCancel(t.Context())
	t.Cleanup(cancel)

	queue := fetchqueue.New(ctx,
		func(ctx context.Context, newsletterID int64) (int, error) {
			return 0, nil
		}, time.Minute)
	t.Cleanup(queue.Stop)
	sched := scheduler.New(ctx, time.Minute)

	m := mux.New()
	Serve(m, nil, queue, sched, labels)
	return m
}

func TestQueueStatus(t *testing.T) {
	h := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/queue/status",
		nil))
	require.Equal(t, http.StatusOK, w.Code)

	var status fetchqueue.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.False(t, status.IsRunning)
	assert.Zero(t, status.QueueLength)
	assert.Nil(t, status.CurrentTask)
}

func TestClearQueue(t *testing.T) {
	h := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/queue", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGetJobs(t *testing.T) {
	h := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp jobsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Running)
	assert.Empty(t, resp.Jobs)
}

func TestGetLabels_notAuthorized(t *testing.T) {
	h := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/labels", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "not authorized")
}

type fakeLabelSource struct {
	labels []gmail.Label
}

func (f *fakeLabelSource) Labels(ctx context.Context) ([]gmail.Label, error) {
	return f.labels, nil
}

func TestGetLabels(t *testing.T) {
	h := newTestHandler(t, &fakeLabelSource{
		labels: []gmail.Label{{ID: "Label_1", Name: "Newsletters/Go"}},
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/labels", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var labels []gmail.Label
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &labels))
	require.Len(t, labels, 1)
	assert.Equal(t, "Label_1", labels[0].ID)
}

func TestVersionHandler(t *testing.T) {
	h := newTestHandler(t, nil)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp VersionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.GoVersion)
}
