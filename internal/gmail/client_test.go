// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package gmail

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), 0).WithBaseURL(srv.URL)
}

func TestProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile", r.URL.Path)
		_, _ = w.Write([]byte(`{"emailAddress":"user@example.com"}`))
	})

	email, err := c.Profile(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", email)
}

func TestLabels_filtersSystemLabels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/labels", r.URL.Path)
		_, _ = w.Write([]byte(`{"labels":[
{"id":"INBOX","name":"INBOX","type":"system"},
{"id":"Label_1","name":"Newsletters/Weekly","type":"user"},
{"id":"SPAM","name":"SPAM","type":"system"},
{"id":"Label_2","name":"Newsletters/Daily","type":"user"}]}`))
	})

	labels, err := c.Labels(t.Context())
	require.NoError(t, err)
	require.Len(t, labels, 2)
	// User labels only, sorted by name.
	assert.Equal(t, "Label_2", labels[0].ID)
	assert.Equal(t, "Newsletters/Weekly", labels[1].Name)
}

func TestMessageIDs_paginates(t *testing.T) {
	var requests int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "Label_1", r.URL.Query().Get("labelIds"))

		requests++
		switch requests {
		case 1:
			assert.Empty(t, r.URL.Query().Get("pageToken"))
			_, _ = w.Write([]byte(
				`{"messages":[{"id":"m1"},{"id":"m2"}],"nextPageToken":"p2"}`))
		case 2:
			assert.Equal(t, "p2", r.URL.Query().Get("pageToken"))
			_, _ = w.Write([]byte(`{"messages":[{"id":"m3"}]}`))
		default:
			t.Error("unexpected extra request")
		}
	})

	ids, err := c.MessageIDs(t.Context(), "Label_1", time.Time{}, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)
	assert.Equal(t, 2, requests)
}

func TestMessageIDs_maxResults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(
			`{"messages":[{"id":"m1"},{"id":"m2"}],"nextPageToken":"p2"}`))
	})

	ids, err := c.MessageIDs(t.Context(), "Label_1", time.Time{}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func TestMessageIDs_afterQuery(t *testing.T) {
	after := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "after:1740787200", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{}`))
	})

	ids, err := c.MessageIDs(t.Context(), "Label_1", after, 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMessage_errorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404}}`, http.StatusNotFound)
	})

	_, err := c.Message(t.Context(), "nope")
	require.ErrorContains(t, err, "unexpected status")
}
