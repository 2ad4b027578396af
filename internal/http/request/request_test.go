// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package request

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteInt64Param(t *testing.T) {
	r := httptest.NewRequest("GET", "/newsletters/42", nil)
	r.SetPathValue("newsletterID", "42")
	assert.Equal(t, int64(42), RouteInt64Param(r, "newsletterID"))

	r.SetPathValue("newsletterID", "abc")
	assert.Equal(t, int64(0), RouteInt64Param(r, "newsletterID"))

	r.SetPathValue("newsletterID", "-5")
	assert.Equal(t, int64(0), RouteInt64Param(r, "newsletterID"))
}

func TestQueryParams(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/emails?limit=10&unread=true&search=go&archived=0", nil)

	assert.Equal(t, 10, QueryIntParam(r, "limit", 50))
	assert.Equal(t, 50, QueryIntParam(r, "offset", 50))
	assert.True(t, QueryBoolParam(r, "unread", false))
	assert.False(t, QueryBoolParam(r, "archived", true))
	assert.Equal(t, "go", QueryStringParam(r, "search", ""))
	assert.Equal(t, "x", QueryStringParam(r, "missing", "x"))
	assert.True(t, HasQueryParam(r, "archived"))
	assert.False(t, HasQueryParam(r, "missing"))
}

func TestFindRemoteIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:4242"
	assert.Equal(t, "192.0.2.10", FindRemoteIP(r))

	r.RemoteAddr = "[fe80::1%25eth0]:4242"
	assert.Equal(t, "fe80::1", FindRemoteIP(r))
}

func TestClientIP_contextOverride(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.0.2.10:4242"
	assert.Equal(t, "192.0.2.10", ClientIP(r))

	r = r.WithContext(WithClientIP(r.Context(), "203.0.113.7"))
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}
