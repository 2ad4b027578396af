// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package mux

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeMux(t *testing.T) {
	mux := New()
	require.NotNil(t, mux)

	var result []string
	makeHandleFunc := func(s string) func(http.ResponseWriter, *http.Request) {
		return func(http.ResponseWriter, *http.Request) {
			result = append(result, s)
		}
	}

	makeMiddleware := func(s string) MiddlewareFunc {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				result = append(result, s)
				next.ServeHTTP(w, r)
			})
		}
	}

	mux.HandleFunc("/healthcheck", makeHandleFunc("healthcheck")).
		PrefixGroup("/v1", func(mux *ServeMux) {
			mux.Use(makeMiddleware("gzip")).
				Use(makeMiddleware("accesslog")).
				HandleFunc("/newsletters", makeHandleFunc("newsletters")).
				HandleFunc("POST /emails/{emailID}/read",
					makeHandleFunc("emails/read"))
		})

	mux.Use(makeMiddleware("metricsGuard")).
		HandleFunc("/metrics", makeHandleFunc("metrics"))

	mux.Group().Use(makeMiddleware("extra")).
		HandleFunc("/bar", makeHandleFunc("bar"))

	tests := []struct {
		name     string
		method   string
		endpoint string
		expected []string
	}{
		{
			name:     "healthcheck without middlewares",
			endpoint: "/healthcheck",
			expected: []string{"healthcheck"},
		},
		{
			name:     "prefix group chain",
			endpoint: "/v1/newsletters",
			expected: []string{"gzip", "accesslog", "newsletters"},
		},
		{
			name:     "prefix group with method and param",
			method:   http.MethodPost,
			endpoint: "/v1/emails/42/read",
			expected: []string{"gzip", "accesslog", "emails/read"},
		},
		{
			name:     "root middleware applies to later routes",
			endpoint: "/metrics",
			expected: []string{"metricsGuard", "metrics"},
		},
		{
			name:     "group does not leak middlewares",
			endpoint: "/bar",
			expected: []string{"metricsGuard", "extra", "bar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result = nil
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			r := httptest.NewRequest(method, tt.endpoint, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, r)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expected, result)
		})
	}
}
