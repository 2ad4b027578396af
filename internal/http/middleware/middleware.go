// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware // import "lettre.app/internal/http/middleware"

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"lettre.app/internal/http/request"
)

// ClientIP resolves the real client IP once and stores it in the request
// context.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := request.WithClientIP(r.Context(), request.FindClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Gzip compresses responses for clients that accept it.
func Gzip(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}
