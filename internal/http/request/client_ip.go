// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package request // import "lettre.app/internal/http/request"

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type ctxClientIP struct{}

// ClientIPContextKey stores the resolved client IP in the request context.
var ClientIPContextKey ctxClientIP = struct{}{}

// WithClientIP stores the client IP address in the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientIPContextKey, ip)
}

// ClientIP returns the client IP resolved by the middleware, falling back to
// the TCP source address.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(ClientIPContextKey).(string); ok {
		return ip
	}
	return FindRemoteIP(r)
}

// FindClientIP returns the real client IP address, trusting the X-Real-IP
// header when present.
func FindClientIP(r *http.Request) string {
	if clientIP := r.Header.Get("X-Real-IP"); clientIP != "" {
		clientIP = dropIPv6zone(strings.TrimSpace(clientIP))
		if net.ParseIP(clientIP) != nil {
			return clientIP
		}
	}
	return FindRemoteIP(r)
}

// FindRemoteIP returns the remote client IP address without considering HTTP
// headers.
func FindRemoteIP(r *http.Request) string {
	remoteIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		remoteIP = r.RemoteAddr
	}
	return dropIPv6zone(remoteIP)
}

func dropIPv6zone(address string) string {
	before, _, _ := strings.Cut(address, "%")
	return before
}
