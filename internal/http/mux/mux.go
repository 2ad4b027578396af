// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mux wraps http.ServeMux with composable middleware and route
// groups.
package mux // import "lettre.app/internal/http/mux"

import (
	"net/http"
	"slices"
	"strings"
)

func New() *ServeMux {
	return &ServeMux{ServeMux: http.NewServeMux()}
}

type ServeMux struct {
	*http.ServeMux

	middlewares []MiddlewareFunc
}

type MiddlewareFunc func(next http.Handler) http.Handler

var _ http.Handler = (*ServeMux)(nil)

// Group returns a copy of the mux with its own middleware chain. Routes
// registered on the group still land on the same underlying ServeMux.
func (self *ServeMux) Group(funcs ...func(m *ServeMux)) *ServeMux {
	g := *self
	g.middlewares = slices.Clone(self.middlewares)
	for _, fn := range funcs {
		fn(&g)
	}
	return &g
}

// PrefixGroup mounts a nested ServeMux under prefix with a fresh middleware
// chain.
func (self *ServeMux) PrefixGroup(prefix string, funcs ...func(m *ServeMux),
) *ServeMux {
	if prefix == "" {
		return self.Group(funcs...)
	}

	pattern := prefix
	if !strings.HasSuffix(pattern, "/") {
		pattern += "/"
	}
	nested := http.NewServeMux()
	self.Handle(pattern, http.StripPrefix(prefix, nested))

	g := *self
	g.ServeMux = nested
	g.middlewares = nil

	for _, fn := range funcs {
		fn(&g)
	}
	return &g
}

func (self *ServeMux) Handle(pattern string, handler http.Handler) *ServeMux {
	self.ServeMux.Handle(pattern, self.wrapped(handler))
	return self
}

func (self *ServeMux) HandleFunc(pattern string,
	handler func(http.ResponseWriter, *http.Request),
) *ServeMux {
	return self.Handle(pattern, http.HandlerFunc(handler))
}

func (self *ServeMux) Use(m ...MiddlewareFunc) *ServeMux {
	self.middlewares = append(self.middlewares, m...)
	return self
}

func (self *ServeMux) wrapped(handler http.Handler) http.Handler {
	for _, m := range slices.Backward(self.middlewares) {
		handler = m(handler)
	}
	return handler
}
