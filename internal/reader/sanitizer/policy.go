// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package sanitizer cleans newsletter HTML before it is stored. Emails come
// from arbitrary senders, so scripts, forms and trackers are stripped and
// only safe markup survives.
package sanitizer // import "lettre.app/internal/reader/sanitizer"

import (
	"strings"

	"github.com/dsh2dsh/bluemonday/v2"
)

var (
	contentPolicy = bluemonday.UGCPolicy()
	textPolicy    = bluemonday.StrictPolicy()
)

func init() {
	p := contentPolicy
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.AllowDataURIImages()
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("id").DeleteFromGlobally()

	p.SetAttr("loading", "lazy").OnElements("img")

	// Newsletters lean heavily on table layouts and inline presentation
	// attributes.
	p.AllowAttrs("align", "valign", "width", "height", "cellpadding",
		"cellspacing", "border", "bgcolor").
		OnElements("table", "tr", "td", "th")
	p.AllowAttrs("width", "height").Matching(bluemonday.Number).
		OnElements("img")
	p.AllowAttrs("sizes", "srcset").OnElements("img")
}

// StripTags removes all markup, leaving plain text.
func StripTags(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return textPolicy.Sanitize(s)
}

// SanitizeContent cleans email HTML for storage and display.
func SanitizeContent(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return contentPolicy.Sanitize(s)
}
