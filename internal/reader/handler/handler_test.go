// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lettre.app/internal/gmail"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestBuildEmail(t *testing.T) {
	message := &gmail.Message{
		ID:           "m1",
		ThreadID:     "t1",
		InternalDate: "1740787200000",
		Payload: &gmail.MessagePart{
			MimeType: "multipart/alternative",
			Headers: []gmail.Header{
				{Name: "Subject", Value: "Weekly <b>digest</b>"},
				{Name: "From", Value: "Digest <digest@example.com>"},
			},
			Parts: []*gmail.MessagePart{
				{
					MimeType: "text/html",
					Body: gmail.MessageBody{
						Data: b64("<p>Hello</p><script>alert(1)</script>"),
					},
				},
			},
		},
	}

	email := buildEmail(message, 42)
	require.NotNil(t, email)
	assert.Equal(t, int64(42), email.NewsletterID)
	assert.Equal(t, "Weekly digest", email.Subject)
	assert.Equal(t, "<p>Hello</p>", email.BodyHTML)
	assert.Equal(t, "Hello", email.BodyText)
	assert.Equal(t, "Hello", email.Snippet)
	assert.NotEmpty(t, email.Hash)
}

func TestBuildEmail_keepsGmailSnippet(t *testing.T) {
	message := &gmail.Message{ID: "m1", Snippet: "A preview from Gmail"}
	email := buildEmail(message, 1)
	assert.Equal(t, "A preview from Gmail", email.Snippet)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "a", firstNonEmpty("", "a", "b"))
	assert.Empty(t, firstNonEmpty("", ""))
}
