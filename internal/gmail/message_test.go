// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package gmail

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func b64(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestMessageEmail(t *testing.T) {
	m := &Message{
		ID:           "m1",
		ThreadID:     "t1",
		Snippet:      "A short preview",
		InternalDate: "1740787200000",
		SizeEstimate: 2048,
		Payload: &MessagePart{
			MimeType: "multipart/alternative",
			Headers: []Header{
				{Name: "Subject", Value: "Weekly digest"},
				{Name: "From", Value: `"The Editors" <digest@example.com>`},
			},
			Parts: []*MessagePart{
				{
					MimeType: "text/plain",
					Body:     MessageBody{Data: b64("Hello, world")},
				},
				{
					MimeType: "text/html",
					Body:     MessageBody{Data: b64("<p>Hello, world</p>")},
				},
			},
		},
	}

	email := m.Email()
	require.NotNil(t, email)
	assert.Equal(t, "m1", email.GmailMessageID)
	assert.Equal(t, "t1", email.GmailThreadID)
	assert.Equal(t, "Weekly digest", email.Subject)
	assert.Equal(t, "The Editors", email.SenderName)
	assert.Equal(t, "digest@example.com", email.SenderEmail)
	assert.Equal(t, "A short preview", email.Snippet)
	assert.Equal(t, "Hello, world", email.BodyText)
	assert.Equal(t, "<p>Hello, world</p>", email.BodyHTML)
	assert.Equal(t, int64(2048), email.SizeBytes)
	assert.NotEmpty(t, email.Hash)
	assert.Equal(t,
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		email.ReceivedAt)
}

func TestMessageEmail_dateHeaderFallback(t *testing.T) {
	m := &Message{
		ID: "m1",
		Payload: &MessagePart{
			Headers: []Header{
				{Name: "Date", Value: "Sat, 01 Mar 2025 10:30:00 +0100"},
			},
		},
	}

	email := m.Email()
	assert.Equal(t,
		time.Date(2025, time.March, 1, 9, 30, 0, 0, time.UTC),
		email.ReceivedAt)
}

func TestParseFrom(t *testing.T) {
	tests := []struct {
		from, name, address string
	}{
		{`"The Editors" <digest@example.com>`, "The Editors",
			"digest@example.com"},
		{`digest@example.com`, "", "digest@example.com"},
		{`not an address`, "", "not an address"},
		{``, "", ""},
	}
	for _, tt := range tests {
		name, address := parseFrom(tt.from)
		assert.Equal(t, tt.name, name, tt.from)
		assert.Equal(t, tt.address, address, tt.from)
	}
}

func TestDecodeBody(t *testing.T) {
	assert.Equal(t, "Hello", decodeBody(b64("Hello")))
	assert.Equal(t, "Hello",
		decodeBody(base64.RawURLEncoding.EncodeToString([]byte("Hello"))))
	assert.Empty(t, decodeBody(""))
	assert.Empty(t, decodeBody("!!not base64!!"))
}
