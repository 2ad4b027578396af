// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package gmail // import "lettre.app/internal/gmail"

import (
	"encoding/base64"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"lettre.app/internal/model"
)

// Message is a Gmail message in "full" format.
type Message struct {
	ID           string       `json:"id"`
	ThreadID     string       `json:"threadId"`
	Snippet      string       `json:"snippet"`
	InternalDate string       `json:"internalDate"`
	SizeEstimate int64        `json:"sizeEstimate"`
	Payload      *MessagePart `json:"payload"`
}

// MessagePart is a node of the MIME tree of a message.
type MessagePart struct {
	MimeType string         `json:"mimeType"`
	Headers  []Header       `json:"headers"`
	Body     MessageBody    `json:"body"`
	Parts    []*MessagePart `json:"parts"`
}

// Header is a single message header.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MessageBody carries the base64url encoded content of a leaf part.
type MessageBody struct {
	Data string `json:"data"`
	Size int64  `json:"size"`
}

func (p *MessagePart) header(name string) string {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Email converts the message into an Email model. The Gmail internalDate
// (delivery time in epoch milliseconds) wins over the Date header, which
// senders routinely get wrong.
func (m *Message) Email() *model.Email {
	email := &model.Email{
		GmailMessageID: m.ID,
		GmailThreadID:  m.ThreadID,
		Snippet:        m.Snippet,
		SizeBytes:      m.SizeEstimate,
		ReceivedAt:     m.receivedAt(),
	}

	if m.Payload != nil {
		email.Subject = m.Payload.header("Subject")
		email.SenderName, email.SenderEmail = parseFrom(
			m.Payload.header("From"))
		email.BodyText, email.BodyHTML = m.Payload.bodies()
	}

	email.ComputeHash()
	return email
}

func (m *Message) receivedAt() time.Time {
	if millis, err := strconv.ParseInt(m.InternalDate, 10, 64); err == nil {
		return time.UnixMilli(millis).UTC()
	}
	if m.Payload != nil {
		if t, err := mail.ParseDate(m.Payload.header("Date")); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}

// bodies walks the MIME tree and returns the first text/plain and text/html
// bodies it finds.
func (p *MessagePart) bodies() (bodyText, bodyHTML string) {
	var walk func(part *MessagePart)
	walk = func(part *MessagePart) {
		if bodyText != "" && bodyHTML != "" {
			return
		}

		switch {
		case part.MimeType == "text/plain" && bodyText == "":
			bodyText = decodeBody(part.Body.Data)
		case part.MimeType == "text/html" && bodyHTML == "":
			bodyHTML = decodeBody(part.Body.Data)
		}

		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(p)
	return bodyText, bodyHTML
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).
		DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

func parseFrom(from string) (name, address string) {
	if from == "" {
		return "", ""
	}
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", strings.TrimSpace(from)
	}
	return addr.Name, addr.Address
}
