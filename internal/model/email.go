// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "lettre.app/internal/model"

import (
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Email represents a single newsletter email fetched from Gmail.
type Email struct {
	ID           int64 `json:"id" db:"id"`
	NewsletterID int64 `json:"newsletter_id" db:"newsletter_id"`

	GmailMessageID string `json:"gmail_message_id" db:"gmail_message_id"`
	GmailThreadID  string `json:"gmail_thread_id" db:"gmail_thread_id"`

	Subject     string    `json:"subject" db:"subject"`
	SenderName  string    `json:"sender_name" db:"sender_name"`
	SenderEmail string    `json:"sender_email" db:"sender_email"`
	ReceivedAt  time.Time `json:"received_at" db:"received_at"`

	Snippet  string `json:"snippet" db:"snippet"`
	BodyText string `json:"body_text,omitempty" db:"body_text"`
	BodyHTML string `json:"body_html,omitempty" db:"body_html"`
	Hash     string `json:"-" db:"hash"`

	IsRead     bool       `json:"is_read" db:"is_read"`
	IsStarred  bool       `json:"is_starred" db:"is_starred"`
	IsArchived bool       `json:"is_archived" db:"is_archived"`
	ReadAt     *time.Time `json:"read_at" db:"read_at"`

	SizeBytes int64 `json:"size_bytes" db:"size_bytes"`
}

type Emails []*Email

// ComputeHash stores a hash of the email content. An unchanged hash on
// re-fetch means the stored copy is still current.
func (e *Email) ComputeHash() {
	sum := xxhash.Sum64String(e.Subject + e.BodyText + e.BodyHTML)
	e.Hash = strconv.FormatUint(sum, 16)
}
