// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model // import "lettre.app/internal/model"

import (
	"time"
)

// Newsletter represents a tracked newsletter subscription. It is linked to
// Gmail via the label id, which filters the messages belonging to it.
type Newsletter struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description" db:"description"`

	GmailLabelID   string `json:"gmail_label_id" db:"gmail_label_id"`
	GmailLabelName string `json:"gmail_label_name" db:"gmail_label_name"`

	AutoFetchEnabled     bool `json:"auto_fetch_enabled" db:"auto_fetch_enabled"`
	FetchIntervalMinutes int  `json:"fetch_interval_minutes" db:"fetch_interval_minutes"`

	LastFetchedAt       *time.Time `json:"last_fetched_at" db:"last_fetched_at"`
	LastEmailReceivedAt *time.Time `json:"last_email_received_at" db:"last_email_received_at"`
	UnreadCount         int        `json:"unread_count" db:"unread_count"`
	TotalCount          int        `json:"total_count" db:"total_count"`

	Color    string `json:"color,omitempty" db:"color"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

type Newsletters []*Newsletter

// NewsletterCreationRequest represents the request to create a newsletter.
type NewsletterCreationRequest struct {
	Name                 string `json:"name"`
	Description          string `json:"description"`
	GmailLabelID         string `json:"gmail_label_id"`
	GmailLabelName       string `json:"gmail_label_name"`
	AutoFetchEnabled     bool   `json:"auto_fetch_enabled"`
	FetchIntervalMinutes int    `json:"fetch_interval_minutes"`
	Color                string `json:"color"`
}

// NewsletterModificationRequest represents the request to update a
// newsletter. Nil fields are left unchanged.
type NewsletterModificationRequest struct {
	Name                 *string `json:"name"`
	Description          *string `json:"description"`
	AutoFetchEnabled     *bool   `json:"auto_fetch_enabled"`
	FetchIntervalMinutes *int    `json:"fetch_interval_minutes"`
	Color                *string `json:"color"`
	IsActive             *bool   `json:"is_active"`
}

func (r *NewsletterModificationRequest) Patch(newsletter *Newsletter) {
	if r.Name != nil {
		newsletter.Name = *r.Name
	}
	if r.Description != nil {
		newsletter.Description = *r.Description
	}
	if r.AutoFetchEnabled != nil {
		newsletter.AutoFetchEnabled = *r.AutoFetchEnabled
	}
	if r.FetchIntervalMinutes != nil {
		newsletter.FetchIntervalMinutes = *r.FetchIntervalMinutes
	}
	if r.Color != nil {
		newsletter.Color = *r.Color
	}
	if r.IsActive != nil {
		newsletter.IsActive = *r.IsActive
	}
}
