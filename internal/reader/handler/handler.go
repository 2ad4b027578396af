// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package handler implements the newsletter refresh pipeline: list new
// message ids for the newsletter label, download unknown messages, sanitize
// them and store the result.
package handler // import "lettre.app/internal/reader/handler"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lettre.app/internal/config"
	"lettre.app/internal/gmail"
	"lettre.app/internal/logging"
	"lettre.app/internal/model"
	"lettre.app/internal/reader/sanitizer"
	"lettre.app/internal/storage"
)

const snippetMaxLen = 200

var (
	ErrNewsletterNotFound = errors.New("reader: newsletter not found")
	ErrNewsletterInactive = errors.New("reader: newsletter is inactive")
)

// MessageSource is the part of the Gmail client the refresh pipeline needs.
type MessageSource interface {
	MessageIDs(ctx context.Context, labelID string, after time.Time,
		maxResults int) ([]string, error)
	Message(ctx context.Context, messageID string) (*gmail.Message, error)
}

// RefreshNewsletter fetches new emails for one newsletter and returns how
// many were stored. Messages already in the database are skipped without
// downloading them again.
func RefreshNewsletter(ctx context.Context, store *storage.Storage,
	source MessageSource, newsletterID int64,
) (int, error) {
	ctx = logging.WithNewsletter(ctx, newsletterID)
	log := logging.FromContext(ctx)

	newsletter, err := store.NewsletterByID(ctx, newsletterID)
	if err != nil {
		return 0, err
	} else if newsletter == nil {
		return 0, ErrNewsletterNotFound
	} else if !newsletter.IsActive {
		return 0, ErrNewsletterInactive
	}

	var after time.Time
	if newsletter.LastEmailReceivedAt != nil {
		after = *newsletter.LastEmailReceivedAt
	}

	messageIDs, err := source.MessageIDs(ctx, newsletter.GmailLabelID, after,
		config.Opts.BatchSize())
	if err != nil {
		return 0, fmt.Errorf("reader: list messages of %q: %w",
			newsletter.GmailLabelID, err)
	}

	known, err := store.KnownMessageIDs(ctx, messageIDs)
	if err != nil {
		return 0, err
	}

	var emails model.Emails
	var newest time.Time
	for _, messageID := range messageIDs {
		if _, ok := known[messageID]; ok {
			continue
		}

		message, err := source.Message(ctx, messageID)
		if err != nil {
			return 0, fmt.Errorf("reader: download message %q: %w", messageID,
				err)
		}

		email := buildEmail(message, newsletterID)
		emails = append(emails, email)
		if email.ReceivedAt.After(newest) {
			newest = email.ReceivedAt
		}
	}

	log.Debug("Fetched newsletter messages",
		slog.Int("listed", len(messageIDs)),
		slog.Int("known", len(known)),
		slog.Int("new", len(emails)))

	created := 0
	if len(emails) > 0 {
		created, err = store.CreateEmails(ctx, newsletterID, emails)
		if err != nil {
			return 0, err
		}
		if err := store.RefreshNewsletterCounts(ctx, newsletterID); err != nil {
			return created, err
		}
	}

	var lastReceived *time.Time
	if !newest.IsZero() {
		lastReceived = &newest
	}
	if err := store.SetNewsletterFetched(ctx, newsletterID,
		lastReceived); err != nil {
		return created, err
	}

	if created > 0 {
		log.Info("Stored new newsletter emails", slog.Int("count", created))
	}
	return created, nil
}

func buildEmail(message *gmail.Message, newsletterID int64) *model.Email {
	email := message.Email()
	email.NewsletterID = newsletterID

	email.Subject = sanitizer.StripTags(email.Subject)
	email.BodyHTML = sanitizer.SanitizeContent(email.BodyHTML)
	if email.BodyText == "" && email.BodyHTML != "" {
		email.BodyText = sanitizer.StripTags(email.BodyHTML)
	}

	if email.Snippet == "" {
		email.Snippet = sanitizer.TruncateHTML(
			firstNonEmpty(email.BodyText, email.BodyHTML), snippetMaxLen)
	} else {
		email.Snippet = sanitizer.TruncateHTML(email.Snippet, snippetMaxLen)
	}

	// Content changed during sanitizing, so the hash has to be recomputed.
	email.ComputeHash()
	return email
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}
