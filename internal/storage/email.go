// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "lettre.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"lettre.app/internal/model"
)

const emailColumns = `
id, newsletter_id, gmail_message_id, gmail_thread_id, subject, sender_name,
sender_email, received_at, snippet, body_text, body_html, hash, is_read,
is_starred, is_archived, read_at, size_bytes`

// EmailQuery filters and paginates email listings. Zero values mean
// "no filter".
type EmailQuery struct {
	NewsletterID int64
	UnreadOnly   bool
	StarredOnly  bool
	Archived     *bool
	Search       string
	Limit        int
	Offset       int
}

func (q *EmailQuery) build() (string, []any) {
	conditions := []string{"true"}
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if q.NewsletterID != 0 {
		conditions = append(conditions, "newsletter_id="+arg(q.NewsletterID))
	}
	if q.UnreadOnly {
		conditions = append(conditions, "NOT is_read")
	}
	if q.StarredOnly {
		conditions = append(conditions, "is_starred")
	}
	if q.Archived != nil {
		if *q.Archived {
			conditions = append(conditions, "is_archived")
		} else {
			conditions = append(conditions, "NOT is_archived")
		}
	}
	if q.Search != "" {
		p := arg("%" + q.Search + "%")
		conditions = append(conditions,
			"(subject ILIKE "+p+" OR sender_name ILIKE "+p+
				" OR sender_email ILIKE "+p+")")
	}
	return strings.Join(conditions, " AND "), args
}

// Emails returns emails matching the query, newest first.
func (s *Storage) Emails(ctx context.Context, query *EmailQuery,
) (model.Emails, error) {
	where, args := query.build()
	sql := `SELECT` + emailColumns + ` FROM emails WHERE ` + where +
		` ORDER BY received_at DESC, id DESC`
	if query.Limit > 0 {
		sql += ` LIMIT ` + strconv.Itoa(query.Limit)
	}
	if query.Offset > 0 {
		sql += ` OFFSET ` + strconv.Itoa(query.Offset)
	}

	rows, _ := s.db.Query(ctx, sql, args...)
	emails, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByNameLax[model.Email])
	if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch emails: %w`, err)
	}
	return emails, nil
}

// CountEmails returns the number of emails matching the query.
func (s *Storage) CountEmails(ctx context.Context, query *EmailQuery,
) (int, error) {
	where, args := query.build()
	rows, _ := s.db.Query(ctx,
		`SELECT count(*) FROM emails WHERE `+where, args...)
	count, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf(`store: unable to count emails: %w`, err)
	}
	return count, nil
}

// EmailByID returns a single email.
func (s *Storage) EmailByID(ctx context.Context, emailID int64,
) (*model.Email, error) {
	rows, _ := s.db.Query(ctx, `
SELECT`+emailColumns+`
  FROM emails
 WHERE id=$1`,
		emailID)

	email, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByNameLax[model.Email])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch email: %w`, err)
	}
	return email, nil
}

// KnownMessageIDs returns which of the given Gmail message ids are already
// stored. It lets the fetch pipeline skip message downloads for emails it
// already has.
func (s *Storage) KnownMessageIDs(ctx context.Context, messageIDs []string,
) (map[string]struct{}, error) {
	if len(messageIDs) == 0 {
		return map[string]struct{}{}, nil
	}

	rows, _ := s.db.Query(ctx, `
SELECT gmail_message_id FROM emails WHERE gmail_message_id = ANY($1)`,
		messageIDs)

	known := make(map[string]struct{}, len(messageIDs))
	var id string
	_, err := pgx.ForEachRow(rows, []any{&id}, func() error {
		known[id] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch known messages: %w`, err)
	}
	return known, nil
}

// CreateEmails inserts the given emails, skipping any whose Gmail message id
// is already stored. It returns the number of emails actually inserted.
func (s *Storage) CreateEmails(ctx context.Context, newsletterID int64,
	emails model.Emails,
) (int, error) {
	var created int
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		for _, email := range emails {
			result, err := tx.Exec(ctx, `
INSERT INTO emails (newsletter_id, gmail_message_id, gmail_thread_id, subject,
                    sender_name, sender_email, received_at, snippet, body_text,
                    body_html, hash, size_bytes)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (gmail_message_id) DO NOTHING`,
				newsletterID, email.GmailMessageID, email.GmailThreadID,
				email.Subject, email.SenderName, email.SenderEmail,
				email.ReceivedAt, email.Snippet, email.BodyText, email.BodyHTML,
				email.Hash, email.SizeBytes)
			if err != nil {
				return fmt.Errorf("insert email %q: %w", email.GmailMessageID, err)
			}
			created += int(result.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf(`store: unable to create emails: %w`, err)
	}
	return created, nil
}

// SetEmailRead marks an email read or unread and keeps the newsletter
// counters in sync.
func (s *Storage) SetEmailRead(ctx context.Context, emailID int64, read bool,
) error {
	result, err := s.db.Exec(ctx, `
UPDATE emails
   SET is_read=$2,
       read_at=CASE WHEN $2 THEN now() ELSE NULL END
 WHERE id=$1 AND is_read != $2`,
		emailID, read)
	if err != nil {
		return fmt.Errorf(`store: unable to update email read state: %w`, err)
	} else if result.RowsAffected() == 0 {
		return nil
	}
	return s.refreshCountsForEmail(ctx, emailID)
}

// MarkNewsletterRead marks every unarchived email of a newsletter as read.
func (s *Storage) MarkNewsletterRead(ctx context.Context, newsletterID int64,
) error {
	_, err := s.db.Exec(ctx, `
UPDATE emails
   SET is_read='t', read_at=now()
 WHERE newsletter_id=$1 AND NOT is_read AND NOT is_archived`,
		newsletterID)
	if err != nil {
		return fmt.Errorf(`store: unable to mark newsletter read: %w`, err)
	}
	return s.RefreshNewsletterCounts(ctx, newsletterID)
}

// ToggleEmailStarred flips the starred flag and returns the new value.
func (s *Storage) ToggleEmailStarred(ctx context.Context, emailID int64,
) (bool, error) {
	rows, _ := s.db.Query(ctx, `
UPDATE emails SET is_starred = NOT is_starred WHERE id=$1
  RETURNING is_starred`,
		emailID)

	starred, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[bool])
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf(`store: email #%d not found`, emailID)
	} else if err != nil {
		return false, fmt.Errorf(`store: unable to toggle starred: %w`, err)
	}
	return starred, nil
}

// SetEmailArchived archives or unarchives an email and keeps the newsletter
// counters in sync.
func (s *Storage) SetEmailArchived(ctx context.Context, emailID int64,
	archived bool,
) error {
	result, err := s.db.Exec(ctx, `
UPDATE emails SET is_archived=$2 WHERE id=$1 AND is_archived != $2`,
		emailID, archived)
	if err != nil {
		return fmt.Errorf(`store: unable to update email archive state: %w`, err)
	} else if result.RowsAffected() == 0 {
		return nil
	}
	return s.refreshCountsForEmail(ctx, emailID)
}

// RemoveEmail deletes an email.
func (s *Storage) RemoveEmail(ctx context.Context, emailID int64) error {
	rows, _ := s.db.Query(ctx,
		`DELETE FROM emails WHERE id=$1 RETURNING newsletter_id`, emailID)

	newsletterID, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int64])
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(`store: email #%d not found`, emailID)
	} else if err != nil {
		return fmt.Errorf(`store: unable to delete email: %w`, err)
	}
	return s.RefreshNewsletterCounts(ctx, newsletterID)
}

func (s *Storage) refreshCountsForEmail(ctx context.Context, emailID int64,
) error {
	rows, _ := s.db.Query(ctx,
		`SELECT newsletter_id FROM emails WHERE id=$1`, emailID)

	newsletterID, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[int64])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	} else if err != nil {
		return fmt.Errorf(`store: unable to fetch email newsletter: %w`, err)
	}
	return s.RefreshNewsletterCounts(ctx, newsletterID)
}

// CountAllEmails returns the number of emails by read state.
func (s *Storage) CountAllEmails(ctx context.Context,
) (map[string]int64, error) {
	rows, _ := s.db.Query(ctx, `
SELECT CASE WHEN is_read THEN 'read' ELSE 'unread' END AS status, count(*)
  FROM emails
 WHERE NOT is_archived
 GROUP BY status`)

	counts := map[string]int64{"read": 0, "unread": 0}
	var status string
	var count int64
	_, err := pgx.ForEachRow(rows, []any{&status, &count}, func() error {
		counts[status] = count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf(`store: unable to count emails: %w`, err)
	}
	return counts, nil
}
