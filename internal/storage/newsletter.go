// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "lettre.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"lettre.app/internal/logging"
	"lettre.app/internal/model"
)

const newsletterColumns = `
id, name, description, gmail_label_id, gmail_label_name, auto_fetch_enabled,
fetch_interval_minutes, last_fetched_at, last_email_received_at, unread_count,
total_count, color, is_active`

// NewsletterLabelExists checks if a newsletter with the given Gmail label
// already exists.
func (s *Storage) NewsletterLabelExists(ctx context.Context, labelID string,
) bool {
	rows, _ := s.db.Query(ctx, `
SELECT EXISTS (SELECT FROM newsletters WHERE gmail_label_id=$1 LIMIT 1)`,
		labelID)

	result, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[bool])
	if err != nil {
		logging.FromContext(ctx).Error("failed newsletter lookup",
			slog.String("gmail_label_id", labelID),
			slog.Any("error", err))
		return false
	}
	return result
}

// NewsletterByID returns a newsletter from the database.
func (s *Storage) NewsletterByID(ctx context.Context, newsletterID int64,
) (*model.Newsletter, error) {
	rows, _ := s.db.Query(ctx, `
SELECT`+newsletterColumns+`
  FROM newsletters
 WHERE id=$1`,
		newsletterID)

	newsletter, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByNameLax[model.Newsletter])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch newsletter: %w`, err)
	}
	return newsletter, nil
}

// NewsletterByLabelID finds a newsletter by its Gmail label id.
func (s *Storage) NewsletterByLabelID(ctx context.Context, labelID string,
) (*model.Newsletter, error) {
	rows, _ := s.db.Query(ctx, `
SELECT`+newsletterColumns+`
  FROM newsletters
 WHERE gmail_label_id=$1`,
		labelID)

	newsletter, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByNameLax[model.Newsletter])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch newsletter: %w`, err)
	}
	return newsletter, nil
}

// Newsletters returns all newsletters ordered by name.
func (s *Storage) Newsletters(ctx context.Context, activeOnly bool,
) (model.Newsletters, error) {
	query := `SELECT` + newsletterColumns + ` FROM newsletters`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY lower(name) ASC`

	rows, _ := s.db.Query(ctx, query)
	newsletters, err := pgx.CollectRows(rows,
		pgx.RowToAddrOfStructByNameLax[model.Newsletter])
	if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch newsletters: %w`, err)
	}
	return newsletters, nil
}

// AutoFetchNewsletterIDs returns the ids of active newsletters with
// automatic fetching enabled, in creation order.
func (s *Storage) AutoFetchNewsletterIDs(ctx context.Context,
) ([]int64, error) {
	rows, _ := s.db.Query(ctx, `
SELECT id
  FROM newsletters
 WHERE is_active AND auto_fetch_enabled
 ORDER BY id ASC`)

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf(
			`store: unable to fetch auto fetch newsletters: %w`, err)
	}
	return ids, nil
}

// CreateNewsletter creates a new newsletter.
func (s *Storage) CreateNewsletter(ctx context.Context,
	request *model.NewsletterCreationRequest,
) (*model.Newsletter, error) {
	rows, _ := s.db.Query(ctx, `
INSERT INTO newsletters (name, description, gmail_label_id, gmail_label_name,
                         auto_fetch_enabled, fetch_interval_minutes, color)
                 VALUES ($1,   $2,          $3,             $4,
                         $5,                 $6,                     $7)
  RETURNING`+newsletterColumns,
		request.Name, request.Description, request.GmailLabelID,
		request.GmailLabelName, request.AutoFetchEnabled,
		request.FetchIntervalMinutes, request.Color)

	newsletter, err := pgx.CollectExactlyOneRow(rows,
		pgx.RowToAddrOfStructByNameLax[model.Newsletter])
	if err != nil {
		return nil, fmt.Errorf(`store: unable to create newsletter %q: %w`,
			request.Name, err)
	}
	return newsletter, nil
}

// UpdateNewsletter updates an existing newsletter.
func (s *Storage) UpdateNewsletter(ctx context.Context,
	newsletter *model.Newsletter,
) error {
	_, err := s.db.Exec(ctx, `
UPDATE newsletters
   SET name=$1, description=$2, auto_fetch_enabled=$3,
       fetch_interval_minutes=$4, color=$5, is_active=$6
 WHERE id=$7`,
		newsletter.Name, newsletter.Description, newsletter.AutoFetchEnabled,
		newsletter.FetchIntervalMinutes, newsletter.Color, newsletter.IsActive,
		newsletter.ID)
	if err != nil {
		return fmt.Errorf(`store: unable to update newsletter: %w`, err)
	}
	return nil
}

// RemoveNewsletter deletes a newsletter and all of its emails.
func (s *Storage) RemoveNewsletter(ctx context.Context, newsletterID int64,
) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM newsletters WHERE id=$1`, newsletterID)
	if err != nil {
		return fmt.Errorf(`store: unable to delete newsletter: %w`, err)
	} else if result.RowsAffected() == 0 {
		return fmt.Errorf(`store: newsletter #%d not found`, newsletterID)
	}
	return nil
}

// RefreshNewsletterCounts recomputes the cached unread and total counters
// from the emails table. Archived emails are not counted.
func (s *Storage) RefreshNewsletterCounts(ctx context.Context,
	newsletterID int64,
) error {
	_, err := s.db.Exec(ctx, `
UPDATE newsletters
   SET unread_count=(SELECT count(*) FROM emails
                      WHERE newsletter_id=$1 AND NOT is_read
                        AND NOT is_archived),
       total_count=(SELECT count(*) FROM emails
                     WHERE newsletter_id=$1 AND NOT is_archived)
 WHERE id=$1`,
		newsletterID)
	if err != nil {
		return fmt.Errorf(`store: unable to refresh newsletter counts: %w`, err)
	}
	return nil
}

// SetNewsletterFetched records a completed fetch. The last email timestamp
// only ever moves forward.
func (s *Storage) SetNewsletterFetched(ctx context.Context,
	newsletterID int64, lastEmailReceivedAt *time.Time,
) error {
	_, err := s.db.Exec(ctx, `
UPDATE newsletters
   SET last_fetched_at=now(),
       last_email_received_at=greatest(last_email_received_at, $2)
 WHERE id=$1`,
		newsletterID, lastEmailReceivedAt)
	if err != nil {
		return fmt.Errorf(`store: unable to mark newsletter fetched: %w`, err)
	}
	return nil
}

// CountNewsletters returns the number of newsletters by active state.
func (s *Storage) CountNewsletters(ctx context.Context,
) (map[bool]int64, error) {
	rows, _ := s.db.Query(ctx,
		`SELECT is_active, count(*) FROM newsletters GROUP BY is_active`)

	counts := make(map[bool]int64, 2)
	var active bool
	var count int64
	_, err := pgx.ForEachRow(rows, []any{&active, &count}, func() error {
		counts[active] = count
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf(`store: unable to count newsletters: %w`, err)
	}
	return counts, nil
}
