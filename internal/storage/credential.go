// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package storage // import "lettre.app/internal/storage"

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SaveGmailCredential stores the encrypted OAuth token blob for an account,
// replacing any previous one.
func (s *Storage) SaveGmailCredential(ctx context.Context, account string,
	token []byte,
) error {
	_, err := s.db.Exec(ctx, `
INSERT INTO gmail_credentials (account, token, updated_at)
                       VALUES ($1,      $2,    now())
ON CONFLICT (account) DO UPDATE SET token=$2, updated_at=now()`,
		account, token)
	if err != nil {
		return fmt.Errorf(`store: unable to save gmail credential: %w`, err)
	}
	return nil
}

// GmailCredential returns the encrypted OAuth token blob for an account, or
// nil if none is stored.
func (s *Storage) GmailCredential(ctx context.Context, account string,
) ([]byte, error) {
	rows, _ := s.db.Query(ctx,
		`SELECT token FROM gmail_credentials WHERE account=$1`, account)

	token, err := pgx.CollectExactlyOneRow(rows, pgx.RowTo[[]byte])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf(`store: unable to fetch gmail credential: %w`, err)
	}
	return token, nil
}

// RemoveGmailCredential deletes the stored OAuth token for an account.
func (s *Storage) RemoveGmailCredential(ctx context.Context, account string,
) error {
	_, err := s.db.Exec(ctx,
		`DELETE FROM gmail_credentials WHERE account=$1`, account)
	if err != nil {
		return fmt.Errorf(`store: unable to delete gmail credential: %w`, err)
	}
	return nil
}
