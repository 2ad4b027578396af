// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package cli // import "lettre.app/internal/cli"

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"lettre.app/internal/config"
	"lettre.app/internal/crypto"
	"lettre.app/internal/gmail"
	"lettre.app/internal/reader/handler"
	"lettre.app/internal/storage"
)

var refreshNewslettersCmd = cobra.Command{
	Use:   "refresh-newsletters",
	Short: "Fetch new emails for all auto-fetch newsletters and exit",
	Args:  cobra.ExactArgs(0),

	RunE: func(cmd *cobra.Command, args []string) error {
		return withStorage(runRefreshNewsletters)
	},
}

func runRefreshNewsletters(ctx context.Context, store *storage.Storage,
) error {
	if err := store.SchemaUpToDate(ctx); err != nil {
		return err
	}

	box := crypto.NewBox(config.Opts.CredentialsKey())
	httpClient, err := gmail.NewAuthorizedClient(ctx, store, box)
	if err != nil {
		return err
	}
	client := gmail.New(httpClient, config.Opts.GmailRateLimit())

	newsletterIDs, err := store.AutoFetchNewsletterIDs(ctx)
	if err != nil {
		return err
	}

	var created int
	for _, id := range newsletterIDs {
		n, err := handler.RefreshNewsletter(ctx, store, client, id)
		if err != nil {
			slog.Error("Unable to refresh newsletter",
				slog.Int64("newsletter_id", id), slog.Any("error", err))
			continue
		}
		created += n
	}

	slog.Info("Refreshed newsletters",
		slog.Int("newsletters", len(newsletterIDs)),
		slog.Int("new_emails", created))
	return nil
}
