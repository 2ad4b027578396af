// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package validator // import "lettre.app/internal/validator"

import (
	"context"
	"errors"

	"lettre.app/internal/model"
	"lettre.app/internal/storage"
)

// ValidateNewsletterCreation validates newsletter creation.
func ValidateNewsletterCreation(ctx context.Context, store *storage.Storage,
	request *model.NewsletterCreationRequest,
) error {
	if request.Name == "" {
		return errors.New("newsletter name is required")
	}

	if request.GmailLabelID == "" {
		return errors.New("gmail label id is required")
	}

	if request.FetchIntervalMinutes < 0 {
		return errors.New("fetch interval cannot be negative")
	}

	if store.NewsletterLabelExists(ctx, request.GmailLabelID) {
		return errors.New("a newsletter already tracks this label")
	}
	return nil
}

// ValidateNewsletterModification validates newsletter modification.
func ValidateNewsletterModification(
	request *model.NewsletterModificationRequest,
) error {
	if request.Name != nil && *request.Name == "" {
		return errors.New("newsletter name is required")
	}

	if request.FetchIntervalMinutes != nil && *request.FetchIntervalMinutes < 0 {
		return errors.New("fetch interval cannot be negative")
	}
	return nil
}
