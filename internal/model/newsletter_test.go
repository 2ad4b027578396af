// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewsletterModificationRequestPatch(t *testing.T) {
	newsletter := &Newsletter{
		ID:                   1,
		Name:                 "Go Weekly",
		GmailLabelID:         "Label_1",
		AutoFetchEnabled:     true,
		FetchIntervalMinutes: 60,
		IsActive:             true,
	}

	name := "Go Weekly (renamed)"
	interval := 30
	active := false
	r := &NewsletterModificationRequest{
		Name:                 &name,
		FetchIntervalMinutes: &interval,
		IsActive:             &active,
	}
	r.Patch(newsletter)

	assert.Equal(t, "Go Weekly (renamed)", newsletter.Name)
	assert.Equal(t, 30, newsletter.FetchIntervalMinutes)
	assert.False(t, newsletter.IsActive)
	// Untouched fields keep their values.
	assert.True(t, newsletter.AutoFetchEnabled)
	assert.Equal(t, "Label_1", newsletter.GmailLabelID)
}

func TestEmailComputeHash(t *testing.T) {
	e := &Email{Subject: "Issue #42", BodyHTML: "<p>hello</p>"}
	e.ComputeHash()
	assert.NotEmpty(t, e.Hash)

	same := &Email{Subject: "Issue #42", BodyHTML: "<p>hello</p>"}
	same.ComputeHash()
	assert.Equal(t, e.Hash, same.Hash)

	changed := &Email{Subject: "Issue #42", BodyHTML: "<p>bye</p>"}
	changed.ComputeHash()
	assert.NotEqual(t, e.Hash, changed.Hash)
}
