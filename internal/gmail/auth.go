// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package gmail // import "lettre.app/internal/gmail"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"lettre.app/internal/config"
	"lettre.app/internal/crypto"
	"lettre.app/internal/storage"
)

// Account keys the stored credential. A single Gmail account per instance.
const Account = "default"

const scopeReadonly = "https://www.googleapis.com/auth/gmail.readonly"

// ErrNoCredential is returned when no OAuth token was authorized yet.
var ErrNoCredential = errors.New("gmail: no stored credential, run authorize")

func oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     config.Opts.GmailClientID(),
		ClientSecret: config.Opts.GmailClientSecret(),
		Endpoint:     google.Endpoint,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{scopeReadonly},
	}
}

// AuthCodeURL returns the URL the user has to visit to authorize access.
func AuthCodeURL() string {
	return oauthConfig().AuthCodeURL("state-token",
		oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Authorize exchanges the authorization code for a token and stores it
// encrypted.
func Authorize(ctx context.Context, store *storage.Storage, box *crypto.Box,
	code string,
) error {
	token, err := oauthConfig().Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("gmail: exchange authorization code: %w", err)
	}
	return saveToken(ctx, store, box, token)
}

func saveToken(ctx context.Context, store *storage.Storage, box *crypto.Box,
	token *oauth2.Token,
) error {
	blob, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("gmail: marshal token: %w", err)
	}

	sealed, err := box.Seal(blob)
	if err != nil {
		return fmt.Errorf("gmail: seal token: %w", err)
	}
	return store.SaveGmailCredential(ctx, Account, sealed)
}

// NewAuthorizedClient returns an HTTP client carrying the stored OAuth
// credential. Refreshed tokens are written back to storage so a refresh
// survives restarts.
func NewAuthorizedClient(ctx context.Context, store *storage.Storage,
	box *crypto.Box,
) (*http.Client, error) {
	sealed, err := store.GmailCredential(ctx, Account)
	if err != nil {
		return nil, err
	} else if sealed == nil {
		return nil, ErrNoCredential
	}

	blob, err := box.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("gmail: open stored credential: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(blob, &token); err != nil {
		return nil, fmt.Errorf("gmail: unmarshal stored credential: %w", err)
	}

	source := &savingTokenSource{
		src:        oauthConfig().TokenSource(ctx, &token),
		store:      store,
		box:        box,
		lastAccess: token.AccessToken,
	}

	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(&token, source))
	client.Timeout = config.Opts.GmailClientTimeout()
	return client, nil
}

// savingTokenSource persists refreshed tokens back to storage.
type savingTokenSource struct {
	src   oauth2.TokenSource
	store *storage.Storage
	box   *crypto.Box

	mu         sync.Mutex
	lastAccess string
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("gmail: refresh token: %w", err)
	}

	s.mu.Lock()
	changed := token.AccessToken != s.lastAccess
	if changed {
		s.lastAccess = token.AccessToken
	}
	s.mu.Unlock()

	if changed {
		if err := saveToken(context.Background(), s.store, s.box,
			token); err != nil {
			return nil, err
		}
	}
	return token, nil
}
