// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package gmail implements a minimal client for the Gmail REST API, covering
// the calls the fetch pipeline needs: profile, labels, message listing and
// message download.
package gmail // import "lettre.app/internal/gmail"

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"lettre.app/internal/logging"
	"lettre.app/internal/metric"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

const maxBodySize = 25 << 20

// New returns a Gmail client on top of the given HTTP client, which is
// expected to carry OAuth credentials. rateLimit caps requests per second;
// zero disables the limiter.
func New(httpClient *http.Client, rateLimit float64) *Client {
	c := &Client{http: httpClient, baseURL: defaultBaseURL}
	if rateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rateLimit),
			max(1, int(rateLimit)))
	}
	return c
}

type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Profile returns the email address of the authenticated account.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var profile struct {
		EmailAddress string `json:"emailAddress"`
	}
	if err := c.get(ctx, "/profile", nil, &profile); err != nil {
		return "", err
	}
	return profile.EmailAddress, nil
}

// Label is a Gmail label as returned by the labels endpoint.
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Labels returns the user defined labels of the account, sorted by name.
// System labels like INBOX or SPAM are filtered out.
func (c *Client) Labels(ctx context.Context) ([]Label, error) {
	var response struct {
		Labels []Label `json:"labels"`
	}
	if err := c.get(ctx, "/labels", nil, &response); err != nil {
		return nil, err
	}

	labels := response.Labels[:0]
	for _, label := range response.Labels {
		if label.Type == "user" {
			labels = append(labels, label)
		}
	}
	slices.SortFunc(labels, func(a, b Label) int {
		return strings.Compare(a.Name, b.Name)
	})
	return labels, nil
}

// MessageIDs lists the ids of messages carrying the given label, newest
// first, paging through the API until maxResults ids were collected or the
// listing is exhausted. A non-zero after restricts the listing to messages
// received after that time.
func (c *Client) MessageIDs(ctx context.Context, labelID string,
	after time.Time, maxResults int,
) ([]string, error) {
	query := url.Values{"labelIds": {labelID}}
	if !after.IsZero() {
		query.Set("q", "after:"+strconv.FormatInt(after.Unix(), 10))
	}

	var ids []string
	for {
		remaining := maxResults - len(ids)
		if remaining <= 0 {
			break
		}
		query.Set("maxResults", strconv.Itoa(min(remaining, 100)))

		var response struct {
			Messages []struct {
				ID string `json:"id"`
			} `json:"messages"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := c.get(ctx, "/messages", query, &response); err != nil {
			return nil, err
		}

		for _, m := range response.Messages {
			ids = append(ids, m.ID)
		}
		if response.NextPageToken == "" || len(response.Messages) == 0 {
			break
		}
		query.Set("pageToken", response.NextPageToken)
	}
	return ids, nil
}

// Message downloads a single message with its full payload.
func (c *Client) Message(ctx context.Context, messageID string,
) (*Message, error) {
	var message Message
	query := url.Values{"format": {"full"}}
	err := c.get(ctx, "/messages/"+url.PathEscape(messageID), query, &message)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values,
	result any,
) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("gmail: wait for rate limiter: %w", err)
		}
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL,
		nil)
	if err != nil {
		return fmt.Errorf("gmail: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observeRequest("error", start)
		return fmt.Errorf("gmail: request %s: %w", path, err)
	}
	defer resp.Body.Close()
	observeRequest(strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logging.FromContext(ctx).Warn("gmail API request failed",
			slog.String("path", path),
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)))
		return fmt.Errorf("gmail: request %s: unexpected status %s", path,
			resp.Status)
	}

	decoder := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize))
	if err := decoder.Decode(result); err != nil {
		return fmt.Errorf("gmail: decode response from %s: %w", path, err)
	}
	return nil
}

func observeRequest(status string, start time.Time) {
	if metric.Enabled() {
		metric.GmailRequestDuration.WithLabelValues(status).
			Observe(time.Since(start).Seconds())
	}
}
