// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "lettre.app/internal/api"

import (
	"net/http"

	"lettre.app/internal/http/request"
	"lettre.app/internal/http/response/json"
	"lettre.app/internal/model"
	"lettre.app/internal/storage"
)

const (
	defaultEmailLimit = 50
	maxEmailLimit     = 500
)

type emailsResponse struct {
	Total  int          `json:"total"`
	Emails model.Emails `json:"emails"`
}

func emailQueryFromRequest(r *http.Request) *storage.EmailQuery {
	query := &storage.EmailQuery{
		UnreadOnly:  request.QueryBoolParam(r, "unread", false),
		StarredOnly: request.QueryBoolParam(r, "starred", false),
		Search:      request.QueryStringParam(r, "search", ""),
		Limit: min(request.QueryIntParam(r, "limit", defaultEmailLimit),
			maxEmailLimit),
		Offset: request.QueryIntParam(r, "offset", 0),
	}

	// Archived emails are hidden unless asked for explicitly.
	archived := request.QueryBoolParam(r, "archived", false)
	query.Archived = &archived
	return query
}

func (h *handler) serveEmails(w http.ResponseWriter, r *http.Request,
	query *storage.EmailQuery,
) {
	ctx := r.Context()

	count, err := h.store.CountEmails(ctx, query)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	emails, err := h.store.Emails(ctx, query)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, &emailsResponse{Total: count, Emails: emails})
}

func (h *handler) getEmails(w http.ResponseWriter, r *http.Request) {
	query := emailQueryFromRequest(r)
	query.NewsletterID = request.QueryInt64Param(r, "newsletter_id", 0)
	h.serveEmails(w, r, query)
}

func (h *handler) getEmail(w http.ResponseWriter, r *http.Request) {
	emailID := request.RouteInt64Param(r, "emailID")

	email, err := h.store.EmailByID(r.Context(), emailID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if email == nil {
		json.NotFound(w, r)
		return
	}
	json.OK(w, r, email)
}

func (h *handler) removeEmail(w http.ResponseWriter, r *http.Request) {
	emailID := request.RouteInt64Param(r, "emailID")

	email, err := h.store.EmailByID(r.Context(), emailID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if email == nil {
		json.NotFound(w, r)
		return
	}

	if err := h.store.RemoveEmail(r.Context(), emailID); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

func (h *handler) markEmailAsRead(w http.ResponseWriter, r *http.Request) {
	h.setEmailRead(w, r, true)
}

func (h *handler) markEmailAsUnread(w http.ResponseWriter, r *http.Request) {
	h.setEmailRead(w, r, false)
}

func (h *handler) setEmailRead(w http.ResponseWriter, r *http.Request,
	read bool,
) {
	ctx := r.Context()
	emailID := request.RouteInt64Param(r, "emailID")

	email, err := h.store.EmailByID(ctx, emailID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if email == nil {
		json.NotFound(w, r)
		return
	}

	if err := h.store.SetEmailRead(ctx, emailID, read); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

type starredResponse struct {
	Starred bool `json:"starred"`
}

func (h *handler) toggleEmailStar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	emailID := request.RouteInt64Param(r, "emailID")

	email, err := h.store.EmailByID(ctx, emailID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if email == nil {
		json.NotFound(w, r)
		return
	}

	starred, err := h.store.ToggleEmailStarred(ctx, emailID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, &starredResponse{Starred: starred})
}

func (h *handler) archiveEmail(w http.ResponseWriter, r *http.Request) {
	h.setEmailArchived(w, r, true)
}

func (h *handler) unarchiveEmail(w http.ResponseWriter, r *http.Request) {
	h.setEmailArchived(w, r, false)
}

func (h *handler) setEmailArchived(w http.ResponseWriter, r *http.Request,
	archived bool,
) {
	ctx := r.Context()
	emailID := request.RouteInt64Param(r, "emailID")

	email, err := h.store.EmailByID(ctx, emailID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if email == nil {
		json.NotFound(w, r)
		return
	}

	if err := h.store.SetEmailArchived(ctx, emailID, archived); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}
