// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "lettre.app/internal/api"

import (
	json_parser "encoding/json"
	"errors"
	"net/http"

	"lettre.app/internal/fetchqueue"
	"lettre.app/internal/http/request"
	"lettre.app/internal/http/response/json"
	"lettre.app/internal/model"
	"lettre.app/internal/validator"
)

func (h *handler) createNewsletter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var createRequest model.NewsletterCreationRequest
	if err := json_parser.NewDecoder(r.Body).Decode(&createRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	if err := validator.ValidateNewsletterCreation(ctx, h.store,
		&createRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	newsletter, err := h.store.CreateNewsletter(ctx, &createRequest)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter.AutoFetchEnabled {
		if err := h.sched.ScheduleNewsletterFetch(newsletter.ID,
			newsletter.FetchIntervalMinutes); err != nil {
			json.ServerError(w, r, err)
			return
		}
	}
	json.Created(w, r, newsletter)
}

func (h *handler) getNewsletters(w http.ResponseWriter, r *http.Request) {
	activeOnly := request.QueryBoolParam(r, "active_only", false)

	newsletters, err := h.store.Newsletters(r.Context(), activeOnly)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, newsletters)
}

func (h *handler) getNewsletter(w http.ResponseWriter, r *http.Request) {
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(r.Context(), newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}
	json.OK(w, r, newsletter)
}

func (h *handler) updateNewsletter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(ctx, newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}

	var modificationRequest model.NewsletterModificationRequest
	err = json_parser.NewDecoder(r.Body).Decode(&modificationRequest)
	if err != nil {
		json.BadRequest(w, r, err)
		return
	}

	if err := validator.ValidateNewsletterModification(
		&modificationRequest); err != nil {
		json.BadRequest(w, r, err)
		return
	}

	modificationRequest.Patch(newsletter)
	if err := h.store.UpdateNewsletter(ctx, newsletter); err != nil {
		json.ServerError(w, r, err)
		return
	}

	autoFetch := newsletter.IsActive && newsletter.AutoFetchEnabled
	if err := h.sched.UpdateNewsletterSchedule(newsletter.ID,
		newsletter.FetchIntervalMinutes, autoFetch); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, newsletter)
}

type scheduleModificationRequest struct {
	AutoFetchEnabled     bool `json:"auto_fetch_enabled"`
	FetchIntervalMinutes int  `json:"fetch_interval_minutes"`
}

func (h *handler) updateNewsletterSchedule(w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(ctx, newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}

	var scheduleRequest scheduleModificationRequest
	err = json_parser.NewDecoder(r.Body).Decode(&scheduleRequest)
	if err != nil {
		json.BadRequest(w, r, err)
		return
	}

	if scheduleRequest.FetchIntervalMinutes < 1 {
		json.BadRequest(w, r,
			errors.New("fetch interval must be at least one minute"))
		return
	}

	newsletter.AutoFetchEnabled = scheduleRequest.AutoFetchEnabled
	newsletter.FetchIntervalMinutes = scheduleRequest.FetchIntervalMinutes
	if err := h.store.UpdateNewsletter(ctx, newsletter); err != nil {
		json.ServerError(w, r, err)
		return
	}

	autoFetch := newsletter.IsActive && newsletter.AutoFetchEnabled
	if err := h.sched.UpdateNewsletterSchedule(newsletter.ID,
		newsletter.FetchIntervalMinutes, autoFetch); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, newsletter)
}

func (h *handler) removeNewsletter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(ctx, newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}

	h.sched.UnscheduleNewsletterFetch(newsletterID)
	if err := h.store.RemoveNewsletter(ctx, newsletterID); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

func (h *handler) refreshNewsletter(w http.ResponseWriter, r *http.Request) {
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(r.Context(), newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}

	h.queue.Push(newsletterID, fetchqueue.PriorityHigh)
	json.Accepted(w, r)
}

func (h *handler) refreshAllNewsletters(w http.ResponseWriter,
	r *http.Request,
) {
	newsletterIDs, err := h.store.AutoFetchNewsletterIDs(r.Context())
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	h.queue.PushAll(newsletterIDs, fetchqueue.PriorityNormal)
	json.Accepted(w, r)
}

func (h *handler) markNewsletterAsRead(w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(ctx, newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}

	if err := h.store.MarkNewsletterRead(ctx, newsletterID); err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.NoContent(w, r)
}

func (h *handler) getNewsletterEmails(w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	newsletterID := request.RouteInt64Param(r, "newsletterID")

	newsletter, err := h.store.NewsletterByID(ctx, newsletterID)
	if err != nil {
		json.ServerError(w, r, err)
		return
	}

	if newsletter == nil {
		json.NotFound(w, r)
		return
	}

	query := emailQueryFromRequest(r)
	query.NewsletterID = newsletterID
	h.serveEmails(w, r, query)
}
