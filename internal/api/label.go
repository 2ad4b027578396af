// SPDX-FileCopyrightText: Copyright The Lettre Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package api // import "lettre.app/internal/api"

import (
	"errors"
	"net/http"

	"lettre.app/internal/http/response/json"
)

var errGmailNotAuthorized = errors.New(
	"gmail account not authorized, run \"lettre authorize\" first")

func (h *handler) getLabels(w http.ResponseWriter, r *http.Request) {
	if h.labels == nil {
		json.BadRequest(w, r, errGmailNotAuthorized)
		return
	}

	labels, err := h.labels.Labels(r.Context())
	if err != nil {
		json.ServerError(w, r, err)
		return
	}
	json.OK(w, r, labels)
}
