package httpapi

import (
	"context"
	"net/http"

	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/services/resumes"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
)

// resumes

func (h *handler) createResume(w http.ResponseWriter, r *http.Request) {
	var req resumeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Resumes.Create(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a resume", out)
}

func (h *handler) updateResume(w http.ResponseWriter, r *http.Request) {
	var req resumeStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	status, ok := resume.ParseStatus(string(req.Status))
	if !ok {
		writeErr(w, r, h.log, errors.BadRequest("unknown resume status %q", req.Status))
		return
	}
	out, err := h.app.Resumes.UpdateStatus(r.Context(), req.ID, status)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a resume", out)
}

func (h *handler) listResumes(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Resumes.List(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all resumes", page)
}

func (h *handler) listMyResumes(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Resumes.ListByUser(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch resumes by user", page)
}

func (h *handler) getResume(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Resumes.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch resume by id", out)
}

func (h *handler) deleteResume(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Resumes.Delete(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a resume", nil)
}

func (h *handler) restoreResume(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Resumes.Restore(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "restore a resume", out)
}

func (h *handler) confirmInterview(w http.ResponseWriter, r *http.Request) {
	h.answerInterview(w, r, "confirm the interview", h.app.Resumes.ConfirmInterview)
}

func (h *handler) declineInterview(w http.ResponseWriter, r *http.Request) {
	h.answerInterview(w, r, "decline the interview", h.app.Resumes.DeclineInterview)
}

func (h *handler) answerInterview(w http.ResponseWriter, r *http.Request, message string, fn func(context.Context, int64) (resumes.UpdateResult, error)) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := fn(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, message, out)
}

// subscribers

func (h *handler) createSubscriber(w http.ResponseWriter, r *http.Request) {
	var req subscriberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Subscribers.Create(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a subscriber", out)
}

func (h *handler) updateSubscriber(w http.ResponseWriter, r *http.Request) {
	var req subscriberRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Subscribers.Update(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a subscriber", out)
}

func (h *handler) mySubscription(w http.ResponseWriter, r *http.Request) {
	out, err := h.app.Subscribers.GetByEmail(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch subscriber skills", out)
}

func (h *handler) deleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Subscribers.Delete(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a subscriber", nil)
}

func (h *handler) sendDigest(w http.ResponseWriter, r *http.Request) {
	n, err := h.app.Subscribers.SendDigest(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "send subscriber emails", digestResult{Mailed: n})
}

// notifications

func (h *handler) unreadNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := security.PrincipalFrom(r.Context())
	if !ok {
		writeErr(w, r, h.log, errors.Unauthorized("authentication is required"))
		return
	}
	out, err := h.app.Notifications.Unread(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch unread notifications", out)
}

func (h *handler) markNotificationsRead(w http.ResponseWriter, r *http.Request) {
	p, ok := security.PrincipalFrom(r.Context())
	if !ok {
		writeErr(w, r, h.log, errors.Unauthorized("authentication is required"))
		return
	}
	n, err := h.app.Notifications.MarkAllRead(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "mark notifications as read", markedRead{Updated: n})
}
