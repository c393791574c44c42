package httpapi

import (
	"net/http"
	"strings"

	"github.com/R3E-Network/jobhunter/internal/app/services/dashboard"
	"github.com/R3E-Network/jobhunter/internal/app/services/files"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
)

// multipartMemory is how much of a multipart body is buffered before
// spilling to temporary files.
const multipartMemory = 8 << 20

func (h *handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
		writeErr(w, r, h.log, errors.UnsupportedMedia("expected multipart/form-data, got %q", ct))
		return
	}
	limit := h.app.Config.Media.MaxUploadBytes
	if limit > 0 {
		// leave room for the multipart framing around the file
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeErr(w, r, h.log, errors.PayloadTooLarge(limit))
			return
		}
		writeErr(w, r, h.log, errors.BadRequest("invalid multipart request: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, r, h.log, errors.BadRequest("file is empty"))
		return
	}
	defer file.Close()

	out, err := h.app.Files.Upload(r.Context(), files.Upload{
		Folder:      r.FormValue("folder"),
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "upload single file", out)
}

// dashboard

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	out, err := h.app.Dashboard.Stats(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "statistical data", out)
}

func (h *handler) timeSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := dashboard.ParseDate(q.Get("startDate"))
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	to, err := dashboard.ParseDate(q.Get("endDate"))
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		writeErr(w, r, h.log, errors.BadRequest("endDate must not be before startDate"))
		return
	}
	out, err := h.app.Dashboard.TimeSeries(r.Context(), from, to)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "time series statistics", out)
}

func (h *handler) companyStats(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathInt(r, "companyId")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Dashboard.CompanyStats(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "company dashboard statistics", out)
}

// chatbot

func (h *handler) ask(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	out, err := h.app.Chatbot.Ask(r.Context(), security.CurrentEmail(r.Context()), req.Message)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "chatbot answer", out)
}

func (h *handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	email := security.CurrentEmail(r.Context())
	if email == "" {
		writeErr(w, r, h.log, errors.Unauthorized("authentication is required"))
		return
	}
	out, err := h.app.Chatbot.History(r.Context(), email)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "chatbot history", out)
}
