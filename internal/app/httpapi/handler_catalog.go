package httpapi

import (
	"context"
	"net/http"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/security"
)

// companies

func (h *handler) createCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	c, err := h.app.Companies.Create(r.Context(), req, security.CurrentEmail(r.Context()))
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a company", c)
}

func (h *handler) updateCompany(w http.ResponseWriter, r *http.Request) {
	var req companyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	c, err := h.app.Companies.Update(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a company", c)
}

func (h *handler) listCompanies(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Companies.List(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all companies", page)
}

func (h *handler) getCompany(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	c, err := h.app.Companies.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch company by id", c)
}

func (h *handler) deleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Companies.Delete(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a company", nil)
}

func (h *handler) restoreCompany(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	c, err := h.app.Companies.Restore(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "restore a company", c)
}

// jobs

func (h *handler) createJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	j, err := h.app.Jobs.Create(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a job", j)
}

func (h *handler) updateJob(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	j, err := h.app.Jobs.Update(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a job", j)
}

// listJobs shows anonymous visitors only open, approved postings.
func (h *handler) listJobs(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	_, signedIn := security.PrincipalFrom(r.Context())
	page, err := h.app.Jobs.List(r.Context(), opts, !signedIn)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all jobs", page)
}

func (h *handler) listCompanyJobs(w http.ResponseWriter, r *http.Request) {
	companyID, err := httputil.PathInt(r, "companyId")
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Jobs.ListByCompany(r.Context(), companyID, opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch jobs by company", page)
}

func (h *handler) countPendingJobs(w http.ResponseWriter, r *http.Request) {
	counts, err := h.app.Jobs.CountByStatus(r.Context())
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	var out pendingCount
	for _, c := range counts {
		if c.Status == job.StatusPending {
			out.Count = c.Count
		}
	}
	writeData(w, http.StatusOK, "count pending jobs", out)
}

func (h *handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	j, err := h.app.Jobs.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch job by id", j)
}

func (h *handler) deleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Jobs.Delete(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a job", nil)
}

func (h *handler) restoreJob(w http.ResponseWriter, r *http.Request) {
	h.jobAction(w, r, "restore a job", h.app.Jobs.Restore)
}

func (h *handler) approveJob(w http.ResponseWriter, r *http.Request) {
	h.jobAction(w, r, "approve a job", h.app.Jobs.Approve)
}

func (h *handler) rejectJob(w http.ResponseWriter, r *http.Request) {
	h.jobAction(w, r, "reject a job", h.app.Jobs.Reject)
}

func (h *handler) jobAction(w http.ResponseWriter, r *http.Request, message string, fn func(context.Context, int64) (job.Job, error)) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	j, err := fn(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, message, j)
}

// skills

func (h *handler) createSkill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	s, err := h.app.Skills.Create(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusCreated, "create a skill", s)
}

func (h *handler) updateSkill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	s, err := h.app.Skills.Update(r.Context(), req)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "update a skill", s)
}

func (h *handler) listSkills(w http.ResponseWriter, r *http.Request) {
	opts, err := httputil.ListOptions(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	page, err := h.app.Skills.List(r.Context(), opts)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch all skills", page)
}

func (h *handler) getSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	s, err := h.app.Skills.Get(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "fetch skill by id", s)
}

func (h *handler) deleteSkill(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.PathID(r)
	if err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	if err := h.app.Skills.Delete(r.Context(), id); err != nil {
		writeErr(w, r, h.log, err)
		return
	}
	writeData(w, http.StatusOK, "delete a skill", nil)
}
