package memory

import (
	"context"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

// JobStore implementation -----------------------------------------------------

func (s *Store) CreateJob(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j.ID = s.nextIDLocked("jobs")
	j.CreatedAt = now()
	j.UpdatedAt = j.CreatedAt
	j.Company = nil
	j.CompanyID = copyID(j.CompanyID)
	j.Skills = skillIDsOnly(j.Skills)
	s.jobs[j.ID] = j
	return s.hydrateJobLocked(j), nil
}

func (s *Store) UpdateJob(_ context.Context, j job.Job) (job.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.jobs[j.ID]
	if !ok {
		return job.Job{}, notFound("job", j.ID)
	}
	j.CreatedAt = original.CreatedAt
	j.CreatedBy = original.CreatedBy
	j.UpdatedAt = now()
	j.Company = nil
	j.CompanyID = copyID(j.CompanyID)
	j.Skills = skillIDsOnly(j.Skills)
	s.jobs[j.ID] = j
	return s.hydrateJobLocked(j), nil
}

func skillIDsOnly(skills []skill.Skill) []skill.Skill {
	out := make([]skill.Skill, 0, len(skills))
	for _, sk := range skills {
		out = append(out, skill.Skill{ID: sk.ID})
	}
	return out
}

func (s *Store) hydrateJobLocked(j job.Job) job.Job {
	j.CompanyID = copyID(j.CompanyID)
	if j.CompanyID != nil {
		if c, ok := s.companies[*j.CompanyID]; ok {
			j.Company = c.Ref()
		}
	}
	j.Skills = s.skillsByIDsLocked(skill.IDs(j.Skills))
	return j
}

func (s *Store) GetJob(_ context.Context, id int64) (job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, notFound("job", id)
	}
	return s.hydrateJobLocked(j), nil
}

func (s *Store) ListJobs(_ context.Context, criteria storage.JobCriteria, opts storage.ListOptions) (query.Result[job.Job], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]job.Job, 0, len(s.jobs))
	for _, j := range sortedValues(s.jobs) {
		if criteria.ActiveOnly && !j.Active {
			continue
		}
		if criteria.CompanyID != nil && (j.CompanyID == nil || *j.CompanyID != *criteria.CompanyID) {
			continue
		}
		items = append(items, s.hydrateJobLocked(j))
	}
	return query.Apply(items, opts.Filter, opts.Page, jobFields)
}

func (s *Store) ListJobsByCompany(_ context.Context, companyID int64) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []job.Job
	for _, j := range sortedValues(s.jobs) {
		if j.CompanyID != nil && *j.CompanyID == companyID {
			out = append(out, s.hydrateJobLocked(j))
		}
	}
	return out, nil
}

func (s *Store) ListActiveJobs(_ context.Context) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []job.Job
	for _, j := range sortedValues(s.jobs) {
		if j.Active {
			out = append(out, s.hydrateJobLocked(j))
		}
	}
	return out, nil
}

func (s *Store) ListActiveJobsBySkills(_ context.Context, skillIDs []int64) ([]job.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []job.Job
	for _, j := range sortedValues(s.jobs) {
		if !j.Active {
			continue
		}
		for _, sk := range j.Skills {
			if containsID(skillIDs, sk.ID) {
				out = append(out, s.hydrateJobLocked(j))
				break
			}
		}
	}
	return out, nil
}

func (s *Store) CountJobsByStatus(_ context.Context) ([]job.StatusCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[job.Status]int64{}
	for _, j := range s.jobs {
		counts[j.Status]++
	}
	out := make([]job.StatusCount, 0, 3)
	for _, st := range []job.Status{job.StatusPending, job.StatusApproved, job.StatusRejected} {
		out = append(out, job.StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

func (s *Store) SetJobsActiveByCompany(_ context.Context, companyID int64, active bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, j := range s.jobs {
		if j.CompanyID != nil && *j.CompanyID == companyID && j.Active != active {
			j.Active = active
			j.UpdatedAt = now()
			s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (s *Store) DeactivateExpiredJobs(_ context.Context, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, j := range s.jobs {
		if j.Active && j.Expired(at) {
			j.Active = false
			j.UpdatedAt = now()
			s.jobs[id] = j
			n++
		}
	}
	return n, nil
}

func (s *Store) DeactivateJobs(_ context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, id := range ids {
		j, ok := s.jobs[id]
		if !ok || !j.Active {
			continue
		}
		j.Active = false
		j.UpdatedAt = now()
		s.jobs[id] = j
		n++
	}
	return n, nil
}

func jobFields(j job.Job) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return j.ID, true
		case "name":
			return j.Name, true
		case "location":
			return j.Location, true
		case "salary":
			return j.Salary, true
		case "quantity":
			return j.Quantity, true
		case "level":
			return string(j.Level), true
		case "status":
			return string(j.Status), true
		case "active":
			return j.Active, true
		case "description":
			return j.Description, true
		case "startdate":
			return j.StartDate, true
		case "enddate":
			return j.EndDate, true
		case "company.id", "companyid":
			return j.CompanyID, true
		case "company.name":
			if j.Company == nil {
				return nil, true
			}
			return j.Company.Name, true
		case "createdat":
			return j.CreatedAt, true
		case "updatedat":
			return j.UpdatedAt, true
		}
		return nil, false
	}
}

// ResumeStore implementation --------------------------------------------------

func (s *Store) CreateResume(_ context.Context, r resume.Resume) (resume.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.resumes {
		if existing.UserID == r.UserID && existing.JobID == r.JobID {
			return resume.Resume{}, conflict("resume for user %d and job %d", r.UserID, r.JobID)
		}
	}
	r.ID = s.nextIDLocked("resumes")
	r.CreatedAt = now()
	r.UpdatedAt = r.CreatedAt
	r.User, r.Job = nil, nil
	s.resumes[r.ID] = r
	return s.hydrateResumeLocked(r), nil
}

func (s *Store) UpdateResume(_ context.Context, r resume.Resume) (resume.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.resumes[r.ID]
	if !ok {
		return resume.Resume{}, notFound("resume", r.ID)
	}
	r.CreatedAt = original.CreatedAt
	r.CreatedBy = original.CreatedBy
	r.UpdatedAt = now()
	r.User, r.Job = nil, nil
	s.resumes[r.ID] = r
	return s.hydrateResumeLocked(r), nil
}

func (s *Store) hydrateResumeLocked(r resume.Resume) resume.Resume {
	if u, ok := s.users[r.UserID]; ok {
		r.User = &resume.UserRef{ID: u.ID, Name: u.Name}
	}
	if j, ok := s.jobs[r.JobID]; ok {
		ref := &resume.JobRef{ID: j.ID, Name: j.Name}
		if j.CompanyID != nil {
			ref.CompanyID = *j.CompanyID
			if c, ok := s.companies[*j.CompanyID]; ok {
				ref.CompanyName = c.Name
			}
		}
		r.Job = ref
	}
	return r
}

func (s *Store) GetResume(_ context.Context, id int64) (resume.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resumes[id]
	if !ok {
		return resume.Resume{}, notFound("resume", id)
	}
	return s.hydrateResumeLocked(r), nil
}

func (s *Store) FindResumeByUserAndJob(_ context.Context, userID, jobID int64) (resume.Resume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.resumes {
		if r.UserID == userID && r.JobID == jobID {
			return s.hydrateResumeLocked(r), nil
		}
	}
	return resume.Resume{}, notFound("resume", jobID)
}

func (s *Store) ListResumes(_ context.Context, criteria storage.ResumeCriteria, opts storage.ListOptions) (query.Result[resume.Resume], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]resume.Resume, 0, len(s.resumes))
	for _, r := range sortedValues(s.resumes) {
		if criteria.ActiveOnly && !r.Active {
			continue
		}
		if criteria.Email != "" && r.Email != criteria.Email {
			continue
		}
		if criteria.Scoped && !containsID(criteria.JobIDs, r.JobID) && !containsID(criteria.UserIDs, r.UserID) {
			continue
		}
		items = append(items, s.hydrateResumeLocked(r))
	}
	return query.Apply(items, opts.Filter, opts.Page, resumeFields)
}

func (s *Store) CountResumesByJobAndStatus(_ context.Context, jobID int64, status resume.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.resumes {
		if r.JobID == jobID && r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountResumesByStatus(_ context.Context, status resume.Status) (map[int64]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int64]int64)
	for _, r := range s.resumes {
		if r.Status == status {
			out[r.JobID]++
		}
	}
	return out, nil
}

func (s *Store) SetResumesActiveByUser(_ context.Context, userID int64, active bool) (int64, error) {
	return s.setResumesActive(func(r resume.Resume) bool { return r.UserID == userID }, active)
}

func (s *Store) SetResumesActiveByJob(_ context.Context, jobID int64, active bool) (int64, error) {
	return s.setResumesActive(func(r resume.Resume) bool { return r.JobID == jobID }, active)
}

func (s *Store) setResumesActive(match func(resume.Resume) bool, active bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, r := range s.resumes {
		if match(r) && r.Active != active {
			r.Active = active
			r.UpdatedAt = now()
			s.resumes[id] = r
			n++
		}
	}
	return n, nil
}

func resumeFields(r resume.Resume) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return r.ID, true
		case "email":
			return r.Email, true
		case "url":
			return r.URL, true
		case "status":
			return string(r.Status), true
		case "active":
			return r.Active, true
		case "user.id", "userid":
			return r.UserID, true
		case "job.id", "jobid":
			return r.JobID, true
		case "job.name":
			if r.Job == nil {
				return nil, true
			}
			return r.Job.Name, true
		case "createdat":
			return r.CreatedAt, true
		case "updatedat":
			return r.UpdatedAt, true
		}
		return nil, false
	}
}
