package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// IDRef references an existing record by id.
type IDRef struct {
	ID int64 `json:"id"`
}

// Request carries the editable fields of a posting.
type Request struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name" validate:"required,max=255"`
	Location    string     `json:"location" validate:"required"`
	Salary      float64    `json:"salary" validate:"gte=0"`
	Quantity    int        `json:"quantity" validate:"gte=1"`
	Level       job.Level  `json:"level" validate:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Active      bool       `json:"active"`
	Company     *IDRef     `json:"company"`
	Skills      []IDRef    `json:"skills"`
}

// Service manages postings and their moderation.
type Service struct {
	jobs    storage.JobStore
	skills  storage.SkillStore
	users   storage.UserStore
	resumes storage.ResumeStore
	log     *logger.Logger
	now     func() time.Time
}

// New constructs a job service.
func New(jobs storage.JobStore, skills storage.SkillStore, users storage.UserStore, resumes storage.ResumeStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("jobs")
	}
	return &Service{jobs: jobs, skills: skills, users: users, resumes: resumes, log: log, now: time.Now}
}

// Create stores a posting awaiting moderation. Recruiters always post for
// their own company; accounts without a company may name one.
func (s *Service) Create(ctx context.Context, req Request) (job.Job, error) {
	j, err := s.build(ctx, req, job.Job{})
	if err != nil {
		return job.Job{}, err
	}
	j.Status = job.StatusPending
	j.Active = false
	j.CreatedBy = security.CurrentEmail(ctx)
	created, err := s.jobs.CreateJob(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"job_id":  created.ID,
		"company": created.CompanyName(),
	}).Info("job submitted for approval")
	return created, nil
}

// Update replaces the fields and skills of a posting. A posting can only be
// switched on once approved.
func (s *Service) Update(ctx context.Context, req Request) (job.Job, error) {
	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return job.Job{}, err
	}
	j, err := s.build(ctx, req, current)
	if err != nil {
		return job.Job{}, err
	}
	if j.Active && j.Status != job.StatusApproved {
		return job.Job{}, errors.BadRequest("job %d is %s and cannot be activated", j.ID, j.Status)
	}
	j.UpdatedBy = security.CurrentEmail(ctx)
	return s.jobs.UpdateJob(ctx, j)
}

func (s *Service) build(ctx context.Context, req Request, j job.Job) (job.Job, error) {
	if strings.TrimSpace(req.Name) == "" {
		return job.Job{}, errors.BadRequest("job name is required")
	}
	if !req.Level.Valid() {
		return job.Job{}, errors.BadRequest("invalid level %q", req.Level)
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return job.Job{}, errors.BadRequest("end date must not be before start date")
	}
	j.Name = strings.TrimSpace(req.Name)
	j.Location = req.Location
	j.Salary = req.Salary
	j.Quantity = req.Quantity
	j.Level = req.Level
	j.Description = req.Description
	j.StartDate = req.StartDate
	j.EndDate = req.EndDate
	j.Active = req.Active

	if companyID := s.actingCompany(ctx); companyID != nil {
		j.CompanyID = companyID
	} else if req.Company != nil {
		id := req.Company.ID
		j.CompanyID = &id
	}

	if req.Skills != nil {
		ids := make([]int64, 0, len(req.Skills))
		for _, ref := range req.Skills {
			ids = append(ids, ref.ID)
		}
		skills, err := s.skills.ListSkillsByIDs(ctx, ids)
		if err != nil {
			return job.Job{}, err
		}
		j.Skills = skills
	}
	return j, nil
}

func (s *Service) actingCompany(ctx context.Context) *int64 {
	p, ok := security.PrincipalFrom(ctx)
	if !ok {
		return nil
	}
	u, err := s.users.GetUser(ctx, p.UserID)
	if err != nil {
		return nil
	}
	return u.CompanyID
}

func (s *Service) Get(ctx context.Context, id int64) (job.Job, error) {
	j, err := s.jobs.GetJob(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return job.Job{}, errors.NotFound("job with id = %d does not exist", id)
		}
		return job.Job{}, err
	}
	return j, nil
}

// List returns a page of postings; activeOnly hides inactive ones.
func (s *Service) List(ctx context.Context, opts storage.ListOptions, activeOnly bool) (query.Result[job.Job], error) {
	return s.jobs.ListJobs(ctx, storage.JobCriteria{ActiveOnly: activeOnly}, opts)
}

// ListByCompany returns a page of the postings of one company.
func (s *Service) ListByCompany(ctx context.Context, companyID int64, opts storage.ListOptions) (query.Result[job.Job], error) {
	return s.jobs.ListJobs(ctx, storage.JobCriteria{CompanyID: &companyID}, opts)
}

// ActiveJobs lists every posting open for applications.
func (s *Service) ActiveJobs(ctx context.Context) ([]job.Job, error) {
	return s.jobs.ListActiveJobs(ctx)
}

// Delete deactivates the posting and the applications it received.
func (s *Service) Delete(ctx context.Context, id int64) error {
	j, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.setActive(ctx, j, false)
	return err
}

// Restore reactivates a deleted posting and its applications.
func (s *Service) Restore(ctx context.Context, id int64) (job.Job, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if j.Active {
		return job.Job{}, errors.NotFound("no deactivated job with id = %d", id)
	}
	if j.Status != job.StatusApproved {
		return job.Job{}, errors.BadRequest("job %d is %s and cannot be activated", j.ID, j.Status)
	}
	return s.setActive(ctx, j, true)
}

func (s *Service) setActive(ctx context.Context, j job.Job, active bool) (job.Job, error) {
	j.Active = active
	j.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.jobs.UpdateJob(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	n, err := s.resumes.SetResumesActiveByJob(ctx, j.ID, active)
	if err != nil {
		return job.Job{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"job_id":  j.ID,
		"active":  active,
		"resumes": n,
	}).Info("job state changed")
	return updated, nil
}

// Approve publishes a pending posting.
func (s *Service) Approve(ctx context.Context, id int64) (job.Job, error) {
	return s.moderate(ctx, id, job.StatusApproved, true)
}

// Reject refuses a pending posting.
func (s *Service) Reject(ctx context.Context, id int64) (job.Job, error) {
	return s.moderate(ctx, id, job.StatusRejected, false)
}

func (s *Service) moderate(ctx context.Context, id int64, status job.Status, active bool) (job.Job, error) {
	j, err := s.Get(ctx, id)
	if err != nil {
		return job.Job{}, err
	}
	if j.Status != job.StatusPending {
		return job.Job{}, errors.BadRequest("job %d is already %s", id, j.Status)
	}
	j.Status = status
	j.Active = active
	j.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.jobs.UpdateJob(ctx, j)
	if err != nil {
		return job.Job{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"job_id": id,
		"status": status,
	}).Info("job moderated")
	return updated, nil
}

// CountByStatus returns the number of postings per moderation status.
func (s *Service) CountByStatus(ctx context.Context) ([]job.StatusCount, error) {
	return s.jobs.CountJobsByStatus(ctx)
}

// DeactivateExpired switches off active postings past their end date.
func (s *Service) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := s.jobs.DeactivateExpiredJobs(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	s.log.WithContext(ctx).WithField("jobs", n).Info("expired jobs deactivated")
	return n, nil
}

// DeactivateFilled switches off active postings whose hires reached the
// advertised quantity.
func (s *Service) DeactivateFilled(ctx context.Context) (int64, error) {
	hired, err := s.resumes.CountResumesByStatus(ctx, resume.StatusHired)
	if err != nil {
		return 0, err
	}
	if len(hired) == 0 {
		return 0, nil
	}
	active, err := s.jobs.ListActiveJobs(ctx)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for _, j := range active {
		if j.Quantity > 0 && hired[j.ID] >= int64(j.Quantity) {
			ids = append(ids, j.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	n, err := s.jobs.DeactivateJobs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.log.WithContext(ctx).WithField("jobs", n).Info("filled jobs deactivated")
	return n, nil
}
