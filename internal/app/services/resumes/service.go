package resumes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/platform/mail"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// FilledMessage is returned when a hire fills the last open position.
const FilledMessage = "all positions for this job have been filled"

// Mailer sends the pipeline mails.
type Mailer interface {
	SendInterviewInvitation(ctx context.Context, c mail.Candidate) error
	SendInterviewPassed(ctx context.Context, c mail.Candidate) error
	SendInterviewFailed(ctx context.Context, c mail.Candidate) error
	SendRejection(ctx context.Context, c mail.Candidate) error
	SendHired(ctx context.Context, c mail.Candidate) error
}

// Notifier stores and pushes in-app notifications.
type Notifier interface {
	Send(ctx context.Context, userID int64, n notification.Notification) (notification.Notification, error)
}

// IDRef references an existing record by id.
type IDRef struct {
	ID int64 `json:"id"`
}

// CreateRequest is an application. User defaults to the caller.
type CreateRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	URL   string `json:"url" validate:"required"`
	Job   IDRef  `json:"job"`
	User  *IDRef `json:"user"`
}

// UpdateResult is returned by status changes.
type UpdateResult struct {
	ID        int64         `json:"id"`
	Status    resume.Status `json:"status"`
	UpdatedAt time.Time     `json:"updatedAt"`
	UpdatedBy string        `json:"updatedBy"`
	Message   string        `json:"message,omitempty"`
}

// Service moves applications through the hiring pipeline.
type Service struct {
	resumes  storage.ResumeStore
	jobs     storage.JobStore
	users    storage.UserStore
	mailer   Mailer
	notifier Notifier
	frontend string
	log      *logger.Logger

	// hireMu serialises the quota check and the HIRED update.
	hireMu sync.Mutex
}

// New constructs a resume service. frontendURL is the base of the interview
// confirmation links.
func New(resumes storage.ResumeStore, jobs storage.JobStore, users storage.UserStore, mailer Mailer, notifier Notifier, frontendURL string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("resumes")
	}
	return &Service{
		resumes:  resumes,
		jobs:     jobs,
		users:    users,
		mailer:   mailer,
		notifier: notifier,
		frontend: strings.TrimRight(frontendURL, "/"),
		log:      log,
	}
}

// Create records an application to an open job.
func (s *Service) Create(ctx context.Context, req CreateRequest) (resume.Resume, error) {
	if strings.TrimSpace(req.URL) == "" {
		return resume.Resume{}, errors.BadRequest("resume url is required")
	}
	userID := int64(0)
	if req.User != nil {
		userID = req.User.ID
	} else if p, ok := security.PrincipalFrom(ctx); ok {
		userID = p.UserID
	}
	applicant, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if storage.IsNotFound(err) {
			return resume.Resume{}, errors.BadRequest("user with id = %d does not exist", userID)
		}
		return resume.Resume{}, err
	}
	j, err := s.jobs.GetJob(ctx, req.Job.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			return resume.Resume{}, errors.BadRequest("job with id = %d does not exist", req.Job.ID)
		}
		return resume.Resume{}, err
	}
	if !j.Active {
		return resume.Resume{}, errors.BadRequest("job %s is not accepting applications", j.Name)
	}
	if _, err := s.resumes.FindResumeByUserAndJob(ctx, applicant.ID, j.ID); err == nil {
		return resume.Resume{}, errors.Conflict("you have already applied to this job")
	} else if !storage.IsNotFound(err) {
		return resume.Resume{}, err
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = applicant.Email
	}
	created, err := s.resumes.CreateResume(ctx, resume.Resume{
		Email:     email,
		URL:       req.URL,
		Status:    resume.StatusPending,
		Active:    true,
		UserID:    applicant.ID,
		JobID:     j.ID,
		CreatedBy: security.CurrentEmail(ctx),
	})
	if err != nil {
		if storage.IsConflict(err) {
			return resume.Resume{}, errors.Conflict("you have already applied to this job")
		}
		return resume.Resume{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"resume_id": created.ID,
		"job_id":    j.ID,
		"user_id":   applicant.ID,
	}).Info("application received")
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (resume.Resume, error) {
	r, err := s.resumes.GetResume(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return resume.Resume{}, errors.NotFound("resume with id = %d does not exist", id)
		}
		return resume.Resume{}, err
	}
	return r, nil
}

// UpdateStatus moves a resume to status, mails the candidate and notifies
// them in app.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status resume.Status) (UpdateResult, error) {
	if status == resume.StatusHired {
		s.hireMu.Lock()
		defer s.hireMu.Unlock()
	}

	r, err := s.Get(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}
	if r.User == nil {
		return UpdateResult{}, errors.BadRequest("resume %d has no applicant", id)
	}
	if !resume.CanTransition(r.Status, status) {
		return UpdateResult{}, errors.BadRequest("cannot move resume from %s to %s", r.Status, status)
	}

	j, err := s.jobs.GetJob(ctx, r.JobID)
	if err != nil {
		return UpdateResult{}, err
	}
	if status == resume.StatusHired {
		hired, err := s.resumes.CountResumesByJobAndStatus(ctx, j.ID, resume.StatusHired)
		if err != nil {
			return UpdateResult{}, err
		}
		if hired >= int64(j.Quantity) {
			return UpdateResult{}, errors.BadRequest("the hiring quota for this job has been reached")
		}
	}

	r.Status = status
	r.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.resumes.UpdateResume(ctx, r)
	if err != nil {
		return UpdateResult{}, err
	}

	candidate := mail.Candidate{
		Email:           r.Email,
		Name:            r.User.Name,
		JobTitle:        j.Name,
		CompanyName:     j.CompanyName(),
		ConfirmationURL: fmt.Sprintf("%s/%d", s.frontend, r.ID),
	}
	s.mail(ctx, status, candidate)
	s.notify(ctx, updated, j.Name, j.CompanyName())

	result := UpdateResult{ID: updated.ID, Status: updated.Status, UpdatedAt: updated.UpdatedAt, UpdatedBy: updated.UpdatedBy}
	if status == resume.StatusHired {
		hired, err := s.resumes.CountResumesByJobAndStatus(ctx, j.ID, resume.StatusHired)
		if err == nil && hired == int64(j.Quantity) {
			result.Message = FilledMessage
		}
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"resume_id": id,
		"status":    status,
	}).Info("resume status changed")
	return result, nil
}

// mail sends the message matching status. Failures are logged by the mailer
// and never fail the transition.
func (s *Service) mail(ctx context.Context, status resume.Status, c mail.Candidate) {
	if s.mailer == nil {
		return
	}
	switch status {
	case resume.StatusApproved:
		_ = s.mailer.SendInterviewInvitation(ctx, c)
	case resume.StatusPassed:
		_ = s.mailer.SendInterviewPassed(ctx, c)
	case resume.StatusFailed:
		_ = s.mailer.SendInterviewFailed(ctx, c)
	case resume.StatusHired:
		_ = s.mailer.SendHired(ctx, c)
	case resume.StatusRejected:
		_ = s.mailer.SendRejection(ctx, c)
	}
}

func (s *Service) notify(ctx context.Context, r resume.Resume, jobName, companyName string) {
	if s.notifier == nil {
		return
	}
	n := notification.Notification{
		Type:        notificationType(r.Status),
		Message:     statusMessage(r.Status, jobName),
		JobName:     jobName,
		CompanyName: companyName,
		ResumeID:    r.ID,
	}
	if _, err := s.notifier.Send(ctx, r.UserID, n); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("resume_id", r.ID).Warn("notification not stored")
	}
}

func notificationType(status resume.Status) notification.Type {
	switch status {
	case resume.StatusApproved, resume.StatusInterviewConfirmed, resume.StatusInterviewRejected:
		return notification.TypeInterview
	case resume.StatusHired:
		return notification.TypeHired
	case resume.StatusRejected:
		return notification.TypeRejected
	}
	return notification.TypeResumeStatus
}

func statusMessage(status resume.Status, jobName string) string {
	switch status {
	case resume.StatusApproved:
		return "You have been invited to interview for " + jobName
	case resume.StatusRejected:
		return "Your application has been rejected"
	case resume.StatusPassed:
		return "Congratulations! You passed the interview for " + jobName
	case resume.StatusFailed:
		return "You did not pass the interview for " + jobName
	case resume.StatusHired:
		return "Congratulations! You have been hired for " + jobName
	case resume.StatusInterviewConfirmed:
		return "Interview confirmed for " + jobName
	case resume.StatusInterviewRejected:
		return "Interview declined for " + jobName
	}
	return fmt.Sprintf("Your application for %s is now %s", jobName, status)
}

// ConfirmInterview records that the candidate accepted the invitation.
func (s *Service) ConfirmInterview(ctx context.Context, id int64) (UpdateResult, error) {
	return s.answerInvitation(ctx, id, resume.StatusInterviewConfirmed)
}

// DeclineInterview records that the candidate turned the invitation down.
func (s *Service) DeclineInterview(ctx context.Context, id int64) (UpdateResult, error) {
	return s.answerInvitation(ctx, id, resume.StatusInterviewRejected)
}

func (s *Service) answerInvitation(ctx context.Context, id int64, status resume.Status) (UpdateResult, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return UpdateResult{}, err
	}
	if r.Status != resume.StatusApproved {
		return UpdateResult{}, errors.BadRequest("an interview can only be answered while the resume is %s", resume.StatusApproved)
	}
	if p, ok := security.PrincipalFrom(ctx); ok && p.UserID != 0 && p.UserID != r.UserID {
		return UpdateResult{}, errors.Forbidden("only the applicant can answer this invitation")
	}
	r.Status = status
	r.UpdatedBy = security.CurrentEmail(ctx)
	updated, err := s.resumes.UpdateResume(ctx, r)
	if err != nil {
		return UpdateResult{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"resume_id": id,
		"status":    status,
	}).Info("interview answered")
	return UpdateResult{ID: updated.ID, Status: updated.Status, UpdatedAt: updated.UpdatedAt, UpdatedBy: updated.UpdatedBy}, nil
}

// Delete deactivates an application.
func (s *Service) Delete(ctx context.Context, id int64) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	r.Active = false
	r.UpdatedBy = security.CurrentEmail(ctx)
	_, err = s.resumes.UpdateResume(ctx, r)
	return err
}

// Restore reactivates a deleted application.
func (s *Service) Restore(ctx context.Context, id int64) (resume.Resume, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return resume.Resume{}, err
	}
	if r.Active {
		return resume.Resume{}, errors.NotFound("no deactivated resume with id = %d", id)
	}
	r.Active = true
	r.UpdatedBy = security.CurrentEmail(ctx)
	return s.resumes.UpdateResume(ctx, r)
}

// List returns active resumes. Recruiters only see applications to their
// company's jobs or from its members.
func (s *Service) List(ctx context.Context, opts storage.ListOptions) (query.Result[resume.Resume], error) {
	criteria := storage.ResumeCriteria{ActiveOnly: true}
	if p, ok := security.PrincipalFrom(ctx); ok {
		u, err := s.users.GetUser(ctx, p.UserID)
		if err == nil && u.CompanyID != nil {
			scope, err := s.companyScope(ctx, *u.CompanyID)
			if err != nil {
				return query.Result[resume.Resume]{}, err
			}
			criteria.Scoped = true
			criteria.JobIDs = scope.jobIDs
			criteria.UserIDs = scope.userIDs
		}
	}
	return s.resumes.ListResumes(ctx, criteria, opts)
}

type scope struct {
	jobIDs  []int64
	userIDs []int64
}

func (s *Service) companyScope(ctx context.Context, companyID int64) (scope, error) {
	var sc scope
	jobs, err := s.jobs.ListJobsByCompany(ctx, companyID)
	if err != nil {
		return sc, err
	}
	for _, j := range jobs {
		sc.jobIDs = append(sc.jobIDs, j.ID)
	}
	members, err := s.users.ListUsersByCompany(ctx, companyID)
	if err != nil {
		return sc, err
	}
	for _, u := range members {
		sc.userIDs = append(sc.userIDs, u.ID)
	}
	return sc, nil
}

// ListByUser returns the caller's active applications.
func (s *Service) ListByUser(ctx context.Context, opts storage.ListOptions) (query.Result[resume.Resume], error) {
	email := security.CurrentEmail(ctx)
	if email == "" {
		return query.Result[resume.Resume]{}, errors.Unauthorized("authentication required")
	}
	return s.resumes.ListResumes(ctx, storage.ResumeCriteria{ActiveOnly: true, Email: email}, opts)
}
