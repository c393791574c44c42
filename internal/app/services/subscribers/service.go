package subscribers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/domain/subscriber"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/platform/cache"
	"github.com/R3E-Network/jobhunter/internal/platform/mail"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// SentTTL is how long a job is remembered as already mailed to a subscriber.
const SentTTL = 30 * 24 * time.Hour

// SentKey is the cache set of job ids already mailed to email.
func SentKey(email string) string {
	return "sent_jobs:" + email
}

// DigestMailer sends the job digest.
type DigestMailer interface {
	SendDigest(ctx context.Context, to, name string, jobs []mail.DigestJob) error
}

// IDRef references an existing record by id.
type IDRef struct {
	ID int64 `json:"id"`
}

type Request struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email" validate:"omitempty,email"`
	Skills []IDRef `json:"skills"`
}

// Service manages digest subscriptions.
type Service struct {
	subscribers storage.SubscriberStore
	skills      storage.SkillStore
	jobs        storage.JobStore
	cache       cache.Cache
	mailer      DigestMailer
	log         *logger.Logger
}

func New(subscribers storage.SubscriberStore, skills storage.SkillStore, jobs storage.JobStore, c cache.Cache, mailer DigestMailer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("subscribers")
	}
	return &Service{subscribers: subscribers, skills: skills, jobs: jobs, cache: c, mailer: mailer, log: log}
}

// Create subscribes an email address to the skills in req.
func (s *Service) Create(ctx context.Context, req Request) (subscriber.Subscriber, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = security.CurrentEmail(ctx)
	}
	if email == "" {
		return subscriber.Subscriber{}, errors.BadRequest("email is required")
	}
	if _, err := s.subscribers.GetSubscriberByEmail(ctx, email); err == nil {
		return subscriber.Subscriber{}, errors.Conflict("email %s is already subscribed", email)
	} else if !storage.IsNotFound(err) {
		return subscriber.Subscriber{}, err
	}
	skills, err := s.resolveSkills(ctx, req.Skills)
	if err != nil {
		return subscriber.Subscriber{}, err
	}
	created, err := s.subscribers.CreateSubscriber(ctx, subscriber.Subscriber{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Skills:    skills,
		CreatedBy: security.CurrentEmail(ctx),
	})
	if err != nil {
		if storage.IsConflict(err) {
			return subscriber.Subscriber{}, errors.Conflict("email %s is already subscribed", email)
		}
		return subscriber.Subscriber{}, err
	}
	return created, nil
}

// Update replaces the skills of a subscription.
func (s *Service) Update(ctx context.Context, req Request) (subscriber.Subscriber, error) {
	current, err := s.subscribers.GetSubscriber(ctx, req.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			return subscriber.Subscriber{}, errors.NotFound("subscriber with id = %d does not exist", req.ID)
		}
		return subscriber.Subscriber{}, err
	}
	if req.Skills != nil {
		skills, err := s.resolveSkills(ctx, req.Skills)
		if err != nil {
			return subscriber.Subscriber{}, err
		}
		current.Skills = skills
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		current.Name = name
	}
	current.UpdatedBy = security.CurrentEmail(ctx)
	return s.subscribers.UpdateSubscriber(ctx, current)
}

func (s *Service) resolveSkills(ctx context.Context, refs []IDRef) ([]skill.Skill, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return s.skills.ListSkillsByIDs(ctx, ids)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.subscribers.DeleteSubscriber(ctx, id); err != nil {
		if storage.IsNotFound(err) {
			return errors.NotFound("subscriber with id = %d does not exist", id)
		}
		return err
	}
	return nil
}

// GetByEmail returns the subscription of the caller.
func (s *Service) GetByEmail(ctx context.Context) (subscriber.Subscriber, error) {
	email := security.CurrentEmail(ctx)
	sub, err := s.subscribers.GetSubscriberByEmail(ctx, email)
	if err != nil {
		if storage.IsNotFound(err) {
			return subscriber.Subscriber{}, errors.NotFound("no subscription for %s", email)
		}
		return subscriber.Subscriber{}, err
	}
	return sub, nil
}

// SendDigest mails every subscriber the active jobs matching their skills
// that they have not been sent yet, and returns how many were mailed. A
// failure for one subscriber does not stop the others.
func (s *Service) SendDigest(ctx context.Context) (int, error) {
	subs, err := s.subscribers.ListSubscribers(ctx)
	if err != nil {
		return 0, err
	}
	var (
		sent   int
		result *multierror.Error
	)
	for _, sub := range subs {
		if len(sub.Skills) == 0 {
			continue
		}
		ok, err := s.sendOne(ctx, sub)
		if ok {
			sent++
		}
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("digest for %s: %w", sub.Email, err))
		}
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"subscribers": len(subs),
		"mailed":      sent,
	}).Info("job digest sent")
	return sent, result.ErrorOrNil()
}

func (s *Service) sendOne(ctx context.Context, sub subscriber.Subscriber) (bool, error) {
	matched, err := s.jobs.ListActiveJobsBySkills(ctx, skill.IDs(sub.Skills))
	if err != nil {
		return false, err
	}
	fresh, err := s.unsent(ctx, sub.Email, matched)
	if err != nil {
		return false, err
	}
	if len(fresh) == 0 {
		return false, nil
	}

	lines := make([]mail.DigestJob, 0, len(fresh))
	ids := make([]string, 0, len(fresh))
	for _, j := range fresh {
		lines = append(lines, digestLine(j))
		ids = append(ids, strconv.FormatInt(j.ID, 10))
	}
	if err := s.mailer.SendDigest(ctx, sub.Email, sub.Name, lines); err != nil {
		return false, err
	}
	if err := s.cache.AddToSet(ctx, SentKey(sub.Email), SentTTL, ids...); err != nil {
		return true, fmt.Errorf("mark jobs sent: %w", err)
	}
	return true, nil
}

func (s *Service) unsent(ctx context.Context, email string, jobs []job.Job) ([]job.Job, error) {
	members, err := s.cache.Members(ctx, SentKey(email))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		seen[m] = true
	}
	out := make([]job.Job, 0, len(jobs))
	for _, j := range jobs {
		if !seen[strconv.FormatInt(j.ID, 10)] {
			out = append(out, j)
		}
	}
	return out, nil
}

func digestLine(j job.Job) mail.DigestJob {
	names := make([]string, 0, len(j.Skills))
	for _, sk := range j.Skills {
		names = append(names, sk.Name)
	}
	return mail.DigestJob{Name: j.Name, CompanyName: j.CompanyName(), Salary: j.Salary, Skills: names}
}
