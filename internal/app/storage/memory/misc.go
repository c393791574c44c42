package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/chat"
	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/domain/stats"
	"github.com/R3E-Network/jobhunter/internal/app/domain/subscriber"
)

// SubscriberStore implementation ----------------------------------------------

func (s *Store) CreateSubscriber(_ context.Context, sub subscriber.Subscriber) (subscriber.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subscribers {
		if strings.EqualFold(existing.Email, sub.Email) {
			return subscriber.Subscriber{}, conflict("subscriber %s", sub.Email)
		}
	}
	sub.ID = s.nextIDLocked("subscribers")
	sub.CreatedAt = now()
	sub.UpdatedAt = sub.CreatedAt
	sub.Skills = skillIDsOnly(sub.Skills)
	s.subscribers[sub.ID] = sub
	return s.hydrateSubscriberLocked(sub), nil
}

func (s *Store) UpdateSubscriber(_ context.Context, sub subscriber.Subscriber) (subscriber.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.subscribers[sub.ID]
	if !ok {
		return subscriber.Subscriber{}, notFound("subscriber", sub.ID)
	}
	sub.CreatedAt = original.CreatedAt
	sub.CreatedBy = original.CreatedBy
	sub.UpdatedAt = now()
	sub.Skills = skillIDsOnly(sub.Skills)
	s.subscribers[sub.ID] = sub
	return s.hydrateSubscriberLocked(sub), nil
}

func (s *Store) hydrateSubscriberLocked(sub subscriber.Subscriber) subscriber.Subscriber {
	sub.Skills = s.skillsByIDsLocked(skill.IDs(sub.Skills))
	return sub
}

func (s *Store) GetSubscriber(_ context.Context, id int64) (subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscribers[id]
	if !ok {
		return subscriber.Subscriber{}, notFound("subscriber", id)
	}
	return s.hydrateSubscriberLocked(sub), nil
}

func (s *Store) GetSubscriberByEmail(_ context.Context, email string) (subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subscribers {
		if strings.EqualFold(sub.Email, email) {
			return s.hydrateSubscriberLocked(sub), nil
		}
	}
	return subscriber.Subscriber{}, notFound("subscriber", email)
}

func (s *Store) ListSubscribers(_ context.Context) ([]subscriber.Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]subscriber.Subscriber, 0, len(s.subscribers))
	for _, sub := range sortedValues(s.subscribers) {
		out = append(out, s.hydrateSubscriberLocked(sub))
	}
	return out, nil
}

func (s *Store) DeleteSubscriber(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscribers[id]; !ok {
		return notFound("subscriber", id)
	}
	delete(s.subscribers, id)
	return nil
}

// NotificationStore implementation --------------------------------------------

func (s *Store) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextIDLocked("notifications")
	if n.Timestamp.IsZero() {
		n.Timestamp = now()
	}
	s.notifications[n.ID] = n
	return n, nil
}

func (s *Store) ListUnreadNotifications(_ context.Context, userID int64) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []notification.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) MarkNotificationsRead(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for id, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

// ChatStore implementation ----------------------------------------------------

func (s *Store) CreateChatHistory(_ context.Context, h chat.History) (chat.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.ID = s.nextIDLocked("chat_history")
	if h.Timestamp.IsZero() {
		h.Timestamp = now()
	}
	s.chats[h.ID] = h
	return h, nil
}

func (s *Store) ListChatHistory(_ context.Context, userID string) ([]chat.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []chat.History
	for _, h := range s.chats {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// StatsStore implementation ---------------------------------------------------

func (s *Store) Dashboard(_ context.Context) (stats.Dashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := stats.Dashboard{
		TotalJobs:      int64(len(s.jobs)),
		TotalCompanies: int64(len(s.companies)),
		TotalUsers:     int64(len(s.users)),
	}
	active := map[int64]int64{}
	for _, j := range s.jobs {
		if j.Active && j.CompanyID != nil {
			active[*j.CompanyID]++
		}
	}
	for id, n := range active {
		d.ActiveJobsByCompany = append(d.ActiveJobsByCompany, stats.CompanyJobs{
			CompanyID:   id,
			CompanyName: s.companies[id].Name,
			ActiveJobs:  n,
		})
	}
	sort.Slice(d.ActiveJobsByCompany, func(i, j int) bool {
		a, b := d.ActiveJobsByCompany[i], d.ActiveJobsByCompany[j]
		if a.ActiveJobs == b.ActiveJobs {
			return a.CompanyID < b.CompanyID
		}
		return a.ActiveJobs > b.ActiveJobs
	})
	return d, nil
}

func (s *Store) TimeSeries(_ context.Context, from, to *time.Time) (stats.TimeSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inRange := func(t time.Time) bool {
		if from != nil && t.Before(*from) {
			return false
		}
		if to != nil && t.After(*to) {
			return false
		}
		return true
	}

	jobs := map[string]int64{}
	for _, j := range s.jobs {
		if inRange(j.CreatedAt) {
			jobs[j.CreatedAt.Format("2006-01")]++
		}
	}
	users := map[string]int64{}
	for _, u := range s.users {
		if inRange(u.CreatedAt) {
			users[u.CreatedAt.Format("2006-01")]++
		}
	}
	return stats.TimeSeries{NewJobs: monthSeries(jobs), NewUsers: monthSeries(users)}, nil
}

func monthSeries(counts map[string]int64) []stats.MonthCount {
	out := make([]stats.MonthCount, 0, len(counts))
	for month, n := range counts {
		out = append(out, stats.MonthCount{Month: month, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func (s *Store) CompanyStats(_ context.Context, companyID int64) (stats.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.companies[companyID]; !ok {
		return stats.Company{}, notFound("company", companyID)
	}

	out := stats.Company{CompanyID: companyID}
	jobNames := map[int64]string{}
	for _, j := range s.jobs {
		if j.CompanyID == nil || *j.CompanyID != companyID {
			continue
		}
		out.TotalJobs++
		if j.Active {
			out.ActiveJobs++
		}
		jobNames[j.ID] = j.Name
	}

	byStatus := map[resume.Status]int64{}
	byJob := map[int64]int64{}
	for _, r := range s.resumes {
		if _, ok := jobNames[r.JobID]; !ok {
			continue
		}
		out.TotalResumes++
		byStatus[r.Status]++
		byJob[r.JobID]++
	}
	for _, st := range resume.AllStatuses {
		if n := byStatus[st]; n > 0 {
			out.ResumesByStatus = append(out.ResumesByStatus, stats.StatusCount{Status: string(st), Count: n})
		}
	}
	for id, n := range byJob {
		out.ResumesByJob = append(out.ResumesByJob, stats.JobResumes{JobID: id, JobName: jobNames[id], Count: n})
	}
	sort.Slice(out.ResumesByJob, func(i, j int) bool {
		a, b := out.ResumesByJob[i], out.ResumesByJob[j]
		if a.Count == b.Count {
			return a.JobID < b.JobID
		}
		return a.Count > b.Count
	})
	return out, nil
}
