package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/chat"
	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/domain/subscriber"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
// Related records are kept by id and resolved on read, so a renamed company
// shows up on every job that references it.
type Store struct {
	mu            sync.RWMutex
	seq           map[string]int64
	users         map[int64]user.User
	companies     map[int64]company.Company
	skills        map[int64]skill.Skill
	jobs          map[int64]job.Job
	resumes       map[int64]resume.Resume
	subscribers   map[int64]subscriber.Subscriber
	roles         map[int64]role.Role
	permissions   map[int64]role.Permission
	notifications map[int64]notification.Notification
	chats         map[int64]chat.History
}

var (
	_ storage.UserStore         = (*Store)(nil)
	_ storage.CompanyStore      = (*Store)(nil)
	_ storage.SkillStore        = (*Store)(nil)
	_ storage.JobStore          = (*Store)(nil)
	_ storage.ResumeStore       = (*Store)(nil)
	_ storage.SubscriberStore   = (*Store)(nil)
	_ storage.RoleStore         = (*Store)(nil)
	_ storage.PermissionStore   = (*Store)(nil)
	_ storage.NotificationStore = (*Store)(nil)
	_ storage.ChatStore         = (*Store)(nil)
	_ storage.StatsStore        = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		seq:           make(map[string]int64),
		users:         make(map[int64]user.User),
		companies:     make(map[int64]company.Company),
		skills:        make(map[int64]skill.Skill),
		jobs:          make(map[int64]job.Job),
		resumes:       make(map[int64]resume.Resume),
		subscribers:   make(map[int64]subscriber.Subscriber),
		roles:         make(map[int64]role.Role),
		permissions:   make(map[int64]role.Permission),
		notifications: make(map[int64]notification.Notification),
		chats:         make(map[int64]chat.History),
	}
}

func (s *Store) nextIDLocked(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func now() time.Time {
	return time.Now().UTC()
}

func notFound(kind string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", kind, id, storage.ErrNotFound)
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), storage.ErrConflict)
}

// sortedValues returns map values ordered by id so pagination is stable.
func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, conflict("user email %s", u.Email)
		}
	}
	u.ID = s.nextIDLocked("users")
	u.CreatedAt = now()
	u.UpdatedAt = u.CreatedAt
	u.Company, u.Role = nil, nil
	s.users[u.ID] = u
	return s.hydrateUserLocked(u), nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, notFound("user", u.ID)
	}
	for _, existing := range s.users {
		if existing.ID != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, conflict("user email %s", u.Email)
		}
	}
	u.CreatedAt = original.CreatedAt
	u.CreatedBy = original.CreatedBy
	u.UpdatedAt = now()
	u.Company, u.Role = nil, nil
	u.CompanyID, u.RoleID = copyID(u.CompanyID), copyID(u.RoleID)
	s.users[u.ID] = u
	return s.hydrateUserLocked(u), nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, notFound("user", id)
	}
	return s.hydrateUserLocked(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return s.hydrateUserLocked(u), nil
		}
	}
	return user.User{}, notFound("user", email)
}

func (s *Store) ListUsers(_ context.Context, opts storage.ListOptions) (query.Result[user.User], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]user.User, 0, len(s.users))
	for _, u := range sortedValues(s.users) {
		items = append(items, s.hydrateUserLocked(u))
	}
	return query.Apply(items, opts.Filter, opts.Page, userFields)
}

func (s *Store) ListUsersByCompany(_ context.Context, companyID int64) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []user.User
	for _, u := range sortedValues(s.users) {
		if u.InCompany(companyID) {
			out = append(out, s.hydrateUserLocked(u))
		}
	}
	return out, nil
}

func (s *Store) SetUsersActiveByCompany(_ context.Context, companyID int64, active bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, u := range s.users {
		if u.InCompany(companyID) && u.Active != active {
			u.Active = active
			u.UpdatedAt = now()
			s.users[id] = u
			n++
		}
	}
	return n, nil
}

func (s *Store) hydrateUserLocked(u user.User) user.User {
	u.CompanyID, u.RoleID = copyID(u.CompanyID), copyID(u.RoleID)
	if u.CompanyID != nil {
		if c, ok := s.companies[*u.CompanyID]; ok {
			u.Company = c.Ref()
		}
	}
	if u.RoleID != nil {
		if r, ok := s.roles[*u.RoleID]; ok {
			u.Role = &role.Ref{ID: r.ID, Name: r.Name}
		}
	}
	return u
}

func userFields(u user.User) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return u.ID, true
		case "name":
			return u.Name, true
		case "email":
			return u.Email, true
		case "age":
			return u.Age, true
		case "gender":
			return string(u.Gender), true
		case "address":
			return u.Address, true
		case "active":
			return u.Active, true
		case "company.id", "companyid":
			return u.CompanyID, true
		case "company.name":
			if u.Company == nil {
				return nil, true
			}
			return u.Company.Name, true
		case "role.id", "roleid":
			return u.RoleID, true
		case "role.name":
			if u.Role == nil {
				return nil, true
			}
			return u.Role.Name, true
		case "createdat":
			return u.CreatedAt, true
		case "updatedat":
			return u.UpdatedAt, true
		}
		return nil, false
	}
}

// CompanyStore implementation -------------------------------------------------

func (s *Store) CreateCompany(_ context.Context, c company.Company) (company.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextIDLocked("companies")
	c.CreatedAt = now()
	c.UpdatedAt = c.CreatedAt
	s.companies[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCompany(_ context.Context, c company.Company) (company.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.companies[c.ID]
	if !ok {
		return company.Company{}, notFound("company", c.ID)
	}
	c.CreatedAt = original.CreatedAt
	c.CreatedBy = original.CreatedBy
	c.UpdatedAt = now()
	s.companies[c.ID] = c
	return c, nil
}

func (s *Store) GetCompany(_ context.Context, id int64) (company.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.companies[id]
	if !ok {
		return company.Company{}, notFound("company", id)
	}
	return c, nil
}

func (s *Store) ListCompanies(_ context.Context, opts storage.ListOptions) (query.Result[company.Company], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return query.Apply(sortedValues(s.companies), opts.Filter, opts.Page, companyFields)
}

func companyFields(c company.Company) query.Getter {
	return func(field string) (interface{}, bool) {
		switch field {
		case "id":
			return c.ID, true
		case "name":
			return c.Name, true
		case "description":
			return c.Description, true
		case "address":
			return c.Address, true
		case "active":
			return c.Active, true
		case "createdat":
			return c.CreatedAt, true
		case "updatedat":
			return c.UpdatedAt, true
		}
		return nil, false
	}
}
