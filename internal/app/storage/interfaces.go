package storage

import (
	"context"
	"errors"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/chat"
	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/domain/stats"
	"github.com/R3E-Network/jobhunter/internal/app/domain/subscriber"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
)

var (
	// ErrNotFound is wrapped by every lookup that finds no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is wrapped when a uniqueness constraint is violated.
	ErrConflict = errors.New("already exists")
)

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// ListOptions carries the client supplied filter and page.
type ListOptions struct {
	Filter *query.Filter
	Page   query.Page
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context, opts ListOptions) (query.Result[user.User], error)
	ListUsersByCompany(ctx context.Context, companyID int64) ([]user.User, error)
	SetUsersActiveByCompany(ctx context.Context, companyID int64, active bool) (int64, error)
}

// CompanyStore persists employers.
type CompanyStore interface {
	CreateCompany(ctx context.Context, c company.Company) (company.Company, error)
	UpdateCompany(ctx context.Context, c company.Company) (company.Company, error)
	GetCompany(ctx context.Context, id int64) (company.Company, error)
	ListCompanies(ctx context.Context, opts ListOptions) (query.Result[company.Company], error)
}

// SkillStore persists the skill catalogue.
type SkillStore interface {
	CreateSkill(ctx context.Context, s skill.Skill) (skill.Skill, error)
	UpdateSkill(ctx context.Context, s skill.Skill) (skill.Skill, error)
	GetSkill(ctx context.Context, id int64) (skill.Skill, error)
	GetSkillByName(ctx context.Context, name string) (skill.Skill, error)
	ListSkills(ctx context.Context, opts ListOptions) (query.Result[skill.Skill], error)
	ListSkillsByIDs(ctx context.Context, ids []int64) ([]skill.Skill, error)
	// DeleteSkill removes the skill and detaches it from jobs and subscribers.
	DeleteSkill(ctx context.Context, id int64) error
}

// JobCriteria narrows job listings beyond the client filter.
type JobCriteria struct {
	CompanyID  *int64
	ActiveOnly bool
}

// JobStore persists postings.
type JobStore interface {
	CreateJob(ctx context.Context, j job.Job) (job.Job, error)
	// UpdateJob replaces scalar fields and the skill set.
	UpdateJob(ctx context.Context, j job.Job) (job.Job, error)
	GetJob(ctx context.Context, id int64) (job.Job, error)
	ListJobs(ctx context.Context, criteria JobCriteria, opts ListOptions) (query.Result[job.Job], error)
	ListJobsByCompany(ctx context.Context, companyID int64) ([]job.Job, error)
	ListActiveJobs(ctx context.Context) ([]job.Job, error)
	ListActiveJobsBySkills(ctx context.Context, skillIDs []int64) ([]job.Job, error)
	CountJobsByStatus(ctx context.Context) ([]job.StatusCount, error)
	SetJobsActiveByCompany(ctx context.Context, companyID int64, active bool) (int64, error)
	// DeactivateExpiredJobs switches off active jobs whose end date is before now.
	DeactivateExpiredJobs(ctx context.Context, now time.Time) (int64, error)
	DeactivateJobs(ctx context.Context, ids []int64) (int64, error)
}

// ResumeCriteria narrows resume listings beyond the client filter. When
// Scoped is set only resumes whose job is in JobIDs or whose applicant is in
// UserIDs are returned.
type ResumeCriteria struct {
	ActiveOnly bool
	Email      string
	Scoped     bool
	JobIDs     []int64
	UserIDs    []int64
}

// ResumeStore persists applications.
type ResumeStore interface {
	CreateResume(ctx context.Context, r resume.Resume) (resume.Resume, error)
	UpdateResume(ctx context.Context, r resume.Resume) (resume.Resume, error)
	GetResume(ctx context.Context, id int64) (resume.Resume, error)
	FindResumeByUserAndJob(ctx context.Context, userID, jobID int64) (resume.Resume, error)
	ListResumes(ctx context.Context, criteria ResumeCriteria, opts ListOptions) (query.Result[resume.Resume], error)
	CountResumesByJobAndStatus(ctx context.Context, jobID int64, status resume.Status) (int64, error)
	// CountResumesByStatus groups the resumes in status by job id.
	CountResumesByStatus(ctx context.Context, status resume.Status) (map[int64]int64, error)
	SetResumesActiveByUser(ctx context.Context, userID int64, active bool) (int64, error)
	SetResumesActiveByJob(ctx context.Context, jobID int64, active bool) (int64, error)
}

// SubscriberStore persists digest subscriptions.
type SubscriberStore interface {
	CreateSubscriber(ctx context.Context, s subscriber.Subscriber) (subscriber.Subscriber, error)
	UpdateSubscriber(ctx context.Context, s subscriber.Subscriber) (subscriber.Subscriber, error)
	GetSubscriber(ctx context.Context, id int64) (subscriber.Subscriber, error)
	GetSubscriberByEmail(ctx context.Context, email string) (subscriber.Subscriber, error)
	ListSubscribers(ctx context.Context) ([]subscriber.Subscriber, error)
	DeleteSubscriber(ctx context.Context, id int64) error
}

// RoleStore persists roles and their permissions.
type RoleStore interface {
	CreateRole(ctx context.Context, r role.Role) (role.Role, error)
	UpdateRole(ctx context.Context, r role.Role) (role.Role, error)
	GetRole(ctx context.Context, id int64) (role.Role, error)
	GetRoleByName(ctx context.Context, name string) (role.Role, error)
	ListRoles(ctx context.Context, opts ListOptions) (query.Result[role.Role], error)
	DeleteRole(ctx context.Context, id int64) error
}

// PermissionStore persists the permission catalogue.
type PermissionStore interface {
	CreatePermission(ctx context.Context, p role.Permission) (role.Permission, error)
	UpdatePermission(ctx context.Context, p role.Permission) (role.Permission, error)
	GetPermission(ctx context.Context, id int64) (role.Permission, error)
	FindPermission(ctx context.Context, apiPath, method string) (role.Permission, error)
	ListPermissions(ctx context.Context, opts ListOptions) (query.Result[role.Permission], error)
	ListPermissionsByIDs(ctx context.Context, ids []int64) ([]role.Permission, error)
	// DeletePermission removes the permission and detaches it from roles.
	DeletePermission(ctx context.Context, id int64) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error)
	ListUnreadNotifications(ctx context.Context, userID int64) ([]notification.Notification, error)
	MarkNotificationsRead(ctx context.Context, userID int64) (int64, error)
}

// ChatStore persists assistant conversations.
type ChatStore interface {
	CreateChatHistory(ctx context.Context, h chat.History) (chat.History, error)
	ListChatHistory(ctx context.Context, userID string) ([]chat.History, error)
}

// StatsStore computes dashboard aggregates.
type StatsStore interface {
	Dashboard(ctx context.Context) (stats.Dashboard, error)
	TimeSeries(ctx context.Context, from, to *time.Time) (stats.TimeSeries, error)
	CompanyStats(ctx context.Context, companyID int64) (stats.Company, error)
}
