package sqlstore

import (
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
)

// Row types mirror the tables created by internal/platform/migrations.

// Audit holds the columns every mutable table carries.
type Audit struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	CreatedBy string
	UpdatedBy string
}

type companyRecord struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Description string
	Address     string
	Logo        string
	Active      bool
	Audit
}

func (companyRecord) TableName() string { return "companies" }

type skillRecord struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
	Audit
}

func (skillRecord) TableName() string { return "skills" }

type permissionRecord struct {
	ID      int64 `gorm:"primaryKey"`
	Name    string
	APIPath string `gorm:"column:api_path"`
	Method  string
	Module  string
	Audit
}

func (permissionRecord) TableName() string { return "permissions" }

type roleRecord struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Description string
	Active      bool
	Permissions []permissionRecord `gorm:"many2many:permission_role;joinForeignKey:RoleID;joinReferences:PermissionID"`
	Audit
}

func (roleRecord) TableName() string { return "roles" }

type userRecord struct {
	ID           int64 `gorm:"primaryKey"`
	Name         string
	Email        string
	Password     string
	Age          int
	Gender       string
	Address      string
	Avatar       string
	CV           string `gorm:"column:cv"`
	RefreshToken string
	Active       bool
	CompanyID    *int64
	Company      *companyRecord `gorm:"foreignKey:CompanyID"`
	RoleID       *int64
	Role         *roleRecord `gorm:"foreignKey:RoleID"`
	Audit
}

func (userRecord) TableName() string { return "users" }

type jobRecord struct {
	ID          int64 `gorm:"primaryKey"`
	Name        string
	Location    string
	Salary      float64
	Quantity    int
	Level       string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Active      bool
	Status      string
	CompanyID   *int64
	Company     *companyRecord `gorm:"foreignKey:CompanyID"`
	Skills      []skillRecord  `gorm:"many2many:job_skill;joinForeignKey:JobID;joinReferences:SkillID"`
	Audit
}

func (jobRecord) TableName() string { return "jobs" }

type resumeRecord struct {
	ID     int64 `gorm:"primaryKey"`
	Email  string
	URL    string `gorm:"column:url"`
	Status string
	Active bool
	UserID int64
	User   *userRecord `gorm:"foreignKey:UserID"`
	JobID  int64
	Job    *jobRecord `gorm:"foreignKey:JobID"`
	Audit
}

func (resumeRecord) TableName() string { return "resumes" }

type subscriberRecord struct {
	ID     int64 `gorm:"primaryKey"`
	Name   string
	Email  string
	Skills []skillRecord `gorm:"many2many:subscriber_skill;joinForeignKey:SubscriberID;joinReferences:SkillID"`
	Audit
}

func (subscriberRecord) TableName() string { return "subscribers" }

type notificationRecord struct {
	ID          int64 `gorm:"primaryKey"`
	Type        string
	Message     string
	JobName     string
	CompanyName string
	ResumeID    int64
	UserID      int64
	SentAt      time.Time
	IsRead      bool
}

func (notificationRecord) TableName() string { return "notifications" }

type chatRecord struct {
	ID       int64 `gorm:"primaryKey"`
	UserID   string
	Question string
	Answer   string
	AskedAt  time.Time
}

func (chatRecord) TableName() string { return "chat_history" }

func auditOf(createdAt, updatedAt time.Time, createdBy, updatedBy string) Audit {
	return Audit{CreatedAt: createdAt, UpdatedAt: updatedAt, CreatedBy: createdBy, UpdatedBy: updatedBy}
}

func toCompanyRecord(c company.Company) companyRecord {
	return companyRecord{
		ID: c.ID, Name: c.Name, Description: c.Description, Address: c.Address, Logo: c.Logo, Active: c.Active,
		Audit: auditOf(c.CreatedAt, c.UpdatedAt, c.CreatedBy, c.UpdatedBy),
	}
}

func (r companyRecord) domain() company.Company {
	return company.Company{
		ID: r.ID, Name: r.Name, Description: r.Description, Address: r.Address, Logo: r.Logo, Active: r.Active,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
}

func toSkillRecord(s skill.Skill) skillRecord {
	return skillRecord{ID: s.ID, Name: s.Name, Audit: auditOf(s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy)}
}

func (r skillRecord) domain() skill.Skill {
	return skill.Skill{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy}
}

func skillRefs(skills []skill.Skill) []skillRecord {
	out := make([]skillRecord, 0, len(skills))
	for _, s := range skills {
		out = append(out, skillRecord{ID: s.ID})
	}
	return out
}

func skillsOf(recs []skillRecord) []skill.Skill {
	out := make([]skill.Skill, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.domain())
	}
	return out
}

func toPermissionRecord(p role.Permission) permissionRecord {
	return permissionRecord{
		ID: p.ID, Name: p.Name, APIPath: p.APIPath, Method: p.Method, Module: p.Module,
		Audit: auditOf(p.CreatedAt, p.UpdatedAt, p.CreatedBy, p.UpdatedBy),
	}
}

func (r permissionRecord) domain() role.Permission {
	return role.Permission{
		ID: r.ID, Name: r.Name, APIPath: r.APIPath, Method: r.Method, Module: r.Module,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
}

func toRoleRecord(r role.Role) roleRecord {
	perms := make([]permissionRecord, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, permissionRecord{ID: p.ID})
	}
	return roleRecord{
		ID: r.ID, Name: r.Name, Description: r.Description, Active: r.Active, Permissions: perms,
		Audit: auditOf(r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy),
	}
}

func (r roleRecord) domain() role.Role {
	perms := make([]role.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, p.domain())
	}
	return role.Role{
		ID: r.ID, Name: r.Name, Description: r.Description, Active: r.Active, Permissions: perms,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
}

func toUserRecord(u user.User) userRecord {
	return userRecord{
		ID: u.ID, Name: u.Name, Email: u.Email, Password: u.PasswordHash, Age: u.Age, Gender: string(u.Gender),
		Address: u.Address, Avatar: u.Avatar, CV: u.CV, RefreshToken: u.RefreshToken, Active: u.Active,
		CompanyID: u.CompanyID, RoleID: u.RoleID,
		Audit: auditOf(u.CreatedAt, u.UpdatedAt, u.CreatedBy, u.UpdatedBy),
	}
}

func (r userRecord) domain() user.User {
	u := user.User{
		ID: r.ID, Name: r.Name, Email: r.Email, PasswordHash: r.Password, Age: r.Age, Gender: user.Gender(r.Gender),
		Address: r.Address, Avatar: r.Avatar, CV: r.CV, RefreshToken: r.RefreshToken, Active: r.Active,
		CompanyID: r.CompanyID, RoleID: r.RoleID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
	if r.Company != nil {
		u.Company = r.Company.domain().Ref()
	}
	if r.Role != nil {
		u.Role = &role.Ref{ID: r.Role.ID, Name: r.Role.Name}
	}
	return u
}

func toJobRecord(j job.Job) jobRecord {
	return jobRecord{
		ID: j.ID, Name: j.Name, Location: j.Location, Salary: j.Salary, Quantity: j.Quantity, Level: string(j.Level),
		Description: j.Description, StartDate: j.StartDate, EndDate: j.EndDate, Active: j.Active, Status: string(j.Status),
		CompanyID: j.CompanyID, Skills: skillRefs(j.Skills),
		Audit: auditOf(j.CreatedAt, j.UpdatedAt, j.CreatedBy, j.UpdatedBy),
	}
}

func (r jobRecord) domain() job.Job {
	j := job.Job{
		ID: r.ID, Name: r.Name, Location: r.Location, Salary: r.Salary, Quantity: r.Quantity, Level: job.Level(r.Level),
		Description: r.Description, StartDate: r.StartDate, EndDate: r.EndDate, Active: r.Active, Status: job.Status(r.Status),
		CompanyID: r.CompanyID, Skills: skillsOf(r.Skills),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
	if r.Company != nil {
		j.Company = r.Company.domain().Ref()
	}
	return j
}

func toResumeRecord(r resume.Resume) resumeRecord {
	return resumeRecord{
		ID: r.ID, Email: r.Email, URL: r.URL, Status: string(r.Status), Active: r.Active, UserID: r.UserID, JobID: r.JobID,
		Audit: auditOf(r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy),
	}
}

func (r resumeRecord) domain() resume.Resume {
	out := resume.Resume{
		ID: r.ID, Email: r.Email, URL: r.URL, Status: resume.Status(r.Status), Active: r.Active, UserID: r.UserID, JobID: r.JobID,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
	if r.User != nil {
		out.User = &resume.UserRef{ID: r.User.ID, Name: r.User.Name}
	}
	if r.Job != nil {
		ref := &resume.JobRef{ID: r.Job.ID, Name: r.Job.Name}
		if r.Job.CompanyID != nil {
			ref.CompanyID = *r.Job.CompanyID
		}
		if r.Job.Company != nil {
			ref.CompanyName = r.Job.Company.Name
		}
		out.Job = ref
	}
	return out
}

func toSubscriberRecord(s subscriber.Subscriber) subscriberRecord {
	return subscriberRecord{
		ID: s.ID, Name: s.Name, Email: s.Email, Skills: skillRefs(s.Skills),
		Audit: auditOf(s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy),
	}
}

func (r subscriberRecord) domain() subscriber.Subscriber {
	return subscriber.Subscriber{
		ID: r.ID, Name: r.Name, Email: r.Email, Skills: skillsOf(r.Skills),
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, CreatedBy: r.CreatedBy, UpdatedBy: r.UpdatedBy,
	}
}

func (r notificationRecord) domain() notification.Notification {
	return notification.Notification{
		ID: r.ID, Type: notification.Type(r.Type), Message: r.Message, JobName: r.JobName, CompanyName: r.CompanyName,
		ResumeID: r.ResumeID, UserID: r.UserID, Timestamp: r.SentAt, Read: r.IsRead,
	}
}

func (r chatRecord) domain() chat.History {
	return chat.History{ID: r.ID, UserID: r.UserID, Question: r.Question, Answer: r.Answer, Timestamp: r.AskedAt}
}
