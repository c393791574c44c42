package job

import (
	"fmt"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
)

type Level string

const (
	LevelIntern  Level = "INTERN"
	LevelFresher Level = "FRESHER"
	LevelJunior  Level = "JUNIOR"
	LevelMiddle  Level = "MIDDLE"
	LevelSenior  Level = "SENIOR"
)

func (l Level) Valid() bool {
	switch l {
	case LevelIntern, LevelFresher, LevelJunior, LevelMiddle, LevelSenior:
		return true
	}
	return false
}

// Status is the moderation state of a posting.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Job is a posting published by a company.
type Job struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Location    string        `json:"location"`
	Salary      float64       `json:"salary"`
	Quantity    int           `json:"quantity"`
	Level       Level         `json:"level"`
	Description string        `json:"description"`
	StartDate   *time.Time    `json:"startDate"`
	EndDate     *time.Time    `json:"endDate"`
	Active      bool          `json:"active"`
	Status      Status        `json:"status"`
	CompanyID   *int64        `json:"-"`
	Company     *company.Ref  `json:"company,omitempty"`
	Skills      []skill.Skill `json:"skills"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	CreatedBy   string        `json:"createdBy"`
	UpdatedBy   string        `json:"updatedBy"`
}

// Expired reports whether the posting's end date is before now.
func (j Job) Expired(now time.Time) bool {
	return j.EndDate != nil && j.EndDate.Before(now)
}

// CompanyName returns the owning company's name or "".
func (j Job) CompanyName() string {
	if j.Company == nil {
		return ""
	}
	return j.Company.Name
}

// StatusCount is the number of jobs in one moderation state.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

// FormatSalary renders an amount as shown on job cards: "15.5 million" from
// one million up, otherwise whole thousands such as "800 thousand".
func FormatSalary(v float64) string {
	if v >= 1_000_000 {
		return fmt.Sprintf("%.1f million", v/1_000_000)
	}
	return fmt.Sprintf("%.0f thousand", v/1_000)
}
