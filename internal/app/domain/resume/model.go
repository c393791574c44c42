package resume

import "time"

// Status is a step of the hiring pipeline.
type Status string

const (
	StatusPending            Status = "PENDING"
	StatusReviewing          Status = "REVIEWING"
	StatusApproved           Status = "APPROVED"
	StatusRejected           Status = "REJECTED"
	StatusInterviewConfirmed Status = "INTERVIEW_CONFIRMED"
	StatusInterviewRejected  Status = "INTERVIEW_REJECTED"
	StatusPassed             Status = "PASSED"
	StatusFailed             Status = "FAILED"
	StatusHired              Status = "HIRED"
)

// AllStatuses lists every pipeline status in pipeline order.
var AllStatuses = []Status{
	StatusPending,
	StatusReviewing,
	StatusApproved,
	StatusRejected,
	StatusInterviewConfirmed,
	StatusInterviewRejected,
	StatusPassed,
	StatusFailed,
	StatusHired,
}

var transitions = map[Status][]Status{
	StatusPending:            {StatusReviewing, StatusApproved, StatusRejected},
	StatusReviewing:          {StatusApproved, StatusRejected},
	StatusApproved:           {StatusInterviewConfirmed, StatusInterviewRejected, StatusRejected},
	StatusInterviewConfirmed: {StatusPassed, StatusFailed, StatusHired},
	StatusPassed:             {StatusHired, StatusFailed},
}

// ParseStatus normalises s and checks it is a known status.
func ParseStatus(s string) (Status, bool) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// CanTransition reports whether a resume may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// UserRef is the applicant as shown on a resume.
type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// JobRef is the posting as shown on a resume.
type JobRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CompanyID   int64  `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

// Resume is an application of a user to a job.
type Resume struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	Active    bool      `json:"active"`
	UserID    int64     `json:"-"`
	JobID     int64     `json:"-"`
	User      *UserRef  `json:"user,omitempty"`
	Job       *JobRef   `json:"job,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	CreatedBy string    `json:"createdBy"`
	UpdatedBy string    `json:"updatedBy"`
}

// CompanyName returns the company of the job applied to, or "".
func (r Resume) CompanyName() string {
	if r.Job == nil {
		return ""
	}
	return r.Job.CompanyName
}
