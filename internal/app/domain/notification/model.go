package notification

import "time"

// Type classifies a notification for the client UI.
type Type string

const (
	TypeResumeStatus Type = "RESUME_STATUS"
	TypeInterview    Type = "INTERVIEW"
	TypeHired        Type = "HIRED"
	TypeRejected     Type = "REJECTED"
)

// Notification is an in-app message for one user.
type Notification struct {
	ID          int64     `json:"id"`
	Type        Type      `json:"type"`
	Message     string    `json:"message"`
	JobName     string    `json:"jobName"`
	CompanyName string    `json:"companyName"`
	ResumeID    int64     `json:"resumeId"`
	UserID      int64     `json:"userId"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}
