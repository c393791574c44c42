package stats

// CompanyJobs is the number of active jobs of one company.
type CompanyJobs struct {
	CompanyID   int64  `json:"companyId" db:"company_id"`
	CompanyName string `json:"companyName" db:"company_name"`
	ActiveJobs  int64  `json:"activeJobs" db:"active_jobs"`
}

// Dashboard is the platform wide overview.
type Dashboard struct {
	TotalJobs           int64         `json:"totalJobs"`
	TotalCompanies      int64         `json:"totalCompanies"`
	TotalUsers          int64         `json:"totalUsers"`
	ActiveJobsByCompany []CompanyJobs `json:"activeJobsByCompany"`
}

// MonthCount is one point of a monthly series; Month is YYYY-MM.
type MonthCount struct {
	Month string `json:"month" db:"month"`
	Count int64  `json:"count" db:"count"`
}

// TimeSeries holds the monthly growth series.
type TimeSeries struct {
	NewJobs  []MonthCount `json:"newJobs"`
	NewUsers []MonthCount `json:"newUsers"`
}

// JobResumes is the number of resumes received by one job.
type JobResumes struct {
	JobID   int64  `json:"jobId" db:"job_id"`
	JobName string `json:"jobName" db:"job_name"`
	Count   int64  `json:"count" db:"count"`
}

// StatusCount is the number of resumes in one status.
type StatusCount struct {
	Status string `json:"status" db:"status"`
	Count  int64  `json:"count" db:"count"`
}

// Company is the recruiter dashboard for one company.
type Company struct {
	CompanyID       int64         `json:"companyId"`
	TotalJobs       int64         `json:"totalJobs"`
	ActiveJobs      int64         `json:"activeJobs"`
	TotalResumes    int64         `json:"totalResumes"`
	ResumesByStatus []StatusCount `json:"resumesByStatus"`
	ResumesByJob    []JobResumes  `json:"resumesByJob"`
}
