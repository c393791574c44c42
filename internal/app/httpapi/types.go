package httpapi

import (
	"net/http"

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
	"github.com/R3E-Network/jobhunter/internal/app/services/auth"
	"github.com/R3E-Network/jobhunter/internal/app/services/chatbot"
	"github.com/R3E-Network/jobhunter/internal/app/services/companies"
	"github.com/R3E-Network/jobhunter/internal/app/services/files"
	"github.com/R3E-Network/jobhunter/internal/app/services/jobs"
	"github.com/R3E-Network/jobhunter/internal/app/services/resumes"
	"github.com/R3E-Network/jobhunter/internal/app/services/roles"
	"github.com/R3E-Network/jobhunter/internal/app/services/skills"
	"github.com/R3E-Network/jobhunter/internal/app/services/subscribers"
	"github.com/R3E-Network/jobhunter/internal/app/services/users"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Request and response bodies, named for the OpenAPI document.
type (
	loginRequest     = auth.LoginRequest
	loginResult      = auth.LoginResult
	userLogin        = auth.UserLogin
	registerRequest  = auth.RegisterRequest
	recruiterRequest = auth.RecruiterRequest

	companyRequest = companies.Request
	companyView    = company.Company
	companyPage    = query.Result[company.Company]

	jobRequest = jobs.Request
	jobView    = job.Job
	jobPage    = query.Result[job.Job]

	skillRequest = skills.Request
	skillView    = skill.Skill
	skillPage    = query.Result[skill.Skill]

	userCreateRequest     = users.CreateRequest
	userUpdateRequest     = users.UpdateRequest
	changePasswordRequest = users.ChangePasswordRequest
	userView              = user.User
	userPage              = query.Result[user.User]

	roleRequest       = roles.RoleRequest
	roleView          = role.Role
	rolePage          = query.Result[role.Role]
	permissionRequest = roles.PermissionRequest
	permissionView    = role.Permission
	permissionPage    = query.Result[role.Permission]

	resumeRequest = resumes.CreateRequest
	resumeUpdate  = resumes.UpdateResult
	resumeView    = resume.Resume
	resumePage    = query.Result[resume.Resume]

	subscriberRequest = subscribers.Request
	subscriberView    = subscriber.Subscriber

	notificationView = notification.Notification
	uploadResult     = files.Result

	dashboardView    = stats.Dashboard
	timeSeriesView   = stats.TimeSeries
	companyStatsView = stats.Company

	chatAnswer      = chatbot.Answer
	chatHistoryView = chat.History
)

type googleCredential struct {
	Credential string `json:"credential" validate:"required"`
}

type pendingCount struct {
	Count int64 `json:"count"`
}

type resumeStatusRequest struct {
	ID     int64         `json:"id" validate:"required"`
	Status resume.Status `json:"status" validate:"required"`
}

type digestResult struct {
	Mailed int `json:"mailed"`
}

type markedRead struct {
	Updated int64 `json:"updated"`
}

type chatRequest struct {
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, message string, data interface{}) {
	httputil.WriteData(w, status, message, data)
}

func writeErr(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	httputil.WriteError(w, r, log, err)
}

func notFoundError(r *http.Request) error {
	return errors.NotFound("no route for %s %s", r.Method, r.URL.Path)
}
