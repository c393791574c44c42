// Package httpapi exposes the jobhunter services over REST, serves the
// OpenAPI document, health and metrics, and mounts the websocket hub.
package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gorilla/mux"

	app "github.com/R3E-Network/jobhunter/internal/app"
	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/middleware"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Route is one REST endpoint. Every route doubles as a permission in the
// seeded catalogue.
type Route struct {
	Method  string
	Path    string
	Name    string
	Module  string
	Handler http.HandlerFunc
	// Request and Response are sample values used for the OpenAPI schemas.
	Request  interface{}
	Response interface{}
}

// handler bundles HTTP endpoints for the application services.
type handler struct {
	app *app.Application
	log *logger.Logger

	docOnce sync.Once
	doc     *openapi3.T
	docErr  error
}

// NewHandler returns the complete HTTP surface with its middleware chain:
// tracing, metrics, CORS and rate limiting around the router; route
// labelling, authentication and permission checks inside it.
func NewHandler(application *app.Application, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(h.methodNotAllowed)
	r.Use(metrics.LabelRoute)
	r.Use(middleware.NewAuthMiddleware(application.Auth.Tokens(), middleware.PublicRoutes, log.Named("auth")).Handler)
	r.Use(middleware.NewPermissionMiddleware(application.Roles, middleware.PermissionWhitelist, log.Named("permission")).Handler)

	for _, rt := range h.routes() {
		r.HandleFunc(rt.Path, rt.Handler).Methods(rt.Method)
	}

	r.HandleFunc("/", h.index).Methods(http.MethodGet)
	r.HandleFunc("/oauth2/authorization/google", h.googleAuthorize).Methods(http.MethodGet)
	r.HandleFunc("/login/oauth2/code/google", h.googleCallback).Methods(http.MethodGet)
	r.HandleFunc("/actuator/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/v3/api-docs", h.apiDocs).Methods(http.MethodGet)
	r.HandleFunc("/swagger-ui", h.swaggerUI).Methods(http.MethodGet)
	r.HandleFunc("/swagger-ui/index.html", h.swaggerUI).Methods(http.MethodGet)
	r.Handle("/ws", application.Hub).Methods(http.MethodGet)

	var out http.Handler = r
	out = application.RateLimiter.Handler(out)
	out = middleware.NewCORSMiddleware(application.Config.Server.AllowedOrigins).Handler(out)
	out = metrics.InstrumentHandler(out)
	out = middleware.NewTracingMiddleware(log.Named("http")).Handler(out)
	return out
}

// Catalogue lists one permission per route for seeding.
func Catalogue() []role.Permission {
	routes := (&handler{}).routes()
	out := make([]role.Permission, 0, len(routes))
	for _, rt := range routes {
		out = append(out, role.Permission{
			Name:    rt.Name,
			APIPath: rt.Path,
			Method:  rt.Method,
			Module:  rt.Module,
		})
	}
	return out
}

const v1 = "/api/v1"

// routes is the REST table. Static segments are listed before {id}
// siblings because mux matches in order.
func (h *handler) routes() []Route {
	return []Route{
		// auth
		{http.MethodPost, v1 + "/auth/login", "Login", "AUTH", h.login, loginRequest{}, loginResult{}},
		{http.MethodGet, v1 + "/auth/account", "Fetch account", "AUTH", h.account, nil, userLogin{}},
		{http.MethodGet, v1 + "/auth/refresh", "Refresh token", "AUTH", h.refresh, nil, loginResult{}},
		{http.MethodPost, v1 + "/auth/logout", "Logout", "AUTH", h.logout, nil, nil},
		{http.MethodPost, v1 + "/auth/register", "Register a new user", "AUTH", h.register, registerRequest{}, userView{}},
		{http.MethodPost, v1 + "/auth/register-recruiter", "Register recruiter with company", "AUTH", h.registerRecruiter, recruiterRequest{}, userView{}},
		{http.MethodPost, v1 + "/auth/oauth2-login", "Login with Google", "AUTH", h.googleLogin, googleCredential{}, loginResult{}},

		// companies
		{http.MethodPost, v1 + "/companies", "Create a company", "COMPANIES", h.createCompany, companyRequest{}, companyView{}},
		{http.MethodGet, v1 + "/companies", "Fetch companies", "COMPANIES", h.listCompanies, nil, companyPage{}},
		{http.MethodPut, v1 + "/companies", "Update a company", "COMPANIES", h.updateCompany, companyRequest{}, companyView{}},
		{http.MethodGet, v1 + "/companies/{id}", "Fetch company by id", "COMPANIES", h.getCompany, nil, companyView{}},
		{http.MethodDelete, v1 + "/companies/{id}", "Delete a company", "COMPANIES", h.deleteCompany, nil, nil},
		{http.MethodPut, v1 + "/companies/{id}/restore", "Restore a company", "COMPANIES", h.restoreCompany, nil, companyView{}},
		{http.MethodGet, v1 + "/companies/{companyId}/jobs", "Fetch jobs of a company", "JOBS", h.listCompanyJobs, nil, jobPage{}},

		// jobs
		{http.MethodPost, v1 + "/jobs", "Create a job", "JOBS", h.createJob, jobRequest{}, jobView{}},
		{http.MethodPut, v1 + "/jobs", "Update a job", "JOBS", h.updateJob, jobRequest{}, jobView{}},
		{http.MethodGet, v1 + "/jobs", "Fetch jobs", "JOBS", h.listJobs, nil, jobPage{}},
		{http.MethodGet, v1 + "/jobs/count-pending", "Count pending jobs", "JOBS", h.countPendingJobs, nil, pendingCount{}},
		{http.MethodGet, v1 + "/jobs/{id}", "Fetch job by id", "JOBS", h.getJob, nil, jobView{}},
		{http.MethodDelete, v1 + "/jobs/{id}", "Delete a job", "JOBS", h.deleteJob, nil, nil},
		{http.MethodPut, v1 + "/jobs/{id}/restore", "Restore a job", "JOBS", h.restoreJob, nil, jobView{}},
		{http.MethodPut, v1 + "/jobs/{id}/approve", "Approve a pending job", "JOBS", h.approveJob, nil, jobView{}},
		{http.MethodPut, v1 + "/jobs/{id}/reject", "Reject a pending job", "JOBS", h.rejectJob, nil, jobView{}},

		// skills
		{http.MethodPost, v1 + "/skills", "Create a skill", "SKILLS", h.createSkill, skillRequest{}, skillView{}},
		{http.MethodPut, v1 + "/skills", "Update a skill", "SKILLS", h.updateSkill, skillRequest{}, skillView{}},
		{http.MethodGet, v1 + "/skills", "Fetch skills", "SKILLS", h.listSkills, nil, skillPage{}},
		{http.MethodGet, v1 + "/skills/{id}", "Fetch skill by id", "SKILLS", h.getSkill, nil, skillView{}},
		{http.MethodDelete, v1 + "/skills/{id}", "Delete a skill", "SKILLS", h.deleteSkill, nil, nil},

		// users
		{http.MethodPost, v1 + "/users", "Create a user", "USERS", h.createUser, userCreateRequest{}, userView{}},
		{http.MethodPut, v1 + "/users", "Update a user", "USERS", h.updateUser, userUpdateRequest{}, userView{}},
		{http.MethodGet, v1 + "/users", "Fetch users", "USERS", h.listUsers, nil, userPage{}},
		{http.MethodPost, v1 + "/users/change-password", "Change password", "USERS", h.changePassword, changePasswordRequest{}, nil},
		{http.MethodGet, v1 + "/users/{id}", "Fetch user by id", "USERS", h.getUser, nil, userView{}},
		{http.MethodDelete, v1 + "/users/{id}", "Delete a user", "USERS", h.deleteUser, nil, nil},
		{http.MethodPut, v1 + "/users/{id}/restore", "Restore a user", "USERS", h.restoreUser, nil, userView{}},

		// roles and permissions
		{http.MethodPost, v1 + "/roles", "Create a role", "ROLES", h.createRole, roleRequest{}, roleView{}},
		{http.MethodPut, v1 + "/roles", "Update a role", "ROLES", h.updateRole, roleRequest{}, roleView{}},
		{http.MethodGet, v1 + "/roles", "Fetch roles", "ROLES", h.listRoles, nil, rolePage{}},
		{http.MethodGet, v1 + "/roles/{id}", "Fetch role by id", "ROLES", h.getRole, nil, roleView{}},
		{http.MethodDelete, v1 + "/roles/{id}", "Delete a role", "ROLES", h.deleteRole, nil, nil},
		{http.MethodPost, v1 + "/permissions", "Create a permission", "PERMISSIONS", h.createPermission, permissionRequest{}, permissionView{}},
		{http.MethodPut, v1 + "/permissions", "Update a permission", "PERMISSIONS", h.updatePermission, permissionRequest{}, permissionView{}},
		{http.MethodGet, v1 + "/permissions", "Fetch permissions", "PERMISSIONS", h.listPermissions, nil, permissionPage{}},
		{http.MethodGet, v1 + "/permissions/{id}", "Fetch permission by id", "PERMISSIONS", h.getPermission, nil, permissionView{}},
		{http.MethodDelete, v1 + "/permissions/{id}", "Delete a permission", "PERMISSIONS", h.deletePermission, nil, nil},

		// resumes
		{http.MethodPost, v1 + "/resumes", "Create a resume", "RESUMES", h.createResume, resumeRequest{}, resumeView{}},
		{http.MethodPut, v1 + "/resumes", "Update a resume status", "RESUMES", h.updateResume, resumeStatusRequest{}, resumeUpdate{}},
		{http.MethodGet, v1 + "/resumes", "Fetch resumes", "RESUMES", h.listResumes, nil, resumePage{}},
		{http.MethodPost, v1 + "/resumes/by-user", "Fetch resumes of the current user", "RESUMES", h.listMyResumes, nil, resumePage{}},
		{http.MethodGet, v1 + "/resumes/{id}", "Fetch resume by id", "RESUMES", h.getResume, nil, resumeView{}},
		{http.MethodDelete, v1 + "/resumes/{id}", "Delete a resume", "RESUMES", h.deleteResume, nil, nil},
		{http.MethodPut, v1 + "/resumes/{id}/restore", "Restore a resume", "RESUMES", h.restoreResume, nil, resumeView{}},
		{http.MethodPut, v1 + "/resumes/{id}/confirm", "Confirm an interview", "RESUMES", h.confirmInterview, nil, resumeUpdate{}},
		{http.MethodPut, v1 + "/resumes/{id}/decline", "Decline an interview", "RESUMES", h.declineInterview, nil, resumeUpdate{}},

		// subscribers
		{http.MethodPost, v1 + "/subscribers", "Create a subscriber", "SUBSCRIBERS", h.createSubscriber, subscriberRequest{}, subscriberView{}},
		{http.MethodPut, v1 + "/subscribers", "Update a subscriber", "SUBSCRIBERS", h.updateSubscriber, subscriberRequest{}, subscriberView{}},
		{http.MethodPost, v1 + "/subscribers/skills", "Fetch the subscription of the current user", "SUBSCRIBERS", h.mySubscription, nil, subscriberView{}},
		{http.MethodDelete, v1 + "/subscribers/{id}", "Delete a subscriber", "SUBSCRIBERS", h.deleteSubscriber, nil, nil},
		{http.MethodGet, v1 + "/email", "Send the subscriber digest", "SUBSCRIBERS", h.sendDigest, nil, digestResult{}},

		// notifications
		{http.MethodGet, v1 + "/notifications/unread", "Fetch unread notifications", "NOTIFICATIONS", h.unreadNotifications, nil, []notificationView{}},
		{http.MethodPost, v1 + "/notifications/mark-as-read", "Mark notifications as read", "NOTIFICATIONS", h.markNotificationsRead, nil, markedRead{}},

		// files
		{http.MethodPost, v1 + "/files", "Upload a file", "FILES", h.uploadFile, nil, uploadResult{}},

		// dashboard
		{http.MethodGet, v1 + "/stats", "Statistical data", "DASHBOARD", h.stats, nil, dashboardView{}},
		{http.MethodGet, v1 + "/stats/time-series", "Time series statistics", "DASHBOARD", h.timeSeries, nil, timeSeriesView{}},
		{http.MethodGet, v1 + "/stats/company/{companyId}", "Company dashboard statistics", "DASHBOARD", h.companyStats, nil, companyStatsView{}},

		// chatbot
		{http.MethodPost, "/api/chatbot/ask", "Ask the career chatbot", "CHATBOT", h.ask, chatRequest{}, chatAnswer{}},
		{http.MethodGet, "/api/chatbot/history", "Fetch chatbot history", "CHATBOT", h.chatHistory, nil, []chatHistoryView{}},
	}
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "jobhunter api", map[string]string{"docs": "/swagger-ui", "openapi": "/v3/api-docs"})
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	writeErr(w, r, h.log, notFoundError(r))
}

func (h *handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
		fmt.Sprintf("method %s is not supported for %s", r.Method, r.URL.Path), nil)
}

// openAPIPath converts a mux template to the OpenAPI form by dropping any
// variable pattern.
func openAPIPath(tpl string) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tpl, '{')
		if open < 0 {
			b.WriteString(tpl)
			return b.String()
		}
		end := strings.IndexByte(tpl[open:], '}')
		if end < 0 {
			b.WriteString(tpl)
			return b.String()
		}
		name := tpl[open+1 : open+end]
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		b.WriteString(tpl[:open])
		b.WriteString("{" + name + "}")
		tpl = tpl[open+end+1:]
	}
}
