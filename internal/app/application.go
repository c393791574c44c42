package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"golang.org/x/oauth2/google"

	"github.com/R3E-Network/jobhunter/internal/app/domain/role"
	"github.com/R3E-Network/jobhunter/internal/app/realtime"
	"github.com/R3E-Network/jobhunter/internal/app/scheduler"
	"github.com/R3E-Network/jobhunter/internal/app/services/auth"
	"github.com/R3E-Network/jobhunter/internal/app/services/chatbot"
	"github.com/R3E-Network/jobhunter/internal/app/services/companies"
	"github.com/R3E-Network/jobhunter/internal/app/services/dashboard"
	"github.com/R3E-Network/jobhunter/internal/app/services/files"
	"github.com/R3E-Network/jobhunter/internal/app/services/jobs"
	"github.com/R3E-Network/jobhunter/internal/app/services/notifications"
	"github.com/R3E-Network/jobhunter/internal/app/services/resumes"
	"github.com/R3E-Network/jobhunter/internal/app/services/roles"
	"github.com/R3E-Network/jobhunter/internal/app/services/skills"
	"github.com/R3E-Network/jobhunter/internal/app/services/subscribers"
	"github.com/R3E-Network/jobhunter/internal/app/services/users"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/app/storage/memory"
	"github.com/R3E-Network/jobhunter/internal/app/system"
	"github.com/R3E-Network/jobhunter/internal/config"
	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/middleware"
	"github.com/R3E-Network/jobhunter/internal/platform/cache"
	"github.com/R3E-Network/jobhunter/internal/platform/mail"
	"github.com/R3E-Network/jobhunter/internal/platform/media"
	"github.com/R3E-Network/jobhunter/internal/security"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users         storage.UserStore
	Companies     storage.CompanyStore
	Skills        storage.SkillStore
	Jobs          storage.JobStore
	Resumes       storage.ResumeStore
	Subscribers   storage.SubscriberStore
	Roles         storage.RoleStore
	Permissions   storage.PermissionStore
	Notifications storage.NotificationStore
	Chats         storage.ChatStore
	Stats         storage.StatsStore
}

// Deps are the infrastructure clients. Nil values select local
// implementations: memory cache, logging mail sender, memory media store.
type Deps struct {
	Config *config.Config
	Cache  cache.Cache
	Mailer *mail.Mailer
	Media  media.Store
	Tokens *security.TokenIssuer
	// Redis enables cross-instance notification fan-out.
	Redis *redis.Client
	// Ping checks the database for the health endpoint.
	Ping func(ctx context.Context) error
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Config *config.Config
	Cache  cache.Cache
	Ping   func(ctx context.Context) error

	Auth          *auth.Service
	Users         *users.Service
	Companies     *companies.Service
	Skills        *skills.Service
	Roles         *roles.Service
	Jobs          *jobs.Service
	Resumes       *resumes.Service
	Subscribers   *subscribers.Service
	Notifications *notifications.Service
	Chatbot       *chatbot.Service
	Dashboard     *dashboard.Service
	Files         *files.Service

	Hub         *realtime.Hub
	Scheduler   *scheduler.Scheduler
	RateLimiter *middleware.RateLimiter
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, deps Deps, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Companies == nil {
		stores.Companies = mem
	}
	if stores.Skills == nil {
		stores.Skills = mem
	}
	if stores.Jobs == nil {
		stores.Jobs = mem
	}
	if stores.Resumes == nil {
		stores.Resumes = mem
	}
	if stores.Subscribers == nil {
		stores.Subscribers = mem
	}
	if stores.Roles == nil {
		stores.Roles = mem
	}
	if stores.Permissions == nil {
		stores.Permissions = mem
	}
	if stores.Notifications == nil {
		stores.Notifications = mem
	}
	if stores.Chats == nil {
		stores.Chats = mem
	}
	if stores.Stats == nil {
		stores.Stats = mem
	}

	if deps.Cache == nil {
		deps.Cache = cache.NewMemory()
	}
	if deps.Mailer == nil {
		renderer, err := mail.NewRenderer()
		if err != nil {
			return nil, fmt.Errorf("mail templates: %w", err)
		}
		deps.Mailer = mail.NewMailer(mail.NewLogSender(log.Named("mail")), renderer, log.Named("mail"))
	}
	if deps.Media == nil {
		deps.Media = media.NewMemory("memory://jobhunter")
	}
	if deps.Tokens == nil {
		secret, err := cfg.JWT.Secret()
		if err != nil {
			return nil, fmt.Errorf("jwt secret: %w", err)
		}
		tokens, err := security.NewTokenIssuer(secret, cfg.JWT.AccessTokenValidity, cfg.JWT.RefreshTokenValidity)
		if err != nil {
			return nil, fmt.Errorf("token issuer: %w", err)
		}
		deps.Tokens = tokens
	}
	if deps.Ping == nil {
		deps.Ping = func(context.Context) error { return nil }
	}

	manager := system.NewManager()

	hub := realtime.NewHub(deps.Tokens, cfg.Server.AllowedOrigins, log.Named("realtime"))
	var broker realtime.Broker = realtime.NewLocalBroker(hub)
	lifecycle := []system.Service{hub}
	if deps.Redis != nil {
		rb := realtime.NewRedisBroker(deps.Redis, hub, log.Named("realtime"))
		broker = rb
		lifecycle = append(lifecycle, rb)
	}

	userService := users.New(stores.Users, stores.Companies, stores.Roles, stores.Resumes, log.Named("users"))
	companyService := companies.New(stores.Companies, stores.Jobs, stores.Users, log.Named("companies"))
	roleService := roles.New(stores.Roles, stores.Permissions, stores.Users, log.Named("roles"))
	jobService := jobs.New(stores.Jobs, stores.Skills, stores.Users, stores.Resumes, log.Named("jobs"))
	notificationService := notifications.New(stores.Notifications, broker, log.Named("notifications"))
	resumeService := resumes.New(stores.Resumes, stores.Jobs, stores.Users, deps.Mailer, notificationService, cfg.Server.FrontendURL, log.Named("resumes"))
	subscriberService := subscribers.New(stores.Subscribers, stores.Skills, stores.Jobs, deps.Cache, deps.Mailer, log.Named("subscribers"))

	googleCfg := auth.GoogleConfig{
		ClientID:     cfg.OAuth2.GoogleClientID,
		ClientSecret: cfg.OAuth2.GoogleClientSecret,
		RedirectURL:  cfg.OAuth2.GoogleRedirectURL,
		Endpoint:     google.Endpoint,
	}
	authService := auth.New(userService, companyService, stores.Roles, deps.Tokens, googleCfg, log.Named("auth"))

	llm := httputil.NewClient(httputil.ClientConfig{Timeout: cfg.OpenRouter.Timeout, Attempts: 2})
	chatService := chatbot.New(cfg.OpenRouter, llm, stores.Jobs, stores.Chats, log.Named("chatbot"))

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log.Named("ratelimit"))
	lifecycle = append(lifecycle, limiter)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var err error
		sched, err = scheduler.FromConfig(cfg.Scheduler, jobService, subscriberService, log.Named("scheduler"))
		if err != nil {
			return nil, err
		}
		lifecycle = append(lifecycle, sched)
	}

	for _, svc := range lifecycle {
		if err := manager.Register(svc); err != nil {
			return nil, fmt.Errorf("register %s: %w", svc.Name(), err)
		}
	}

	return &Application{
		manager:       manager,
		log:           log,
		Config:        cfg,
		Cache:         deps.Cache,
		Ping:          deps.Ping,
		Auth:          authService,
		Users:         userService,
		Companies:     companyService,
		Skills:        skills.New(stores.Skills, log.Named("skills")),
		Roles:         roleService,
		Jobs:          jobService,
		Resumes:       resumeService,
		Subscribers:   subscriberService,
		Notifications: notificationService,
		Chatbot:       chatService,
		Dashboard:     dashboard.New(stores.Stats, deps.Cache, log.Named("dashboard")),
		Files:         files.New(deps.Media, cfg.Media.MaxUploadBytes, log.Named("files")),
		Hub:           hub,
		Scheduler:     sched,
		RateLimiter:   limiter,
	}, nil
}

// Seed creates the permission catalogue, built-in roles and, on an empty
// database, the bootstrap administrator.
func (a *Application) Seed(ctx context.Context, catalogue []role.Permission) (roles.SeedReport, error) {
	return a.Roles.Seed(ctx, catalogue, roles.Admin{
		Email:    a.Config.Bootstrap.AdminEmail,
		Password: a.Config.Bootstrap.AdminPassword,
	})
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
