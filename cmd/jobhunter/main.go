// Command jobhunter runs the recruitment platform API server.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-redis/redis/v8"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"

	app "github.com/R3E-Network/jobhunter/internal/app"
	"github.com/R3E-Network/jobhunter/internal/app/httpapi"
	"github.com/R3E-Network/jobhunter/internal/app/storage/sqlstore"
	"github.com/R3E-Network/jobhunter/internal/config"
	"github.com/R3E-Network/jobhunter/internal/platform/cache"
	"github.com/R3E-Network/jobhunter/internal/platform/database"
	"github.com/R3E-Network/jobhunter/internal/platform/mail"
	"github.com/R3E-Network/jobhunter/internal/platform/media"
	"github.com/R3E-Network/jobhunter/internal/platform/migrations"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

func main() {
	fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			openDatabase,
			newStores,
			newCache,
			newMailer,
			newMedia,
			newApplication,
			newServer,
		),
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return &fxLogger{log: log.Named("fx")}
		}),
		fx.Invoke(run),
	).Run()
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.LoggingConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format}).Named("jobhunter")
}

// openDatabase returns nil for the memory driver.
func openDatabase(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	if cfg.Database.Driver == database.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return nil, nil
	}
	db, err := database.Open(cfg.Database, log.Named("database"))
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		sqlDB, err := database.SQL(db)
		if err != nil {
			return nil, err
		}
		if err := migrations.Up(sqlDB, cfg.Database.Driver, log.Named("migrations")); err != nil {
			return nil, err
		}
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error { return database.Close(db) }})
	return db, nil
}

func newStores(db *gorm.DB) app.Stores {
	if db == nil {
		return app.Stores{}
	}
	s := sqlstore.New(db)
	return app.Stores{
		Users:         s,
		Companies:     s,
		Skills:        s,
		Jobs:          s,
		Resumes:       s,
		Subscribers:   s,
		Roles:         s,
		Permissions:   s,
		Notifications: s,
		Chats:         s,
		Stats:         s,
	}
}

// newCache returns the Redis client as well so realtime fan-out can share
// it. The client is nil when Redis is not configured.
func newCache(lc fx.Lifecycle, cfg *config.Config, log *logger.Logger) (cache.Cache, *redis.Client) {
	if !cfg.Redis.Enabled() {
		log.Info("redis not configured, using in-process cache")
		return cache.NewMemory(), nil
	}
	r := cache.NewRedis(cfg.Redis)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error { return r.Ping(ctx) },
		OnStop:  func(context.Context) error { return r.Close() },
	})
	return r, r.Client()
}

func newMailer(cfg *config.Config, log *logger.Logger) (*mail.Mailer, error) {
	renderer, err := mail.NewRenderer()
	if err != nil {
		return nil, err
	}
	if !cfg.Mail.Enabled() {
		return mail.NewMailer(mail.NewLogSender(log.Named("mail")), renderer, log.Named("mail")), nil
	}
	sender, err := mail.NewSMTPSender(cfg.Mail)
	if err != nil {
		return nil, err
	}
	return mail.NewMailer(sender, renderer, log.Named("mail")), nil
}

func newMedia(cfg *config.Config) (media.Store, error) {
	return media.New(context.Background(), cfg.Media)
}

type appParams struct {
	fx.In

	Config *config.Config
	Log    *logger.Logger
	DB     *gorm.DB
	Stores app.Stores
	Cache  cache.Cache
	Redis  *redis.Client
	Mailer *mail.Mailer
	Media  media.Store
}

func newApplication(p appParams) (*app.Application, error) {
	deps := app.Deps{
		Config: p.Config,
		Cache:  p.Cache,
		Mailer: p.Mailer,
		Media:  p.Media,
		Redis:  p.Redis,
	}
	if p.DB != nil {
		db := p.DB
		deps.Ping = func(ctx context.Context) error { return database.Ping(ctx, db) }
	}
	return app.New(p.Stores, deps, p.Log.Named("app"))
}

func newServer(cfg *config.Config, application *app.Application, log *logger.Logger) *http.Server {
	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      httpapi.NewHandler(application, log.Named("http")),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

func run(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg *config.Config, application *app.Application, srv *http.Server, log *logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.Bootstrap.Seed {
				report, err := application.Seed(ctx, httpapi.Catalogue())
				if err != nil {
					return err
				}
				log.WithFields(map[string]interface{}{
					"permissions": report.Permissions,
					"roles":       report.Roles,
					"admin":       report.Admin,
				}).Info("seed complete")
			}
			if err := application.Start(ctx); err != nil {
				return err
			}

			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				log.WithField("addr", srv.Addr).Info("http server listening")
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("http server failed")
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cfg.Server.ShutdownTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
				defer cancel()
			}
			err := srv.Shutdown(ctx)
			if stopErr := application.Stop(ctx); stopErr != nil && err == nil {
				err = stopErr
			}
			return err
		},
	})
}

// fxLogger routes container events through the application logger.
type fxLogger struct {
	log *logger.Logger
}

func (l *fxLogger) LogEvent(event fxevent.Event) {
	switch e := event.(type) {
	case *fxevent.OnStartExecuted:
		if e.Err != nil {
			l.log.WithError(e.Err).WithField("hook", e.FunctionName).Error("start hook failed")
		}
	case *fxevent.OnStopExecuted:
		if e.Err != nil {
			l.log.WithError(e.Err).WithField("hook", e.FunctionName).Error("stop hook failed")
		}
	case *fxevent.Provided:
		if e.Err != nil {
			l.log.WithError(e.Err).Error("provide failed")
		}
	case *fxevent.Invoked:
		if e.Err != nil {
			l.log.WithError(e.Err).WithField("function", e.FunctionName).Error("invoke failed")
		}
	case *fxevent.RollingBack:
		l.log.WithError(e.StartErr).Error("start failed, rolling back")
	case *fxevent.Started:
		if e.Err != nil {
			l.log.WithError(e.Err).Error("start failed")
			return
		}
		l.log.Info("application started")
	case *fxevent.Stopping:
		l.log.WithField("signal", e.Signal.String()).Info("shutting down")
	}
}
