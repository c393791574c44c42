// Package scheduler runs the periodic maintenance tasks: closing expired
// and filled jobs and mailing the subscriber digest.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/jobhunter/internal/app/metrics"
	"github.com/R3E-Network/jobhunter/internal/app/system"
	"github.com/R3E-Network/jobhunter/internal/config"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

var _ system.Service = (*Scheduler)(nil)

// Task is a unit of scheduled work. The count is logged.
type Task func(ctx context.Context) (int64, error)

// JobCloser is the part of the jobs service the scheduler drives.
type JobCloser interface {
	DeactivateExpired(ctx context.Context) (int64, error)
	DeactivateFilled(ctx context.Context) (int64, error)
}

// DigestSender mails matching jobs to subscribers.
type DigestSender interface {
	SendDigest(ctx context.Context) (int, error)
}

type entry struct {
	name string
	spec string
	task Task
}

// Scheduler wraps a seconds-precision cron.
type Scheduler struct {
	log     *logger.Logger
	timeout time.Duration
	entries []entry

	mu      sync.Mutex
	cron    *cron.Cron
	baseCtx context.Context
	cancel  context.CancelFunc
}

func New(log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewDefault("scheduler")
	}
	return &Scheduler{log: log, timeout: 10 * time.Minute}
}

// FromConfig registers the standard tasks with the schedules in cfg.
func FromConfig(cfg config.SchedulerConfig, jobs JobCloser, digest DigestSender, log *logger.Logger) (*Scheduler, error) {
	s := New(log)
	if err := s.Add("deactivate-expired-jobs", cfg.ExpiredJobs, jobs.DeactivateExpired); err != nil {
		return nil, err
	}
	if err := s.Add("deactivate-filled-jobs", cfg.FilledJobs, jobs.DeactivateFilled); err != nil {
		return nil, err
	}
	send := func(ctx context.Context) (int64, error) {
		n, err := digest.SendDigest(ctx)
		return int64(n), err
	}
	if err := s.Add("subscriber-digest", cfg.SubscriberMail, send); err != nil {
		return nil, err
	}
	return s, nil
}

// Add validates spec (six fields, seconds first) and queues the task.
func (s *Scheduler) Add(name, spec string, task Task) error {
	if _, err := parser().Parse(spec); err != nil {
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("schedule %s: scheduler already started", name)
	}
	s.entries = append(s.entries, entry{name: name, spec: spec, task: task})
	return nil
}

func (s *Scheduler) Name() string { return "scheduler" }

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	c := cron.New(cron.WithParser(parser()), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s.baseCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for _, e := range s.entries {
		e := e
		if _, err := c.AddFunc(e.spec, func() { s.Run(s.baseCtx, e.name) }); err != nil {
			s.cancel()
			return fmt.Errorf("schedule %s: %w", e.name, err)
		}
	}
	c.Start()
	s.cron = c
	s.log.WithField("tasks", len(s.entries)).Info("scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	cancel()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.log.Info("scheduler stopped")
	return nil
}

// Run executes the named task once. It is what cron calls and is usable for
// manual triggers.
func (s *Scheduler) Run(ctx context.Context, name string) error {
	var task Task
	for _, e := range s.entries {
		if e.name == name {
			task = e.task
		}
	}
	if task == nil {
		return fmt.Errorf("unknown task %s", name)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	n, err := task(ctx)
	metrics.RecordSchedulerRun(name, time.Since(started), err == nil)
	entry := s.log.WithContext(ctx).WithFields(map[string]interface{}{"task": name, "affected": n})
	if err != nil {
		entry.WithError(err).Error("scheduled task failed")
		return err
	}
	entry.Info("scheduled task finished")
	return nil
}

func parser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}
