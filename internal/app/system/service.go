package system

import "context"

// Service is a background component owned by the Manager: the realtime hub
// and broker, the rate limiter sweep and the cron scheduler.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ Service = Func{}
