package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/stats"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/platform/cache"
	"github.com/R3E-Network/jobhunter/pkg/logger"
)

// TTL bounds how stale a dashboard may be.
const TTL = 5 * time.Minute

const dateLayout = "2006-01-02"

type Service struct {
	stats storage.StatsStore
	cache cache.Cache
	log   *logger.Logger
}

func New(st storage.StatsStore, c cache.Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("dashboard")
	}
	return &Service{stats: st, cache: c, log: log}
}

// Stats returns platform totals and active jobs per company.
func (s *Service) Stats(ctx context.Context) (stats.Dashboard, error) {
	return cache.Remember(ctx, s.cache, "dashboard:stats", TTL, s.stats.Dashboard)
}

// TimeSeries returns monthly new jobs and users between from and to, both
// optional and inclusive.
func (s *Service) TimeSeries(ctx context.Context, from, to *time.Time) (stats.TimeSeries, error) {
	if from != nil && to != nil && to.Before(*from) {
		return stats.TimeSeries{}, errors.BadRequest("end date must not be before start date")
	}
	key := fmt.Sprintf("dashboard:series:%s:%s", day(from), day(to))
	return cache.Remember(ctx, s.cache, key, TTL, func(ctx context.Context) (stats.TimeSeries, error) {
		return s.stats.TimeSeries(ctx, from, to)
	})
}

// CompanyStats returns the recruiter dashboard of one company.
func (s *Service) CompanyStats(ctx context.Context, companyID int64) (stats.Company, error) {
	key := fmt.Sprintf("dashboard:company:%d", companyID)
	return cache.Remember(ctx, s.cache, key, TTL, func(ctx context.Context) (stats.Company, error) {
		return s.stats.CompanyStats(ctx, companyID)
	})
}

// ParseDate parses an optional YYYY-MM-DD query value.
func ParseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, errors.BadRequest("invalid date %q, expected YYYY-MM-DD", v)
	}
	return &t, nil
}

func day(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(dateLayout)
}
