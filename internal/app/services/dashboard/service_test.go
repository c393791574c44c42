package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/stats"
	"github.com/R3E-Network/jobhunter/internal/platform/cache"
)

type countingStats struct {
	dashboards int
	companies  int
}

func (c *countingStats) Dashboard(context.Context) (stats.Dashboard, error) {
	c.dashboards++
	return stats.Dashboard{TotalJobs: int64(c.dashboards)}, nil
}

func (c *countingStats) TimeSeries(context.Context, *time.Time, *time.Time) (stats.TimeSeries, error) {
	return stats.TimeSeries{NewJobs: []stats.MonthCount{{Month: "2024-05", Count: 3}}}, nil
}

func (c *countingStats) CompanyStats(_ context.Context, id int64) (stats.Company, error) {
	c.companies++
	return stats.Company{CompanyID: id}, nil
}

func TestStatsAreCached(t *testing.T) {
	st := &countingStats{}
	svc := New(st, cache.NewMemory(), nil)
	ctx := context.Background()

	first, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	second, _ := svc.Stats(ctx)
	if st.dashboards != 1 || first.TotalJobs != second.TotalJobs {
		t.Fatalf("expected one store call, got %d", st.dashboards)
	}

	svc.CompanyStats(ctx, 1)
	svc.CompanyStats(ctx, 1)
	svc.CompanyStats(ctx, 2)
	if st.companies != 2 {
		t.Fatalf("company stats loaded %d times, want 2", st.companies)
	}
}

func TestTimeSeriesValidatesRange(t *testing.T) {
	svc := New(&countingStats{}, cache.NewMemory(), nil)
	from, _ := ParseDate("2024-06-01")
	to, _ := ParseDate("2024-01-01")
	if _, err := svc.TimeSeries(context.Background(), from, to); err == nil {
		t.Fatalf("expected reversed range to fail")
	}
	series, err := svc.TimeSeries(context.Background(), to, from)
	if err != nil || len(series.NewJobs) != 1 {
		t.Fatalf("series: %+v %v", series, err)
	}
	if _, err := ParseDate("06/01/2024"); err == nil {
		t.Fatalf("expected bad date to fail")
	}
	if d, err := ParseDate(""); d != nil || err != nil {
		t.Fatalf("empty date should be nil")
	}
}
