package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/jobhunter/internal/app/domain/stats"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

// Reporting queries are plain SQL run through sqlx on the pool GORM owns.

const activeJobsByCompanySQL = `
SELECT c.id AS company_id, c.name AS company_name, COUNT(j.id) AS active_jobs
FROM companies c
JOIN jobs j ON j.company_id = c.id AND j.active = ?
GROUP BY c.id, c.name
ORDER BY active_jobs DESC, c.id ASC`

const resumesByStatusSQL = `
SELECT r.status AS status, COUNT(*) AS count
FROM resumes r
JOIN jobs j ON j.id = r.job_id
WHERE j.company_id = ?
GROUP BY r.status`

const resumesByJobSQL = `
SELECT j.id AS job_id, j.name AS job_name, COUNT(r.id) AS count
FROM jobs j
JOIN resumes r ON r.job_id = j.id
WHERE j.company_id = ?
GROUP BY j.id, j.name
ORDER BY count DESC, j.id ASC`

func (s *Store) reportDB() (*sqlx.DB, error) {
	db, err := s.db.DB()
	if err != nil {
		return nil, err
	}
	return sqlx.NewDb(db, s.dialect), nil
}

// monthExpr formats a timestamp column as YYYY-MM.
func (s *Store) monthExpr(column string) string {
	if s.dialect == "postgres" {
		return fmt.Sprintf("to_char(%s, 'YYYY-MM')", column)
	}
	return fmt.Sprintf("DATE_FORMAT(%s, '%%Y-%%m')", column)
}

func (s *Store) count(ctx context.Context, x *sqlx.DB, q string, args ...interface{}) (int64, error) {
	var n int64
	err := x.GetContext(ctx, &n, x.Rebind(q), args...)
	return n, err
}

func (s *Store) Dashboard(ctx context.Context) (stats.Dashboard, error) {
	x, err := s.reportDB()
	if err != nil {
		return stats.Dashboard{}, err
	}
	var d stats.Dashboard
	if d.TotalJobs, err = s.count(ctx, x, "SELECT COUNT(*) FROM jobs"); err != nil {
		return stats.Dashboard{}, err
	}
	if d.TotalCompanies, err = s.count(ctx, x, "SELECT COUNT(*) FROM companies"); err != nil {
		return stats.Dashboard{}, err
	}
	if d.TotalUsers, err = s.count(ctx, x, "SELECT COUNT(*) FROM users"); err != nil {
		return stats.Dashboard{}, err
	}
	if err := x.SelectContext(ctx, &d.ActiveJobsByCompany, x.Rebind(activeJobsByCompanySQL), true); err != nil {
		return stats.Dashboard{}, err
	}
	return d, nil
}

func (s *Store) monthly(ctx context.Context, x *sqlx.DB, table string, from, to *time.Time) ([]stats.MonthCount, error) {
	month := s.monthExpr("created_at")
	var where []string
	var args []interface{}
	if from != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, "created_at <= ?")
		args = append(args, *to)
	}
	q := fmt.Sprintf("SELECT %s AS month, COUNT(*) AS count FROM %s", month, table)
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(" GROUP BY %s ORDER BY month", month)

	out := []stats.MonthCount{}
	if err := x.SelectContext(ctx, &out, x.Rebind(q), args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) TimeSeries(ctx context.Context, from, to *time.Time) (stats.TimeSeries, error) {
	x, err := s.reportDB()
	if err != nil {
		return stats.TimeSeries{}, err
	}
	jobs, err := s.monthly(ctx, x, "jobs", from, to)
	if err != nil {
		return stats.TimeSeries{}, err
	}
	users, err := s.monthly(ctx, x, "users", from, to)
	if err != nil {
		return stats.TimeSeries{}, err
	}
	return stats.TimeSeries{NewJobs: jobs, NewUsers: users}, nil
}

func (s *Store) CompanyStats(ctx context.Context, companyID int64) (stats.Company, error) {
	x, err := s.reportDB()
	if err != nil {
		return stats.Company{}, err
	}
	n, err := s.count(ctx, x, "SELECT COUNT(*) FROM companies WHERE id = ?", companyID)
	if err != nil {
		return stats.Company{}, err
	}
	if n == 0 {
		return stats.Company{}, fmt.Errorf("company %d: %w", companyID, storage.ErrNotFound)
	}

	out := stats.Company{CompanyID: companyID}
	if out.TotalJobs, err = s.count(ctx, x, "SELECT COUNT(*) FROM jobs WHERE company_id = ?", companyID); err != nil {
		return stats.Company{}, err
	}
	if out.ActiveJobs, err = s.count(ctx, x, "SELECT COUNT(*) FROM jobs WHERE company_id = ? AND active = ?", companyID, true); err != nil {
		return stats.Company{}, err
	}
	if out.TotalResumes, err = s.count(ctx, x,
		"SELECT COUNT(*) FROM resumes r JOIN jobs j ON j.id = r.job_id WHERE j.company_id = ?", companyID); err != nil {
		return stats.Company{}, err
	}
	if err := x.SelectContext(ctx, &out.ResumesByStatus, x.Rebind(resumesByStatusSQL), companyID); err != nil {
		return stats.Company{}, err
	}
	if err := x.SelectContext(ctx, &out.ResumesByJob, x.Rebind(resumesByJobSQL), companyID); err != nil {
		return stats.Company{}, err
	}
	return out, nil
}
