package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return New(db), mock
}

func TestNewUsesDialectorName(t *testing.T) {
	s, _ := newMockStore(t)
	assert.Equal(t, "mysql", s.dialect)
	assert.Equal(t, "DATE_FORMAT(created_at, '%Y-%m')", s.monthExpr("created_at"))

	s.dialect = "postgres"
	assert.Equal(t, "to_char(created_at, 'YYYY-MM')", s.monthExpr("created_at"))
}

func TestGetSkillNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `skills` WHERE `skills`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.GetSkill(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCompany(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT \\* FROM `companies`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "active", "created_at", "updated_at", "created_by", "updated_by"}).
			AddRow(3, "Acme", "Hanoi", true, now, now, "admin@gmail.com", ""))

	c, err := s.GetCompany(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, "Acme", c.Name)
	assert.True(t, c.Active)
	assert.Equal(t, "admin@gmail.com", c.CreatedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCompanyMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `companies`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, err := s.UpdateCompany(context.Background(), companyFixture(9))
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSkillDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `skills`").
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	_, err := s.CreateSkill(context.Background(), skillFixture("Go"))
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestCountJobsByStatusFillsMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) AS count FROM `jobs` GROUP BY `status`").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("APPROVED", 4).
			AddRow("PENDING", 2))

	counts, err := s.CountJobsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []job.StatusCount{
		{Status: job.StatusPending, Count: 2},
		{Status: job.StatusApproved, Count: 4},
		{Status: job.StatusRejected, Count: 0},
	}, counts)
}

func TestDeactivateExpiredJobs(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `jobs` SET .*`active`=.* WHERE active = \\? AND end_date IS NOT NULL AND end_date < \\?").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := s.DeactivateExpiredJobs(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateJobsEmptyIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	n, err := s.DeactivateJobs(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkNotificationsRead(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `notifications` SET `is_read`=\\? WHERE user_id = \\? AND is_read = \\?").
		WithArgs(true, int64(5), false).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := s.MarkNotificationsRead(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCompaniesRejectsUnknownFilterField(t *testing.T) {
	s, mock := newMockStore(t)
	f, err := query.Parse("salary > 10")
	require.NoError(t, err)

	_, err = s.ListCompanies(context.Background(), storage.ListOptions{Filter: f, Page: query.DefaultPage()})
	assert.ErrorIs(t, err, query.ErrInvalid)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCompaniesPaginates(t *testing.T) {
	s, mock := newMockStore(t)
	f, err := query.Parse("name ~ 'ac'")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `companies` WHERE LOWER\\(companies.name\\) LIKE \\?").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))
	mock.ExpectQuery("SELECT \\* FROM `companies` WHERE LOWER\\(companies.name\\) LIKE \\? ORDER BY companies.id ASC LIMIT").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Acme").AddRow(2, "Acorn"))

	res, err := s.ListCompanies(context.Background(), storage.ListOptions{Filter: f, Page: query.Page{Number: 1, Size: 10}})
	require.NoError(t, err)
	assert.Equal(t, int64(11), res.Meta.Total)
	assert.Equal(t, 2, res.Meta.Pages)
	require.Len(t, res.Result, 2)
	assert.Equal(t, "Acorn", res.Result[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListResumesScopedWithoutIDsReturnsNothing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `resumes` LEFT JOIN jobs rj ON rj.id = resumes.job_id WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT .* FROM `resumes` LEFT JOIN jobs rj .* WHERE 1 = 0").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	res, err := s.ListResumes(context.Background(), storage.ResumeCriteria{Scoped: true}, storage.ListOptions{Page: query.DefaultPage()})
	require.NoError(t, err)
	assert.Zero(t, res.Meta.Total)
	assert.Empty(t, res.Result)
}

func TestDashboard(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM jobs").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(12))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM companies").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(40))
	mock.ExpectQuery("SELECT c.id AS company_id").
		WillReturnRows(sqlmock.NewRows([]string{"company_id", "company_name", "active_jobs"}).
			AddRow(2, "Beta", 5).
			AddRow(1, "Acme", 1))

	d, err := s.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), d.TotalJobs)
	assert.Equal(t, int64(3), d.TotalCompanies)
	assert.Equal(t, int64(40), d.TotalUsers)
	require.Len(t, d.ActiveJobsByCompany, 2)
	assert.Equal(t, "Beta", d.ActiveJobsByCompany[0].CompanyName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompanyStatsUnknownCompany(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM companies WHERE id = \\?").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))

	_, err := s.CompanyStats(context.Background(), 99)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
