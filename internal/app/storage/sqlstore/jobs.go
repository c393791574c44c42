package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

var jobColumns = map[string]string{
	"id":           "jobs.id",
	"name":         "jobs.name",
	"location":     "jobs.location",
	"salary":       "jobs.salary",
	"quantity":     "jobs.quantity",
	"level":        "jobs.level",
	"status":       "jobs.status",
	"active":       "jobs.active",
	"description":  "jobs.description",
	"startdate":    "jobs.start_date",
	"enddate":      "jobs.end_date",
	"company.id":   "jobs.company_id",
	"companyid":    "jobs.company_id",
	"company.name": "jc.name",
	"createdat":    "jobs.created_at",
	"updatedat":    "jobs.updated_at",
}

var resumeColumns = map[string]string{
	"id":        "resumes.id",
	"email":     "resumes.email",
	"url":       "resumes.url",
	"status":    "resumes.status",
	"active":    "resumes.active",
	"user.id":   "resumes.user_id",
	"userid":    "resumes.user_id",
	"job.id":    "resumes.job_id",
	"jobid":     "resumes.job_id",
	"job.name":  "rj.name",
	"createdat": "resumes.created_at",
	"updatedat": "resumes.updated_at",
}

// Jobs ------------------------------------------------------------------------

func (s *Store) loadJobs(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Company").Preload("Skills", func(db *gorm.DB) *gorm.DB { return db.Order("skills.id") })
}

func (s *Store) CreateJob(ctx context.Context, j job.Job) (job.Job, error) {
	rec := toJobRecord(j)
	skills := rec.Skills
	rec.Skills = nil
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Company", "Skills").Create(&rec).Error; err != nil {
			return mapErr(err, "job", j.Name)
		}
		if len(skills) == 0 {
			return nil
		}
		return tx.Model(&rec).Association("Skills").Replace(skills)
	})
	if err != nil {
		return job.Job{}, err
	}
	return s.GetJob(ctx, rec.ID)
}

func (s *Store) UpdateJob(ctx context.Context, j job.Job) (job.Job, error) {
	rec := toJobRecord(j)
	skills := rec.Skills
	rec.Skills = nil
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.exists(tx, &jobRecord{}, "job", j.ID); err != nil {
			return err
		}
		if err := tx.Model(&rec).Select("*").Omit("Company", "Skills", "CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
			return mapErr(err, "job", j.ID)
		}
		return tx.Model(&rec).Association("Skills").Replace(skills)
	})
	if err != nil {
		return job.Job{}, err
	}
	return s.GetJob(ctx, j.ID)
}

func (s *Store) GetJob(ctx context.Context, id int64) (job.Job, error) {
	var rec jobRecord
	if err := s.loadJobs(s.conn(ctx)).First(&rec, id).Error; err != nil {
		return job.Job{}, mapErr(err, "job", id)
	}
	return rec.domain(), nil
}

func (s *Store) ListJobs(ctx context.Context, criteria storage.JobCriteria, opts storage.ListOptions) (query.Result[job.Job], error) {
	base := s.conn(ctx).Model(&jobRecord{}).Joins("LEFT JOIN companies jc ON jc.id = jobs.company_id")
	if criteria.ActiveOnly {
		base = base.Where("jobs.active = ?", true)
	}
	if criteria.CompanyID != nil {
		base = base.Where("jobs.company_id = ?", *criteria.CompanyID)
	}
	recs, total, err := paginate[jobRecord](base, jobColumns, opts, "jobs.id ASC", "Company", "Skills")
	if err != nil {
		return query.Result[job.Job]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, jobRecord.domain)), nil
}

func (s *Store) findJobs(ctx context.Context, where string, args ...interface{}) ([]job.Job, error) {
	var recs []jobRecord
	if err := s.loadJobs(s.conn(ctx)).Where(where, args...).Order("jobs.id").Find(&recs).Error; err != nil {
		return nil, err
	}
	return mapRecords(recs, jobRecord.domain), nil
}

func (s *Store) ListJobsByCompany(ctx context.Context, companyID int64) ([]job.Job, error) {
	return s.findJobs(ctx, "jobs.company_id = ?", companyID)
}

func (s *Store) ListActiveJobs(ctx context.Context) ([]job.Job, error) {
	return s.findJobs(ctx, "jobs.active = ?", true)
}

func (s *Store) ListActiveJobsBySkills(ctx context.Context, skillIDs []int64) ([]job.Job, error) {
	if len(skillIDs) == 0 {
		return nil, nil
	}
	return s.findJobs(ctx,
		"jobs.active = ? AND jobs.id IN (SELECT job_id FROM job_skill WHERE skill_id IN ?)", true, skillIDs)
}

func (s *Store) CountJobsByStatus(ctx context.Context) ([]job.StatusCount, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := s.conn(ctx).Model(&jobRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[job.Status]int64, len(rows))
	for _, r := range rows {
		counts[job.Status(r.Status)] = r.Count
	}
	out := make([]job.StatusCount, 0, 3)
	for _, st := range []job.Status{job.StatusPending, job.StatusApproved, job.StatusRejected} {
		out = append(out, job.StatusCount{Status: st, Count: counts[st]})
	}
	return out, nil
}

func (s *Store) SetJobsActiveByCompany(ctx context.Context, companyID int64, active bool) (int64, error) {
	res := s.conn(ctx).Model(&jobRecord{}).
		Where("company_id = ? AND active <> ?", companyID, active).
		Updates(map[string]interface{}{"active": active})
	return res.RowsAffected, res.Error
}

func (s *Store) DeactivateExpiredJobs(ctx context.Context, now time.Time) (int64, error) {
	res := s.conn(ctx).Model(&jobRecord{}).
		Where("active = ? AND end_date IS NOT NULL AND end_date < ?", true, now).
		Updates(map[string]interface{}{"active": false})
	return res.RowsAffected, res.Error
}

func (s *Store) DeactivateJobs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := s.conn(ctx).Model(&jobRecord{}).
		Where("id IN ? AND active = ?", ids, true).
		Updates(map[string]interface{}{"active": false})
	return res.RowsAffected, res.Error
}

// Resumes ---------------------------------------------------------------------

func (s *Store) loadResumes(tx *gorm.DB) *gorm.DB {
	return tx.Preload("User").Preload("Job").Preload("Job.Company")
}

func (s *Store) CreateResume(ctx context.Context, r resume.Resume) (resume.Resume, error) {
	rec := toResumeRecord(r)
	if err := s.conn(ctx).Omit("User", "Job").Create(&rec).Error; err != nil {
		return resume.Resume{}, mapErr(err, "resume", r.Email)
	}
	return s.GetResume(ctx, rec.ID)
}

func (s *Store) UpdateResume(ctx context.Context, r resume.Resume) (resume.Resume, error) {
	rec := toResumeRecord(r)
	tx := s.conn(ctx)
	if err := s.exists(tx, &resumeRecord{}, "resume", r.ID); err != nil {
		return resume.Resume{}, err
	}
	if err := tx.Model(&rec).Select("*").Omit("User", "Job", "CreatedAt", "CreatedBy").Updates(&rec).Error; err != nil {
		return resume.Resume{}, mapErr(err, "resume", r.ID)
	}
	return s.GetResume(ctx, r.ID)
}

func (s *Store) GetResume(ctx context.Context, id int64) (resume.Resume, error) {
	var rec resumeRecord
	if err := s.loadResumes(s.conn(ctx)).First(&rec, id).Error; err != nil {
		return resume.Resume{}, mapErr(err, "resume", id)
	}
	return rec.domain(), nil
}

func (s *Store) FindResumeByUserAndJob(ctx context.Context, userID, jobID int64) (resume.Resume, error) {
	var rec resumeRecord
	err := s.loadResumes(s.conn(ctx)).Where("user_id = ? AND job_id = ?", userID, jobID).First(&rec).Error
	if err != nil {
		return resume.Resume{}, mapErr(err, "resume", jobID)
	}
	return rec.domain(), nil
}

func (s *Store) ListResumes(ctx context.Context, criteria storage.ResumeCriteria, opts storage.ListOptions) (query.Result[resume.Resume], error) {
	base := s.conn(ctx).Model(&resumeRecord{}).Joins("LEFT JOIN jobs rj ON rj.id = resumes.job_id")
	if criteria.ActiveOnly {
		base = base.Where("resumes.active = ?", true)
	}
	if criteria.Email != "" {
		base = base.Where("resumes.email = ?", criteria.Email)
	}
	if criteria.Scoped {
		switch {
		case len(criteria.JobIDs) > 0 && len(criteria.UserIDs) > 0:
			base = base.Where("(resumes.job_id IN ? OR resumes.user_id IN ?)", criteria.JobIDs, criteria.UserIDs)
		case len(criteria.JobIDs) > 0:
			base = base.Where("resumes.job_id IN ?", criteria.JobIDs)
		case len(criteria.UserIDs) > 0:
			base = base.Where("resumes.user_id IN ?", criteria.UserIDs)
		default:
			base = base.Where("1 = 0")
		}
	}
	recs, total, err := paginate[resumeRecord](base, resumeColumns, opts, "resumes.id ASC", "User", "Job", "Job.Company")
	if err != nil {
		return query.Result[resume.Resume]{}, err
	}
	return query.NewResult(pageOf(opts), total, mapRecords(recs, resumeRecord.domain)), nil
}

func (s *Store) CountResumesByJobAndStatus(ctx context.Context, jobID int64, status resume.Status) (int64, error) {
	var n int64
	err := s.conn(ctx).Model(&resumeRecord{}).
		Where("job_id = ? AND status = ?", jobID, string(status)).
		Count(&n).Error
	return n, err
}

func (s *Store) CountResumesByStatus(ctx context.Context, status resume.Status) (map[int64]int64, error) {
	var rows []struct {
		JobID int64
		Count int64
	}
	err := s.conn(ctx).Model(&resumeRecord{}).
		Select("job_id, COUNT(*) AS count").
		Where("status = ?", string(status)).
		Group("job_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int64, len(rows))
	for _, r := range rows {
		out[r.JobID] = r.Count
	}
	return out, nil
}

func (s *Store) SetResumesActiveByUser(ctx context.Context, userID int64, active bool) (int64, error) {
	return s.setResumesActive(ctx, "user_id = ?", userID, active)
}

func (s *Store) SetResumesActiveByJob(ctx context.Context, jobID int64, active bool) (int64, error) {
	return s.setResumesActive(ctx, "job_id = ?", jobID, active)
}

func (s *Store) setResumesActive(ctx context.Context, where string, id int64, active bool) (int64, error) {
	res := s.conn(ctx).Model(&resumeRecord{}).
		Where(where, id).
		Where("active <> ?", active).
		Updates(map[string]interface{}{"active": active})
	return res.RowsAffected, res.Error
}
