package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
)

func TestUserEmailUnique(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.CreateUser(ctx, user.User{Email: "a@example.com"}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	_, err := store.CreateUser(ctx, user.User{Email: "A@example.com"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := store.GetUser(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJobHydratesCompanyAndSkills(t *testing.T) {
	store := New()
	ctx := context.Background()
	comp, _ := store.CreateCompany(ctx, company.Company{Name: "Acme", Active: true})
	goSkill, _ := store.CreateSkill(ctx, skill.Skill{Name: "Go"})

	created, err := store.CreateJob(ctx, job.Job{Name: "Backend", CompanyID: &comp.ID, Skills: []skill.Skill{{ID: goSkill.ID}}, Active: true})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if created.Company == nil || created.Company.Name != "Acme" {
		t.Fatalf("company not hydrated: %+v", created.Company)
	}
	if len(created.Skills) != 1 || created.Skills[0].Name != "Go" {
		t.Fatalf("skills not hydrated: %+v", created.Skills)
	}

	comp.Name = "Acme Corp"
	if _, err := store.UpdateCompany(ctx, comp); err != nil {
		t.Fatalf("update company: %v", err)
	}
	got, _ := store.GetJob(ctx, created.ID)
	if got.Company.Name != "Acme Corp" {
		t.Fatalf("company rename not visible: %q", got.Company.Name)
	}

	if err := store.DeleteSkill(ctx, goSkill.ID); err != nil {
		t.Fatalf("delete skill: %v", err)
	}
	got, _ = store.GetJob(ctx, created.ID)
	if len(got.Skills) != 0 {
		t.Fatalf("deleted skill still attached: %+v", got.Skills)
	}
}

func TestListJobsFilterAndCriteria(t *testing.T) {
	store := New()
	ctx := context.Background()
	a, _ := store.CreateCompany(ctx, company.Company{Name: "A"})
	b, _ := store.CreateCompany(ctx, company.Company{Name: "B"})
	store.CreateJob(ctx, job.Job{Name: "Go developer", Salary: 3000, CompanyID: &a.ID, Active: true})
	store.CreateJob(ctx, job.Job{Name: "Java developer", Salary: 2000, CompanyID: &a.ID, Active: false})
	store.CreateJob(ctx, job.Job{Name: "Go lead", Salary: 5000, CompanyID: &b.ID, Active: true})

	res, err := store.ListJobs(ctx, storage.JobCriteria{ActiveOnly: true}, storage.ListOptions{
		Filter: query.MustParse("name~'go'"),
		Page:   query.Page{Number: 1, Size: 10, Sort: []query.SortField{{Field: "salary", Desc: true}}},
	})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if res.Meta.Total != 2 || res.Result[0].Name != "Go lead" {
		t.Fatalf("unexpected result %+v", res)
	}

	res, err = store.ListJobs(ctx, storage.JobCriteria{CompanyID: &a.ID}, storage.ListOptions{Page: query.DefaultPage()})
	if err != nil {
		t.Fatalf("list by company: %v", err)
	}
	if res.Meta.Total != 2 {
		t.Fatalf("company scoped total = %d, want 2", res.Meta.Total)
	}
}

func TestDeactivateExpiredJobs(t *testing.T) {
	store := New()
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	expired, _ := store.CreateJob(ctx, job.Job{Name: "old", EndDate: &past, Active: true})
	store.CreateJob(ctx, job.Job{Name: "new", EndDate: &future, Active: true})

	n, err := store.DeactivateExpiredJobs(ctx, time.Now())
	if err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if n != 1 {
		t.Fatalf("deactivated %d, want 1", n)
	}
	got, _ := store.GetJob(ctx, expired.ID)
	if got.Active {
		t.Fatalf("expired job still active")
	}
}

func TestResumeScopingAndCounts(t *testing.T) {
	store := New()
	ctx := context.Background()
	comp, _ := store.CreateCompany(ctx, company.Company{Name: "Acme"})
	j1, _ := store.CreateJob(ctx, job.Job{Name: "j1", CompanyID: &comp.ID, Active: true})
	j2, _ := store.CreateJob(ctx, job.Job{Name: "j2", Active: true})
	u1, _ := store.CreateUser(ctx, user.User{Email: "u1@example.com", Name: "U1"})
	u2, _ := store.CreateUser(ctx, user.User{Email: "u2@example.com", Name: "U2"})

	r1, _ := store.CreateResume(ctx, resume.Resume{UserID: u1.ID, JobID: j1.ID, Email: u1.Email, Status: resume.StatusHired, Active: true})
	store.CreateResume(ctx, resume.Resume{UserID: u2.ID, JobID: j2.ID, Email: u2.Email, Status: resume.StatusPending, Active: true})

	if _, err := store.CreateResume(ctx, resume.Resume{UserID: u1.ID, JobID: j1.ID}); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected duplicate application conflict, got %v", err)
	}
	if r1.Job == nil || r1.Job.CompanyName != "Acme" || r1.User.Name != "U1" {
		t.Fatalf("resume refs not hydrated: %+v %+v", r1.Job, r1.User)
	}

	res, err := store.ListResumes(ctx, storage.ResumeCriteria{ActiveOnly: true, Scoped: true, JobIDs: []int64{j1.ID}}, storage.ListOptions{Page: query.DefaultPage()})
	if err != nil {
		t.Fatalf("list resumes: %v", err)
	}
	if res.Meta.Total != 1 || res.Result[0].ID != r1.ID {
		t.Fatalf("scoped list = %+v", res.Result)
	}

	hired, _ := store.CountResumesByStatus(ctx, resume.StatusHired)
	if hired[j1.ID] != 1 || hired[j2.ID] != 0 {
		t.Fatalf("hired counts = %v", hired)
	}

	n, _ := store.SetResumesActiveByUser(ctx, u1.ID, false)
	if n != 1 {
		t.Fatalf("deactivated %d resumes, want 1", n)
	}
}

func TestCompanyStats(t *testing.T) {
	store := New()
	ctx := context.Background()
	comp, _ := store.CreateCompany(ctx, company.Company{Name: "Acme"})
	j, _ := store.CreateJob(ctx, job.Job{Name: "j", CompanyID: &comp.ID, Active: true})
	u, _ := store.CreateUser(ctx, user.User{Email: "u@example.com"})
	store.CreateResume(ctx, resume.Resume{UserID: u.ID, JobID: j.ID, Status: resume.StatusPending, Active: true})

	st, err := store.CompanyStats(ctx, comp.ID)
	if err != nil {
		t.Fatalf("company stats: %v", err)
	}
	if st.TotalJobs != 1 || st.ActiveJobs != 1 || st.TotalResumes != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if len(st.ResumesByStatus) != 1 || st.ResumesByStatus[0].Status != "PENDING" {
		t.Fatalf("by status = %+v", st.ResumesByStatus)
	}

	d, _ := store.Dashboard(ctx)
	if d.TotalJobs != 1 || len(d.ActiveJobsByCompany) != 1 || d.ActiveJobsByCompany[0].CompanyName != "Acme" {
		t.Fatalf("dashboard = %+v", d)
	}
}
