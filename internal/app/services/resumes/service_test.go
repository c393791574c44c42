package resumes

import (
	"context"
	"sync"
	"testing"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/notification"
	"github.com/R3E-Network/jobhunter/internal/app/domain/resume"
	"github.com/R3E-Network/jobhunter/internal/app/domain/user"
	"github.com/R3E-Network/jobhunter/internal/app/query"
	"github.com/R3E-Network/jobhunter/internal/app/storage"
	"github.com/R3E-Network/jobhunter/internal/app/storage/memory"
	"github.com/R3E-Network/jobhunter/internal/errors"
	"github.com/R3E-Network/jobhunter/internal/platform/mail"
	"github.com/R3E-Network/jobhunter/internal/security"
)

type sentMail struct {
	kind string
	to   mail.Candidate
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) record(kind string, c mail.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, to: c})
	return nil
}

func (m *fakeMailer) SendInterviewInvitation(_ context.Context, c mail.Candidate) error {
	return m.record("invitation", c)
}
func (m *fakeMailer) SendInterviewPassed(_ context.Context, c mail.Candidate) error {
	return m.record("passed", c)
}
func (m *fakeMailer) SendInterviewFailed(_ context.Context, c mail.Candidate) error {
	return m.record("failed", c)
}
func (m *fakeMailer) SendRejection(_ context.Context, c mail.Candidate) error {
	return m.record("rejected", c)
}
func (m *fakeMailer) SendHired(_ context.Context, c mail.Candidate) error {
	return m.record("hired", c)
}

type fakeNotifier struct {
	sent []notification.Notification
}

func (n *fakeNotifier) Send(_ context.Context, userID int64, note notification.Notification) (notification.Notification, error) {
	note.UserID = userID
	n.sent = append(n.sent, note)
	return note, nil
}

type fixture struct {
	store    *memory.Store
	svc      *Service
	mailer   *fakeMailer
	notifier *fakeNotifier
	job      job.Job
	acme     company.Company
}

func newFixture(t *testing.T, quantity int) fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	acme, _ := store.CreateCompany(ctx, company.Company{Name: "Acme", Active: true})
	j, err := store.CreateJob(ctx, job.Job{
		Name: "Backend", Quantity: quantity, Level: job.LevelJunior,
		Active: true, Status: job.StatusApproved, CompanyID: &acme.ID,
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	m, n := &fakeMailer{}, &fakeNotifier{}
	return fixture{
		store:    store,
		svc:      New(store, store, store, m, n, "http://localhost:5173/", nil),
		mailer:   m,
		notifier: n,
		job:      j,
		acme:     acme,
	}
}

func (f fixture) candidate(t *testing.T, email string) context.Context {
	t.Helper()
	u, err := f.store.CreateUser(context.Background(), user.User{Name: email, Email: email, Active: true})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return security.WithPrincipal(context.Background(), security.Principal{UserID: u.ID, Email: u.Email})
}

func TestCreateRejectsDuplicatesAndClosedJobs(t *testing.T) {
	f := newFixture(t, 1)
	ctx := f.candidate(t, "cand@x.io")

	r, err := f.svc.Create(ctx, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: f.job.ID}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.Status != resume.StatusPending || r.Email != "cand@x.io" || !r.Active {
		t.Fatalf("unexpected resume %+v", r)
	}

	_, err = f.svc.Create(ctx, CreateRequest{URL: "cv2.pdf", Job: IDRef{ID: f.job.ID}})
	if se := errors.GetServiceError(err); se == nil || se.Code != errors.CodeConflict {
		t.Fatalf("expected conflict on second application, got %v", err)
	}

	closed, _ := f.store.CreateJob(context.Background(), job.Job{Name: "Old", Quantity: 1, Level: job.LevelSenior})
	if _, err := f.svc.Create(ctx, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: closed.ID}}); err == nil {
		t.Fatalf("expected inactive job to refuse applications")
	}
	if _, err := f.svc.Create(ctx, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: 999}}); err == nil {
		t.Fatalf("expected unknown job to fail")
	}
}

func TestPipelineSendsMailAndNotifications(t *testing.T) {
	f := newFixture(t, 1)
	ctx := f.candidate(t, "cand@x.io")
	r, _ := f.svc.Create(ctx, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: f.job.ID}})

	hr := context.Background()
	if _, err := f.svc.UpdateStatus(hr, r.ID, resume.StatusHired); err == nil {
		t.Fatalf("expected PENDING -> HIRED to be refused")
	}
	if _, err := f.svc.UpdateStatus(hr, r.ID, resume.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].kind != "invitation" {
		t.Fatalf("expected invitation mail, got %+v", f.mailer.sent)
	}
	got := f.mailer.sent[0].to
	if got.ConfirmationURL != "http://localhost:5173/1" || got.CompanyName != "Acme" || got.JobTitle != "Backend" {
		t.Fatalf("unexpected candidate %+v", got)
	}

	if _, err := f.svc.ConfirmInterview(ctx, r.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	res, err := f.svc.UpdateStatus(hr, r.ID, resume.StatusHired)
	if err != nil {
		t.Fatalf("hire: %v", err)
	}
	if res.Message != FilledMessage {
		t.Fatalf("expected filled message, got %q", res.Message)
	}
	if last := f.mailer.sent[len(f.mailer.sent)-1]; last.kind != "hired" {
		t.Fatalf("expected hired mail, got %s", last.kind)
	}
	if len(f.notifier.sent) != 2 || f.notifier.sent[1].Type != notification.TypeHired || f.notifier.sent[1].UserID != r.UserID {
		t.Fatalf("unexpected notifications %+v", f.notifier.sent)
	}
}

func TestHireQuota(t *testing.T) {
	f := newFixture(t, 1)
	hr := context.Background()
	var ids []int64
	for _, email := range []string{"a@x.io", "b@x.io"} {
		ctx := f.candidate(t, email)
		r, err := f.svc.Create(ctx, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: f.job.ID}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		f.svc.UpdateStatus(hr, r.ID, resume.StatusApproved)
		f.svc.ConfirmInterview(ctx, r.ID)
		ids = append(ids, r.ID)
	}
	if _, err := f.svc.UpdateStatus(hr, ids[0], resume.StatusHired); err != nil {
		t.Fatalf("first hire: %v", err)
	}
	if _, err := f.svc.UpdateStatus(hr, ids[1], resume.StatusHired); err == nil {
		t.Fatalf("expected quota to refuse second hire")
	}
}

func TestDeclineInterviewOnlyByApplicant(t *testing.T) {
	f := newFixture(t, 1)
	ctx := f.candidate(t, "cand@x.io")
	other := f.candidate(t, "other@x.io")
	r, _ := f.svc.Create(ctx, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: f.job.ID}})

	if _, err := f.svc.DeclineInterview(ctx, r.ID); err == nil {
		t.Fatalf("expected decline of a pending resume to fail")
	}
	f.svc.UpdateStatus(context.Background(), r.ID, resume.StatusApproved)
	if _, err := f.svc.DeclineInterview(other, r.ID); err == nil {
		t.Fatalf("expected another user to be refused")
	}
	res, err := f.svc.DeclineInterview(ctx, r.ID)
	if err != nil || res.Status != resume.StatusInterviewRejected {
		t.Fatalf("decline: %+v %v", res, err)
	}
}

func TestListScopesRecruitersAndDeleteRestore(t *testing.T) {
	f := newFixture(t, 3)
	bg := context.Background()
	cand := f.candidate(t, "cand@x.io")
	mine, _ := f.svc.Create(cand, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: f.job.ID}})

	globex, _ := f.store.CreateCompany(bg, company.Company{Name: "Globex", Active: true})
	foreign, _ := f.store.CreateJob(bg, job.Job{Name: "Ops", Quantity: 1, Level: job.LevelJunior, Active: true, CompanyID: &globex.ID})
	f.svc.Create(cand, CreateRequest{URL: "cv.pdf", Job: IDRef{ID: foreign.ID}})

	hr, _ := f.store.CreateUser(bg, user.User{Email: "hr@acme.io", Active: true, CompanyID: &f.acme.ID})
	hrCtx := security.WithPrincipal(bg, security.Principal{UserID: hr.ID, Email: hr.Email})

	opts := storage.ListOptions{Page: query.DefaultPage()}
	page, err := f.svc.List(hrCtx, opts)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Meta.Total != 1 || page.Result[0].ID != mine.ID {
		t.Fatalf("recruiter should only see Acme resumes, got %+v", page.Result)
	}

	own, _ := f.svc.ListByUser(cand, opts)
	if own.Meta.Total != 2 {
		t.Fatalf("candidate should see both applications, got %d", own.Meta.Total)
	}

	if err := f.svc.Delete(hrCtx, mine.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	own, _ = f.svc.ListByUser(cand, opts)
	if own.Meta.Total != 1 {
		t.Fatalf("deleted resume still listed")
	}
	if _, err := f.svc.Restore(hrCtx, mine.ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := f.svc.Restore(hrCtx, mine.ID); err == nil {
		t.Fatalf("expected restoring an active resume to fail")
	}
}
