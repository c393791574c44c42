package subscribers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/jobhunter/internal/app/domain/company"
	"github.com/R3E-Network/jobhunter/internal/app/domain/job"
	"github.com/R3E-Network/jobhunter/internal/app/domain/skill"
	"github.com/R3E-Network/jobhunter/internal/app/storage/memory"
	"github.com/R3E-Network/jobhunter/internal/platform/cache"
	"github.com/R3E-Network/jobhunter/internal/platform/mail"
	"github.com/R3E-Network/jobhunter/internal/security"
)

type digest struct {
	to   string
	jobs []mail.DigestJob
}

type fakeMailer struct {
	sent []digest
	fail map[string]bool
}

func (m *fakeMailer) SendDigest(_ context.Context, to, _ string, jobs []mail.DigestJob) error {
	if m.fail[to] {
		return fmt.Errorf("smtp refused %s", to)
	}
	m.sent = append(m.sent, digest{to: to, jobs: jobs})
	return nil
}

func seed(t *testing.T, store *memory.Store) (golang, rust skill.Skill) {
	t.Helper()
	ctx := context.Background()
	golang, _ = store.CreateSkill(ctx, skill.Skill{Name: "Go"})
	rust, _ = store.CreateSkill(ctx, skill.Skill{Name: "Rust"})
	acme, _ := store.CreateCompany(ctx, company.Company{Name: "Acme", Active: true})
	_, err := store.CreateJob(ctx, job.Job{Name: "Gopher", Salary: 2_000_000, Quantity: 1, Level: job.LevelJunior,
		Active: true, Status: job.StatusApproved, CompanyID: &acme.ID, Skills: []skill.Skill{golang}})
	require.NoError(t, err)
	_, err = store.CreateJob(ctx, job.Job{Name: "Closed", Quantity: 1, Level: job.LevelJunior,
		CompanyID: &acme.ID, Skills: []skill.Skill{golang}})
	require.NoError(t, err)
	return golang, rust
}

func caches(t *testing.T) map[string]cache.Cache {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return map[string]cache.Cache{
		"memory": cache.NewMemory(),
		"redis":  cache.NewRedisFromClient(client),
	}
}

func TestSendDigestSkipsAlreadySentJobs(t *testing.T) {
	for name, c := range caches(t) {
		t.Run(name, func(t *testing.T) {
			store := memory.New()
			golang, rust := seed(t, store)
			mailer := &fakeMailer{}
			svc := New(store, store, store, c, mailer, nil)
			ctx := context.Background()

			_, err := svc.Create(ctx, Request{Name: "Ann", Email: "ann@x.io", Skills: []IDRef{{ID: golang.ID}}})
			require.NoError(t, err)
			_, err = svc.Create(ctx, Request{Name: "Bob", Email: "bob@x.io", Skills: []IDRef{{ID: rust.ID}}})
			require.NoError(t, err)
			_, err = svc.Create(ctx, Request{Name: "Cid", Email: "cid@x.io"})
			require.NoError(t, err)

			n, err := svc.SendDigest(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			require.Len(t, mailer.sent, 1)
			assert.Equal(t, "ann@x.io", mailer.sent[0].to)
			require.Len(t, mailer.sent[0].jobs, 1)
			assert.Equal(t, "Gopher", mailer.sent[0].jobs[0].Name)
			assert.Equal(t, "Acme", mailer.sent[0].jobs[0].CompanyName)
			assert.Equal(t, []string{"Go"}, mailer.sent[0].jobs[0].Skills)

			members, err := c.Members(ctx, SentKey("ann@x.io"))
			require.NoError(t, err)
			assert.Len(t, members, 1)

			n, err = svc.SendDigest(ctx)
			require.NoError(t, err)
			assert.Zero(t, n, "jobs already mailed must not be sent again")
		})
	}
}

func TestSendDigestAggregatesFailures(t *testing.T) {
	store := memory.New()
	golang, _ := seed(t, store)
	mailer := &fakeMailer{fail: map[string]bool{"bad@x.io": true}}
	svc := New(store, store, store, cache.NewMemory(), mailer, nil)
	ctx := context.Background()

	for _, email := range []string{"bad@x.io", "good@x.io"} {
		_, err := svc.Create(ctx, Request{Email: email, Skills: []IDRef{{ID: golang.ID}}})
		require.NoError(t, err)
	}
	n, err := svc.SendDigest(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad@x.io")
	assert.Equal(t, 1, n)
}

func TestSubscriptionLifecycle(t *testing.T) {
	store := memory.New()
	golang, rust := seed(t, store)
	svc := New(store, store, store, cache.NewMemory(), &fakeMailer{}, nil)
	ctx := security.WithPrincipal(context.Background(), security.Principal{UserID: 1, Email: "me@x.io"})

	sub, err := svc.Create(ctx, Request{Name: "Me", Skills: []IDRef{{ID: golang.ID}}})
	require.NoError(t, err)
	assert.Equal(t, "me@x.io", sub.Email)

	_, err = svc.Create(ctx, Request{Email: "me@x.io"})
	require.Error(t, err)

	updated, err := svc.Update(ctx, Request{ID: sub.ID, Skills: []IDRef{{ID: rust.ID}, {ID: golang.ID}}})
	require.NoError(t, err)
	assert.Len(t, updated.Skills, 2)

	mine, err := svc.GetByEmail(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, mine.ID)

	require.NoError(t, svc.Delete(ctx, sub.ID))
	_, err = svc.GetByEmail(ctx)
	require.Error(t, err)
	require.Error(t, svc.Delete(ctx, sub.ID))
}

type unmarkableCache struct {
	cache.Cache
}

func (unmarkableCache) AddToSet(context.Context, string, time.Duration, ...string) error {
	return fmt.Errorf("cache unavailable")
}

func TestSendDigestCountsMailWhenMarkingFails(t *testing.T) {
	store := memory.New()
	golang, _ := seed(t, store)
	mailer := &fakeMailer{}
	svc := New(store, store, store, unmarkableCache{Cache: cache.NewMemory()}, mailer, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, Request{Email: "ann@x.io", Skills: []IDRef{{ID: golang.ID}}})
	require.NoError(t, err)

	n, err := svc.SendDigest(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mark jobs sent")
	assert.Equal(t, 1, n, "the mail went out even though it was not recorded")
	assert.Len(t, mailer.sent, 1)
}
