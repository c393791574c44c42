package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/jobhunter/internal/config"
)

type fakeJobs struct{ expired, filled int32 }

func (f *fakeJobs) DeactivateExpired(context.Context) (int64, error) {
	atomic.AddInt32(&f.expired, 1)
	return 2, nil
}

func (f *fakeJobs) DeactivateFilled(context.Context) (int64, error) {
	atomic.AddInt32(&f.filled, 1)
	return 0, nil
}

type fakeDigest struct{ err error }

func (f fakeDigest) SendDigest(context.Context) (int, error) { return 1, f.err }

func defaults() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:        true,
		ExpiredJobs:    "0 0 0 * * *",
		FilledJobs:     "0 */30 * * * *",
		SubscriberMail: "0 0 9 * * *",
	}
}

func TestFromConfigRegistersTasks(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := FromConfig(defaults(), jobs, fakeDigest{err: errors.New("smtp down")}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Run(ctx, "deactivate-expired-jobs"))
	require.NoError(t, s.Run(ctx, "deactivate-filled-jobs"))
	assert.Error(t, s.Run(ctx, "subscriber-digest"))
	assert.Error(t, s.Run(ctx, "nope"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&jobs.expired))
	assert.EqualValues(t, 1, atomic.LoadInt32(&jobs.filled))
}

func TestRejectsFiveFieldSpec(t *testing.T) {
	cfg := defaults()
	cfg.FilledJobs = "*/30 * * * *"
	_, err := FromConfig(cfg, &fakeJobs{}, fakeDigest{}, nil)
	require.Error(t, err)
}

func TestCronFiresTasks(t *testing.T) {
	s := New(nil)
	fired := make(chan struct{}, 4)
	require.NoError(t, s.Add("tick", "* * * * * *", func(context.Context) (int64, error) {
		fired <- struct{}{}
		return 0, nil
	}))
	require.NoError(t, s.Start(context.Background()))
	require.Error(t, s.Add("late", "* * * * * *", nil))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("task never fired")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
