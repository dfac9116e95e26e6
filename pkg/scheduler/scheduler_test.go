package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// yearly 测试期间不会自然触发.
const yearly = "0 0 1 1 *"

func newScheduler(t *testing.T) *Scheduler {
	t.Helper()

	s, err := New(zerolog.Nop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func jobInfo(t *testing.T, s *Scheduler, name string) JobInfo {
	t.Helper()

	for _, info := range s.Jobs() {
		if info.Name == name {
			return info
		}
	}

	t.Fatalf("job %s not listed", name)

	return JobInfo{}
}

func TestAddCron(t *testing.T) {
	s := newScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCron("b.job", yearly, noop))
	require.NoError(t, s.AddCron("a.job", yearly, noop))
	require.Error(t, s.AddCron("a.job", yearly, noop))
	require.Error(t, s.AddCron("bad.job", "not a cron", noop))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	require.Equal(t, "a.job", jobs[0].Name)
	require.Equal(t, "b.job", jobs[1].Name)
	require.Equal(t, StatusScheduled, jobs[0].Status)
	require.Equal(t, yearly, jobs[0].CronExpr)
	require.NotEmpty(t, jobs[0].ID)
}

func TestRunNow_RecordsOutcome(t *testing.T) {
	s := newScheduler(t)

	var runs atomic.Int32

	require.NoError(t, s.AddCron("ok", yearly, func(context.Context) error {
		runs.Add(1)
		return nil
	}))
	require.NoError(t, s.AddCron("fails", yearly, func(context.Context) error {
		return errors.New("disk full")
	}))
	require.NoError(t, s.AddCron("panics", yearly, func(context.Context) error {
		panic("boom")
	}))

	s.Start()

	require.NoError(t, s.RunNow("ok"))
	require.NoError(t, s.RunNow("fails"))
	require.NoError(t, s.RunNow("panics"))

	require.Eventually(t, func() bool {
		return !jobInfo(t, s, "ok").LastSuccess.IsZero()
	}, 2*time.Second, 10*time.Millisecond)
	require.EqualValues(t, 1, runs.Load())

	require.Eventually(t, func() bool {
		return jobInfo(t, s, "fails").Status == StatusError
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "disk full", jobInfo(t, s, "fails").Error)

	require.Eventually(t, func() bool {
		return jobInfo(t, s, "panics").Status == StatusError
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "panic: boom", jobInfo(t, s, "panics").Error)
}

func TestUnknownJob(t *testing.T) {
	s := newScheduler(t)

	require.ErrorIs(t, s.RunNow("missing"), ErrJobNotFound)
	require.ErrorIs(t, s.RemoveJob("missing"), ErrJobNotFound)
}

func TestRemoveJob(t *testing.T) {
	s := newScheduler(t)

	require.NoError(t, s.AddCron("gone", yearly, func(context.Context) error { return nil }))
	require.NoError(t, s.RemoveJob("gone"))
	require.Empty(t, s.Jobs())
	require.NoError(t, s.AddCron("gone", yearly, func(context.Context) error { return nil }))
}
