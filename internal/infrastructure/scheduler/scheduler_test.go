package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(DefaultConfig())
	require.NoError(t, err)
	return s
}

func TestScheduler_RunsOnInterval(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "tick"}

	require.NoError(t, s.Every(job, 20*time.Millisecond, true))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestScheduler_Registration(t *testing.T) {
	s := newTestScheduler(t)
	job := &countingJob{name: "tick"}

	assert.ErrorIs(t, s.Every(nil, time.Second, false), ErrNilJob)
	assert.ErrorIs(t, s.Every(job, 0, false), ErrInvalidInterval)
	require.NoError(t, s.Every(job, time.Hour, false))
	assert.ErrorIs(t, s.Every(job, time.Hour, false), ErrJobAlreadyExists)

	infos := s.ListJobs()
	require.Len(t, infos, 1)
	assert.Equal(t, "tick", infos[0].Name)
	assert.Equal(t, time.Hour, infos[0].Interval)

	require.NoError(t, s.Unregister("tick"))
	assert.ErrorIs(t, s.Unregister("tick"), ErrJobNotFound)
	assert.Empty(t, s.ListJobs())
}

func TestScheduler_RunNow(t *testing.T) {
	s := newTestScheduler(t)
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	require.NoError(t, s.Every(ok, time.Hour, false))
	require.NoError(t, s.Every(bad, time.Hour, false))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)

	res, err = s.RunNow(context.Background(), "bad")
	assert.EqualError(t, err, "boom")
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	assert.Len(t, s.GetHistory(0), 2)
	assert.Equal(t, "bad", s.GetHistory(1)[0].JobName)

	m := s.Metrics()
	assert.Equal(t, int64(2), m.TotalExecutions)
	assert.Equal(t, int64(1), m.TotalFailures)

	for _, info := range s.ListJobs() {
		assert.Equal(t, int64(1), info.RunCount)
	}
}
