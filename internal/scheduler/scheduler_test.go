package scheduler

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs int
	err  error
}

func (j *countingJob) Run() error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string {
	return j.name
}

func TestScheduler_AddJobAndRunNow(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "warm"}

	require.NoError(t, s.AddJob("0 0 1 * * *", job))
	require.NoError(t, s.RunNow("warm"))
	assert.Equal(t, 1, job.runs)

	job.err = errors.New("boom")
	assert.EqualError(t, s.RunNow("warm"), "boom")
}

func TestScheduler_RejectsBadInput(t *testing.T) {
	s := New(zerolog.Nop())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{name: "a"}))
	assert.Empty(t, s.Jobs())

	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "a"}))
	assert.Error(t, s.AddJob("@every 2h", &countingJob{name: "a"}))

	assert.ErrorIs(t, s.RunNow("missing"), ErrUnknownJob)
}

func TestScheduler_JobsSorted(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "zeta"}))
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "alpha"}))

	assert.Equal(t, []string{"alpha", "zeta"}, s.Jobs())
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(zerolog.Nop())
	require.NoError(t, s.AddJob("@every 1h", &countingJob{name: "a"}))

	assert.NotPanics(t, func() {
		s.Start()
		s.Stop()
	})
}
