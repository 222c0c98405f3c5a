package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestRegisterJobValidation(t *testing.T) {
	s := NewService(arbor.NewLogger())

	assert.Error(t, s.RegisterJob("fast", "* * * * *", "", false, func() error { return nil }))
	require.NoError(t, s.RegisterJob("run", "0 */6 * * *", "pipeline run", false, func() error { return nil }))
	assert.ErrorContains(t, s.RegisterJob("run", "0 */6 * * *", "", false, func() error { return nil }), "already registered")

	status, err := s.GetJobStatus("run")
	require.NoError(t, err)
	assert.Equal(t, "pipeline run", status.Description)
	assert.False(t, status.IsRunning)

	_, err = s.GetJobStatus("missing")
	assert.Error(t, err)
}

func TestAutoStartAndStatus(t *testing.T) {
	s := NewService(arbor.NewLogger())
	var calls atomic.Int32

	require.NoError(t, s.RegisterJob("run", "@hourly", "", true, func() error {
		calls.Add(1)
		return errors.New("source unavailable")
	}))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start())

	waitFor(t, func() bool {
		status, _ := s.GetJobStatus("run")
		return status.Runs == 1
	})

	status, err := s.GetJobStatus("run")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "source unavailable", status.LastError)
	assert.NotNil(t, status.LastRun)
	assert.NotNil(t, status.NextRun)

	require.NoError(t, s.Stop(context.Background()))
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop(context.Background()))
}

func TestOverlappingRunIsSkipped(t *testing.T) {
	s := NewService(arbor.NewLogger())
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, s.RegisterJob("slow", "@hourly", "", false, func() error {
		close(started)
		<-release
		return nil
	}))

	require.NoError(t, s.TriggerJob("slow"))
	<-started

	s.executeJob("slow") // second tick while the first is running

	status, err := s.GetJobStatus("slow")
	require.NoError(t, err)
	assert.True(t, status.IsRunning)
	assert.Equal(t, 1, status.Skipped)

	close(release)
	waitFor(t, func() bool {
		status, _ := s.GetJobStatus("slow")
		return status.Runs == 1 && !status.IsRunning
	})
}

func TestPanicIsRecorded(t *testing.T) {
	s := NewService(arbor.NewLogger())
	require.NoError(t, s.RegisterJob("boom", "@hourly", "", false, func() error {
		panic("bad batch")
	}))

	s.executeJob("boom")

	status, err := s.GetJobStatus("boom")
	require.NoError(t, err)
	assert.Equal(t, "panic: bad batch", status.LastError)
	assert.False(t, status.IsRunning)

	assert.Error(t, s.TriggerJob("missing"))
}
