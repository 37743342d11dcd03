package sweeper

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestAddRejectsSubSecondInterval(t *testing.T) {
	s := New(quietLogger())
	err := s.Add("too-fast", 100*time.Millisecond, func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestSweeperRunsRegisteredJobs(t *testing.T) {
	s := New(quietLogger())

	var runs atomic.Int64
	require.NoError(t, s.Add("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop()

	deadline := time.After(5 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("sweep did not run within deadline")
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func TestStopWaitsForRunningPass(t *testing.T) {
	s := New(quietLogger())

	started := make(chan struct{})
	var once sync.Once
	var finished atomic.Bool
	require.NoError(t, s.Add("slow", time.Second, func(context.Context) error {
		once.Do(func() { close(started) })
		time.Sleep(200 * time.Millisecond)
		finished.Store(true)
		return nil
	}))

	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not start")
	}

	s.Stop()
	assert.True(t, finished.Load(), "Stop must wait for the in-flight pass")
}
