package jobs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eugenia148/ISAC2025/internal/artifacts"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testRunner(t *testing.T) *Runner {
	t.Helper()
	store := artifacts.NewStore(t.TempDir(), testLogger())
	return NewRunner(t.TempDir(), store, nil, nil, testLogger())
}

func TestTriggerRebuildRejectsConcurrentBuilds(t *testing.T) {
	r := testRunner(t)

	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	_, err := r.TriggerRebuild()
	assert.ErrorIs(t, err, ErrBuildInProgress)
}

func TestRebuildOverEmptyInputsFails(t *testing.T) {
	r := testRunner(t)

	jobID, err := r.TriggerRebuild()
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	require.Eventually(t, func() bool {
		status := r.Status()
		return status != nil && status.Status != StatusRunning
	}, 5*time.Second, 10*time.Millisecond)

	status := r.Status()
	assert.Equal(t, jobID, status.ID)
	assert.Equal(t, StatusFailed, status.Status)
	assert.Contains(t, status.Error, "tactical")
	require.NotNil(t, status.FinishedAt)

	// The runner is free again once the job finishes.
	_, err = r.TriggerRebuild()
	assert.NoError(t, err)
}

func TestReloadWithoutCacheSucceeds(t *testing.T) {
	r := testRunner(t)
	assert.NoError(t, r.Reload(context.Background()))
}

func TestStatusIsNilBeforeFirstBuild(t *testing.T) {
	r := testRunner(t)
	assert.Nil(t, r.Status())
}

func TestStatusReturnsACopy(t *testing.T) {
	r := testRunner(t)
	r.mu.Lock()
	r.last = &JobStatus{ID: "job-1", Status: StatusRunning}
	r.mu.Unlock()

	status := r.Status()
	status.Status = StatusFailed

	assert.Equal(t, StatusRunning, r.Status().Status)
}
