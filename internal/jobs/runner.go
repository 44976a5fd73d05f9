package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/artifacts"
	"github.com/Eugenia148/ISAC2025/internal/builder"
	"github.com/Eugenia148/ISAC2025/internal/types"
	"github.com/Eugenia148/ISAC2025/internal/ws"
	"github.com/Eugenia148/ISAC2025/pkg/cache"
)

// ErrBuildInProgress is returned when a rebuild is requested while another
// build is still running.
var ErrBuildInProgress = errors.New("an artifact build is already running")

// Job status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// JobStatus describes one artifact build job.
type JobStatus struct {
	ID         string        `json:"id"`
	Status     string        `json:"status"`
	Stage      string        `json:"stage,omitempty"`
	Progress   float64       `json:"progress"`
	Message    string        `json:"message,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Runner owns artifact rebuilds and reloads. At most one build runs at a
// time; a rebuild request while one is in flight is rejected rather than
// queued. Progress is broadcast over the builds WebSocket feed, and a
// successful build reloads the artifact store and flushes the cache so
// the next request serves the new artifacts.
type Runner struct {
	inputsDir string
	store     *artifacts.Store
	cache     *cache.ProfileCache
	hub       *ws.Hub
	logger    *logrus.Logger

	mu      sync.Mutex
	running bool
	last    *JobStatus
}

// NewRunner creates a build runner. cache and hub may be nil.
func NewRunner(inputsDir string, store *artifacts.Store, profileCache *cache.ProfileCache, hub *ws.Hub, logger *logrus.Logger) *Runner {
	return &Runner{
		inputsDir: inputsDir,
		store:     store,
		cache:     profileCache,
		hub:       hub,
		logger:    logger,
	}
}

// TriggerRebuild starts an asynchronous full artifact build and returns
// its job id immediately.
func (r *Runner) TriggerRebuild() (string, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return "", ErrBuildInProgress
	}

	jobID := uuid.New().String()
	r.running = true
	r.last = &JobStatus{
		ID:        jobID,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	r.mu.Unlock()

	r.logger.WithFields(logrus.Fields{
		"component": "build_runner",
		"job_id":    jobID,
	}).Info("Starting artifact build")

	go r.runBuild(jobID)
	return jobID, nil
}

// Reload re-reads the artifacts from disk and flushes the cache. Used by
// the admin reload endpoint and the scheduled refresh.
func (r *Runner) Reload(ctx context.Context) error {
	r.store.Reload()
	if err := r.invalidateCache(ctx); err != nil {
		return err
	}
	r.logger.WithField("component", "build_runner").Info("Artifacts reloaded")
	return nil
}

// Status returns the most recent job, or nil when no build has run yet.
func (r *Runner) Status() *JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.last == nil {
		return nil
	}
	status := *r.last
	return &status
}

func (r *Runner) runBuild(jobID string) {
	startTime := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.WithFields(logrus.Fields{
				"component": "build_runner",
				"job_id":    jobID,
				"panic":     rec,
			}).Error("Build panicked")
			r.finish(jobID, fmt.Sprintf("panic: %v", rec), time.Since(startTime))
		}
	}()

	b := builder.New(r.inputsDir, r.store.BaseDir(), r.logger)
	b.OnProgress(func(stage string, progress float64, message string) {
		r.publish(jobID, stage, progress, message, "")
	})

	err := b.BuildAll(context.Background())
	duration := time.Since(startTime)

	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"component": "build_runner",
			"job_id":    jobID,
			"duration":  duration,
		}).Error("Artifact build failed")
		r.finish(jobID, err.Error(), duration)
		return
	}

	if err := r.Reload(context.Background()); err != nil {
		r.logger.WithError(err).WithField("job_id", jobID).Warn("Cache flush after build failed")
	}

	r.logger.WithFields(logrus.Fields{
		"component": "build_runner",
		"job_id":    jobID,
		"duration":  duration,
	}).Info("Artifact build completed")
	r.finish(jobID, "", duration)
}

// finish marks the job done and broadcasts the terminal event.
func (r *Runner) finish(jobID, errMsg string, duration time.Duration) {
	now := time.Now().UTC()

	r.mu.Lock()
	r.running = false
	if r.last != nil && r.last.ID == jobID {
		r.last.FinishedAt = &now
		r.last.Duration = duration
		if errMsg != "" {
			r.last.Status = StatusFailed
			r.last.Error = errMsg
		} else {
			r.last.Status = StatusCompleted
			r.last.Progress = 1
		}
	}
	r.mu.Unlock()

	if errMsg != "" {
		r.publish(jobID, StatusFailed, 1, "", errMsg)
	}
}

func (r *Runner) publish(jobID, stage string, progress float64, message, errMsg string) {
	r.mu.Lock()
	if r.last != nil && r.last.ID == jobID {
		r.last.Stage = stage
		r.last.Progress = progress
		r.last.Message = message
	}
	r.mu.Unlock()

	if r.hub == nil {
		return
	}
	r.hub.BroadcastToAll(types.BuildProgress{
		JobID:     jobID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	})
}

func (r *Runner) invalidateCache(ctx context.Context) error {
	if !r.cache.Enabled() {
		return nil
	}
	return r.cache.InvalidateAll(ctx)
}
