package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/jobs"
	"github.com/Eugenia148/ISAC2025/pkg/utils"
)

// AdminHandler serves the JWT-protected artifact management endpoints.
type AdminHandler struct {
	runner *jobs.Runner
	logger *logrus.Logger
}

// NewAdminHandler creates the admin endpoints handler.
func NewAdminHandler(runner *jobs.Runner, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		runner: runner,
		logger: logger,
	}
}

// ReloadArtifacts re-reads the artifact sets from disk and flushes the
// payload cache.
func (h *AdminHandler) ReloadArtifacts(c *gin.Context) {
	if err := h.runner.Reload(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Artifact reload failed")
		utils.SendInternalError(c, "Failed to reload artifacts")
		return
	}

	utils.SendSuccess(c, "Artifacts reloaded", nil)
}

// RebuildArtifacts starts an asynchronous artifact build and returns its
// job id. Progress streams over the builds WebSocket feed.
func (h *AdminHandler) RebuildArtifacts(c *gin.Context) {
	jobID, err := h.runner.TriggerRebuild()
	if err != nil {
		if errors.Is(err, jobs.ErrBuildInProgress) {
			utils.SendConflict(c, "An artifact build is already running")
			return
		}
		h.logger.WithError(err).Error("Failed to start artifact build")
		utils.SendInternalError(c, "Failed to start artifact build")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"status": jobs.StatusRunning,
	})
}
