package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Eugenia148/ISAC2025/internal/artifacts"
	"github.com/Eugenia148/ISAC2025/internal/ingest"
	"github.com/Eugenia148/ISAC2025/internal/ws"
	"github.com/Eugenia148/ISAC2025/pkg/cache"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store *artifacts.Store
	stats *ingest.Store
	cache *cache.ProfileCache
	hub   *ws.Hub
}

// NewHealthHandler creates a health handler. stats, cache and hub may be
// nil.
func NewHealthHandler(store *artifacts.Store, stats *ingest.Store, profileCache *cache.ProfileCache, hub *ws.Hub) *HealthHandler {
	return &HealthHandler{
		store: store,
		stats: stats,
		cache: profileCache,
		hub:   hub,
	}
}

// GetHealth always returns 200 while the process is up.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "profile-service",
		"time":    time.Now().UTC(),
	})
}

// GetReady returns 200 once artifacts are loaded. The database and cache
// are optional dependencies: their state is reported but never fails
// readiness, because the service degrades to artifact-only responses.
func (h *HealthHandler) GetReady(c *gin.Context) {
	status := h.store.Status()

	artifactRows := status.PerformanceRows + status.RoleSeasons
	for _, group := range status.Groups {
		artifactRows += group.Rows
	}

	deps := gin.H{
		"artifacts": gin.H{
			"groups":           status.Groups,
			"role_seasons":     status.RoleSeasons,
			"role_neighbors":   status.RoleNeighbors,
			"performance_rows": status.PerformanceRows,
		},
	}

	if h.stats.Enabled() {
		if err := h.stats.HealthCheck(); err != nil {
			deps["database"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			deps["database"] = gin.H{"status": "up"}
		}
	} else {
		deps["database"] = gin.H{"status": "disabled"}
	}

	if h.cache.Enabled() {
		if err := h.cache.HealthCheck(c.Request.Context()); err != nil {
			deps["cache"] = gin.H{"status": "down", "error": err.Error()}
		} else {
			deps["cache"] = gin.H{"status": "up"}
		}
	} else {
		deps["cache"] = gin.H{"status": "disabled"}
	}

	if h.hub != nil {
		deps["builds_feed"] = gin.H{"clients": h.hub.ConnectionCount()}
	}

	if artifactRows == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "not_ready",
			"dependencies": deps,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ready",
		"dependencies": deps,
	})
}
