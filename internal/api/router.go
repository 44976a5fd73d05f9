package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/api/handlers"
	"github.com/Eugenia148/ISAC2025/internal/api/middleware"
	"github.com/Eugenia148/ISAC2025/internal/config"
	"github.com/Eugenia148/ISAC2025/internal/jobs"
	"github.com/Eugenia148/ISAC2025/internal/profile"
	"github.com/Eugenia148/ISAC2025/pkg/cache"
)

// SetupRoutes registers the versioned API routes on the given group.
// Health probes and the WebSocket feed live at the root level and are
// wired in main.
func SetupRoutes(group *gin.RouterGroup, svc *profile.Service, profileCache *cache.ProfileCache, runner *jobs.Runner, cfg *config.Config, logger *logrus.Logger) {
	profileHandler := handlers.NewProfileHandler(svc, profileCache, cfg.DefaultSeasonID, logger)
	groupHandler := handlers.NewGroupHandler(svc)
	adminHandler := handlers.NewAdminHandler(runner, logger)

	players := group.Group("/players")
	{
		players.GET("/:player_id/profile", profileHandler.GetProfile)
		players.GET("/:player_id/role", profileHandler.GetRole)
		players.GET("/:player_id/similar", profileHandler.GetSimilar)
		players.GET("/:player_id/performance", profileHandler.GetPerformance)
	}

	groups := group.Group("/groups")
	{
		groups.GET("/:group/axes", groupHandler.GetAxes)
		groups.GET("/:group/league-reference", groupHandler.GetLeagueReference)
	}

	admin := group.Group("/admin/artifacts")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		admin.POST("/reload", adminHandler.ReloadArtifacts)
		admin.POST("/rebuild", adminHandler.RebuildArtifacts)
	}
}
