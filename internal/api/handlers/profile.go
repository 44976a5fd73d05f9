package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/profile"
	"github.com/Eugenia148/ISAC2025/internal/types"
	"github.com/Eugenia148/ISAC2025/pkg/cache"
	"github.com/Eugenia148/ISAC2025/pkg/utils"
)

// ProfileHandler serves the per-player read endpoints: tactical profile,
// role, similar players, performance.
type ProfileHandler struct {
	service         *profile.Service
	cache           *cache.ProfileCache
	defaultSeasonID int
	logger          *logrus.Logger
}

// NewProfileHandler creates the player endpoints handler. cache may be nil.
func NewProfileHandler(service *profile.Service, profileCache *cache.ProfileCache, defaultSeasonID int, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{
		service:         service,
		cache:           profileCache,
		defaultSeasonID: defaultSeasonID,
		logger:          logger,
	}
}

// GetProfile returns the tactical profile for a player-season.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	playerID, seasonID, ok := h.playerSeason(c)
	if !ok {
		return
	}
	position := c.Query("position")

	ctx := c.Request.Context()
	id := string(types.NewPlayerSeasonID(playerID, seasonID))

	// The cache key needs the resolved group; resolution is cheap and
	// never touches artifacts the request would not touch anyway.
	group, resolved := h.service.ResolveGroup(ctx, playerID, seasonID, position)
	if resolved {
		if payload, hit := h.cache.GetProfile(ctx, group, id); hit {
			c.JSON(http.StatusOK, payload)
			return
		}
	}

	payload, err := h.service.BuildProfile(ctx, playerID, seasonID, position)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"player_id": playerID,
			"season_id": seasonID,
		}).Error("Failed to build profile")
		utils.SendInternalError(c, "Failed to build profile")
		return
	}
	if payload == nil {
		utils.SendNotFound(c, "No profile for this player and season")
		return
	}

	h.cache.SetProfile(ctx, payload.Meta.PositionGroup, id, payload)
	c.JSON(http.StatusOK, payload)
}

// GetRole returns the striker role assignment for a player-season.
func (h *ProfileHandler) GetRole(c *gin.Context) {
	playerID, seasonID, ok := h.playerSeason(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	id := string(types.NewPlayerSeasonID(playerID, seasonID))

	if assignment, hit := h.cache.GetRole(ctx, id); hit {
		c.JSON(http.StatusOK, assignment)
		return
	}

	assignment, err := h.service.Role(ctx, playerID, seasonID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"player_id": playerID,
			"season_id": seasonID,
		}).Error("Failed to assign role")
		utils.SendInternalError(c, "Failed to assign role")
		return
	}
	if assignment == nil {
		utils.SendNotFound(c, "No role assignment for this player and season")
		return
	}

	h.cache.SetRole(ctx, id, assignment)
	c.JSON(http.StatusOK, assignment)
}

// GetSimilar returns the neighbor list for a player-season.
func (h *ProfileHandler) GetSimilar(c *gin.Context) {
	playerID, seasonID, ok := h.playerSeason(c)
	if !ok {
		return
	}
	position := c.Query("position")

	k := 0
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.SendValidationError(c, "k must be a non-negative integer")
			return
		}
		k = parsed
	}

	ctx := c.Request.Context()
	id := string(types.NewPlayerSeasonID(playerID, seasonID))

	group, resolved := h.service.ResolveGroup(ctx, playerID, seasonID, position)
	if resolved {
		if payload, hit := h.cache.GetSimilar(ctx, group, id, k); hit {
			c.JSON(http.StatusOK, payload)
			return
		}
	}

	payload, err := h.service.SimilarPlayers(ctx, playerID, seasonID, k, position)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"player_id": playerID,
			"season_id": seasonID,
		}).Error("Failed to find similar players")
		utils.SendInternalError(c, "Failed to find similar players")
		return
	}
	if payload == nil {
		utils.SendNotFound(c, "No similarity data for this player and season")
		return
	}

	h.cache.SetSimilar(ctx, payload.Group, id, k, payload)
	c.JSON(http.StatusOK, payload)
}

// GetPerformance returns the performance profile for a player-season.
func (h *ProfileHandler) GetPerformance(c *gin.Context) {
	playerID, seasonID, ok := h.playerSeason(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	id := string(types.NewPlayerSeasonID(playerID, seasonID))

	if payload, hit := h.cache.GetPerformance(ctx, id); hit {
		c.JSON(http.StatusOK, payload)
		return
	}

	payload, err := h.service.PerformanceProfile(ctx, playerID, seasonID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"player_id": playerID,
			"season_id": seasonID,
		}).Error("Failed to build performance profile")
		utils.SendInternalError(c, "Failed to build performance profile")
		return
	}
	if payload == nil {
		utils.SendNotFound(c, "No performance data for this player and season")
		return
	}

	h.cache.SetPerformance(ctx, id, payload)
	c.JSON(http.StatusOK, payload)
}

// playerSeason parses the player id path param and the season_id query
// param, writing a 400 and returning ok=false on malformed input.
func (h *ProfileHandler) playerSeason(c *gin.Context) (int64, int, bool) {
	playerID, err := strconv.ParseInt(c.Param("player_id"), 10, 64)
	if err != nil || playerID <= 0 {
		utils.SendValidationError(c, "player_id must be a positive integer")
		return 0, 0, false
	}

	seasonID := h.defaultSeasonID
	if raw := c.Query("season_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			utils.SendValidationError(c, "season_id must be a positive integer")
			return 0, 0, false
		}
		seasonID = parsed
	}

	return playerID, seasonID, true
}
