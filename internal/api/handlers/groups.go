package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Eugenia148/ISAC2025/internal/profile"
	"github.com/Eugenia148/ISAC2025/internal/types"
	"github.com/Eugenia148/ISAC2025/pkg/utils"
)

// GroupHandler serves the per-group metadata endpoints.
type GroupHandler struct {
	service *profile.Service
}

// NewGroupHandler creates the group endpoints handler.
func NewGroupHandler(service *profile.Service) *GroupHandler {
	return &GroupHandler{service: service}
}

// GetAxes returns the axis definitions for a position group.
func (h *GroupHandler) GetAxes(c *gin.Context) {
	group, ok := h.parseGroup(c)
	if !ok {
		return
	}

	axes, ok := h.service.Axes(group)
	if !ok {
		utils.SendNotFound(c, "Unknown position group")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"position_group": group,
		"axes":           axes,
	})
}

// GetLeagueReference returns the league comparison line for a group.
func (h *GroupHandler) GetLeagueReference(c *gin.Context) {
	group, ok := h.parseGroup(c)
	if !ok {
		return
	}

	ref, ok := h.service.LeagueReference(group)
	if !ok {
		utils.SendNotFound(c, "Unknown position group")
		return
	}
	if ref == nil {
		utils.SendNotFound(c, "No league reference for this position group")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"position_group":   group,
		"league_reference": ref,
	})
}

func (h *GroupHandler) parseGroup(c *gin.Context) (types.PositionGroup, bool) {
	group, ok := types.ParseGroup(c.Param("group"))
	if !ok {
		utils.SendNotFound(c, "Unknown position group")
		return "", false
	}
	return group, true
}
