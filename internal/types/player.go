package types

import (
	"fmt"
	"strconv"
	"strings"
)

// PlayerSeasonID is the composite key used throughout the artifact layer:
// one player's aggregated statistics for one competition season, encoded
// as "{player_id}_{season_id}".
type PlayerSeasonID string

// NewPlayerSeasonID builds the composite key from its parts.
func NewPlayerSeasonID(playerID int64, seasonID int) PlayerSeasonID {
	return PlayerSeasonID(fmt.Sprintf("%d_%d", playerID, seasonID))
}

func (id PlayerSeasonID) String() string {
	return string(id)
}

// Parse splits the key back into player and season ids.
func (id PlayerSeasonID) Parse() (playerID int64, seasonID int, err error) {
	parts := strings.SplitN(string(id), "_", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid player season id %q", string(id))
	}
	playerID, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid player id in %q: %w", string(id), err)
	}
	seasonID, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid season id in %q: %w", string(id), err)
	}
	return playerID, seasonID, nil
}

// SeasonIDs maps competition season labels to the upstream provider's
// season ids.
var SeasonIDs = map[string]int{
	"2024/25": 317,
	"2023/24": 281,
	"2022/23": 235,
	"2021/22": 108,
}

var seasonLabels = func() map[int]string {
	m := make(map[int]string, len(SeasonIDs))
	for label, id := range SeasonIDs {
		m[id] = label
	}
	return m
}()

// SeasonLabel returns the display label for a season id, or "" when the
// id is unknown.
func SeasonLabel(seasonID int) string {
	return seasonLabels[seasonID]
}

// SeasonID returns the provider id for a season label.
func SeasonID(label string) (int, bool) {
	id, ok := SeasonIDs[label]
	return id, ok
}
