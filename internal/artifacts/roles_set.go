package artifacts

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/similarity"
	"github.com/Eugenia148/ISAC2025/internal/types"
)

const (
	fileStyleVectors = "player_style_vectors.csv"
	fileClusterProbs = "player_cluster_probs.csv"
)

// RolesConfig mirrors the striker role model's config.json. Cluster keys
// arrive as JSON strings and are converted on demand.
type RolesConfig struct {
	ClusterToRole    map[string]string `json:"cluster_to_role"`
	RoleDescriptions map[string]string `json:"role_descriptions"`
	MinutesThreshold float64           `json:"minutes_threshold"`
	NComponentsPCA   int               `json:"n_components_pca"`
	NClustersGMM     int               `json:"n_clusters_gmm"`
	TopKNeighbors    int               `json:"top_k_neighbors"`
}

// ClusterRoleMap converts the string-keyed cluster mapping to int keys,
// dropping keys that do not parse.
func (c RolesConfig) ClusterRoleMap() map[int]string {
	out := make(map[int]string, len(c.ClusterToRole))
	for key, role := range c.ClusterToRole {
		cluster, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[cluster] = role
	}
	return out
}

// SeasonArtifacts bundles one season's striker role tables.
type SeasonArtifacts struct {
	SeasonID     int
	StyleVectors *Table
	ClusterProbs *Table
}

// StrikerRoles holds the striker role model's artifacts: per-season style
// vectors and cluster posteriors, plus one cross-season neighbor table.
type StrikerRoles struct {
	Config    RolesConfig
	Seasons   map[int]*SeasonArtifacts
	Neighbors *similarity.Table
}

// LoadStrikerRoles loads the striker role artifacts from dir. Seasons are
// discovered as numerically named subdirectories. Missing pieces degrade
// with warnings.
func LoadStrikerRoles(dir string, log *logrus.Logger) *StrikerRoles {
	entry := log.WithFields(logrus.Fields{"component": "artifacts", "dir": dir})

	roles := &StrikerRoles{
		Seasons: make(map[int]*SeasonArtifacts),
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		entry.Warn("Striker role artifacts missing, role assignment disabled")
		roles.Neighbors = similarity.NewTable(types.MetricCosine, nil)
		return roles
	}

	if err := ReadJSON(filepath.Join(dir, fileConfig), &roles.Config); err != nil {
		entry.WithError(err).Warn("Role config unreadable, using defaults")
	}
	if roles.Config.TopKNeighbors <= 0 {
		roles.Config.TopKNeighbors = types.DefaultNeighborsK
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		entry.WithError(err).Warn("Failed to scan striker role directory")
		entries = nil
	}
	for _, dirEntry := range entries {
		if !dirEntry.IsDir() {
			continue
		}
		seasonID, err := strconv.Atoi(dirEntry.Name())
		if err != nil {
			continue
		}
		seasonDir := filepath.Join(dir, dirEntry.Name())
		season := &SeasonArtifacts{
			SeasonID:     seasonID,
			StyleVectors: loadTable(filepath.Join(seasonDir, fileStyleVectors), entry),
			ClusterProbs: loadTable(filepath.Join(seasonDir, fileClusterProbs), entry),
		}
		roles.Seasons[seasonID] = season
	}

	edges, err := ReadNeighbors(filepath.Join(dir, fileNeighbors))
	if err != nil {
		entry.WithError(err).Warn("Striker neighbor table unreadable")
	}
	roles.Neighbors = similarity.NewTable(types.MetricCosine, edges)

	entry.WithFields(logrus.Fields{
		"seasons":   len(roles.Seasons),
		"neighbors": roles.Neighbors.Len(),
	}).Info("Loaded striker role artifacts")
	return roles
}

// Season returns one season's artifacts, or nil when absent.
func (r *StrikerRoles) Season(seasonID int) *SeasonArtifacts {
	if r == nil {
		return nil
	}
	return r.Seasons[seasonID]
}

// Posteriors returns a player-season's cluster posterior vector keyed by
// cluster index, parsed from cluster_N columns. Nil when the player is
// not covered by the role model.
func (r *StrikerRoles) Posteriors(playerID int64, seasonID int) map[int]float64 {
	season := r.Season(seasonID)
	if season == nil {
		return nil
	}
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	row, ok := season.ClusterProbs.Lookup(id)
	if !ok {
		return nil
	}
	posteriors := make(map[int]float64)
	for j, col := range season.ClusterProbs.Columns {
		if !strings.HasPrefix(col, "cluster_") {
			continue
		}
		cluster, err := strconv.Atoi(strings.TrimPrefix(col, "cluster_"))
		if err != nil {
			continue
		}
		if j < len(row.Values) {
			posteriors[cluster] = row.Values[j]
		}
	}
	if len(posteriors) == 0 {
		return nil
	}
	return posteriors
}

// StyleRow returns a player-season's style-vector row, used for neighbor
// identity lookups across seasons.
func (r *StrikerRoles) StyleRow(id string) (*Row, bool) {
	if r == nil {
		return nil, false
	}
	playerSeason := types.PlayerSeasonID(id)
	if _, seasonID, err := playerSeason.Parse(); err == nil {
		if season := r.Season(seasonID); season != nil {
			if row, ok := season.StyleVectors.Lookup(id); ok {
				return row, true
			}
		}
	}
	for _, season := range r.Seasons {
		if row, ok := season.StyleVectors.Lookup(id); ok {
			return row, true
		}
	}
	return nil, false
}

// Covers reports whether the striker role model covers the player-season.
func (r *StrikerRoles) Covers(playerID int64, seasonID int) bool {
	season := r.Season(seasonID)
	if season == nil {
		return false
	}
	id := string(types.NewPlayerSeasonID(playerID, seasonID))
	_, ok := season.StyleVectors.Lookup(id)
	if !ok {
		_, ok = season.ClusterProbs.Lookup(id)
	}
	return ok
}
