package artifacts

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/similarity"
	"github.com/Eugenia148/ISAC2025/internal/types"
)

// Artifact file names within a position-group directory.
const (
	fileConfig       = "config.json"
	fileAxes         = "ability_axes.json"
	fileScores       = "ability_scores.csv"
	filePercentiles  = "ability_percentiles.csv"
	fileZScores      = "ability_scores_zscore.csv"
	fileL2           = "ability_scores_l2.csv"
	fileRanges       = "axis_ranges.json"
	fileLeagueRef    = "league_reference.json"
	fileZScoreParams = "zscore_params.json"
	fileNeighbors    = "player_neighbors.csv"
)

// SimilarityMapInverseDistance names the distance-to-similarity transform
// used by euclidean groups: score = 1 / (1 + distance).
const SimilarityMapInverseDistance = "inverse_distance"

// SetConfig describes how a tactical artifact set was produced.
type SetConfig struct {
	PositionGroup    types.PositionGroup    `json:"position_group"`
	Metric           types.SimilarityMetric `json:"metric"`
	SimilarityMap    string                 `json:"similarity_map,omitempty"`
	TopK             int                    `json:"top_k"`
	MinutesThreshold float64                `json:"minutes_threshold"`
	Representations  []types.Representation `json:"representations"`
	Axes             []string               `json:"axes"`
	GeneratedAt      time.Time              `json:"generated_at,omitempty"`
}

// DefaultSetConfig derives a config from the built-in group definition,
// used when a set ships without config.json.
func DefaultSetConfig(group types.PositionGroup) SetConfig {
	cfg := SetConfig{
		PositionGroup: group,
		Metric:        types.MetricCosine,
		TopK:          types.DefaultNeighborsK,
	}
	if spec, ok := types.Spec(group); ok {
		cfg.Metric = spec.Metric
		cfg.MinutesThreshold = spec.MinutesThreshold
		cfg.Representations = spec.Representations
		cfg.Axes = spec.AxisKeys
		if spec.Metric == types.MetricEuclidean {
			cfg.SimilarityMap = SimilarityMapInverseDistance
		}
	}
	return cfg
}

// TacticalSet holds every loaded artifact of one position group. All
// tables may be empty when files are missing; readers treat an empty
// table as "player not covered".
type TacticalSet struct {
	Group       types.PositionGroup
	Config      SetConfig
	Axes        []types.AbilityAxis
	Scores      *Table
	Percentiles *Table
	ZScores     *Table
	L2          *Table
	AxisRanges  map[string]types.AxisRange
	LeagueRef   *types.LeagueReference
	ZParams     map[string]map[string]types.ZScoreParams
	Neighbors   *similarity.Table
}

// LoadTacticalSet loads one position group's artifacts from dir. Missing
// or malformed files degrade to empty structures with a warning; the set
// itself is always returned.
func LoadTacticalSet(dir string, group types.PositionGroup, log *logrus.Logger) *TacticalSet {
	entry := log.WithFields(logrus.Fields{"component": "artifacts", "group": group, "dir": dir})

	set := &TacticalSet{
		Group:      group,
		Config:     DefaultSetConfig(group),
		AxisRanges: make(map[string]types.AxisRange),
		ZParams:    make(map[string]map[string]types.ZScoreParams),
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		entry.Warn("Artifact directory missing, serving empty set")
		set.Scores = NewTable(nil)
		set.Percentiles = NewTable(nil)
		set.ZScores = NewTable(nil)
		set.L2 = NewTable(nil)
		set.Neighbors = similarity.NewTable(set.Config.Metric, nil)
		return set
	}

	var cfg SetConfig
	if err := ReadJSON(filepath.Join(dir, fileConfig), &cfg); err != nil {
		entry.WithError(err).Warn("Set config unreadable, using group defaults")
	} else if cfg.Metric != "" {
		set.Config = cfg
	}

	if err := ReadJSON(filepath.Join(dir, fileAxes), &set.Axes); err != nil {
		entry.WithError(err).Warn("Axis definitions unreadable")
	}
	if err := ReadJSON(filepath.Join(dir, fileRanges), &set.AxisRanges); err != nil {
		entry.WithError(err).Debug("Axis ranges unavailable")
		set.AxisRanges = make(map[string]types.AxisRange)
	}
	var leagueRef types.LeagueReference
	if err := ReadJSON(filepath.Join(dir, fileLeagueRef), &leagueRef); err == nil && len(leagueRef.Values) > 0 {
		set.LeagueRef = &leagueRef
	}
	if err := ReadJSON(filepath.Join(dir, fileZScoreParams), &set.ZParams); err != nil {
		set.ZParams = make(map[string]map[string]types.ZScoreParams)
	}

	set.Scores = loadTable(filepath.Join(dir, fileScores), entry)
	set.Percentiles = loadTable(filepath.Join(dir, filePercentiles), entry)
	if set.hasRepresentation(types.ReprZScore) {
		set.ZScores = loadTable(filepath.Join(dir, fileZScores), entry)
	} else {
		set.ZScores = NewTable(nil)
	}
	if set.hasRepresentation(types.ReprL2) {
		set.L2 = loadTable(filepath.Join(dir, fileL2), entry)
	} else {
		set.L2 = NewTable(nil)
	}

	edges, err := ReadNeighbors(filepath.Join(dir, fileNeighbors))
	if err != nil {
		entry.WithError(err).Warn("Neighbor table unreadable, similarity disabled for group")
	}
	set.Neighbors = similarity.NewTable(set.Config.Metric, edges)

	entry.WithFields(logrus.Fields{
		"rows":      set.Scores.Len(),
		"neighbors": set.Neighbors.Len(),
		"metric":    set.Config.Metric,
	}).Info("Loaded tactical artifact set")
	return set
}

func loadTable(path string, entry *logrus.Entry) *Table {
	table, err := ReadTable(path)
	if err != nil {
		entry.WithError(err).WithField("file", filepath.Base(path)).Warn("Artifact table unreadable, serving empty table")
		return NewTable(nil)
	}
	return table
}

func (s *TacticalSet) hasRepresentation(r types.Representation) bool {
	for _, have := range s.Config.Representations {
		if have == r {
			return true
		}
	}
	return false
}

// Covers reports whether the player-season appears in this set, i.e. has
// at least a raw or percentile row.
func (s *TacticalSet) Covers(id string) bool {
	if _, ok := s.Scores.Lookup(id); ok {
		return true
	}
	_, ok := s.Percentiles.Lookup(id)
	return ok
}

// Identity returns the identity fields for a player-season, preferring
// the raw scores table.
func (s *TacticalSet) Identity(id string) (*Row, bool) {
	if row, ok := s.Scores.Lookup(id); ok {
		return row, true
	}
	return s.Percentiles.Lookup(id)
}
