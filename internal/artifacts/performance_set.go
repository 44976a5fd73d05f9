package artifacts

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

const (
	filePerfConfig      = "performance_config.json"
	filePerfAxes        = "performance_axes.json"
	filePerfRawMetrics  = "performance_raw_metrics.csv"
	filePerfPercentiles = "performance_percentiles.csv"
	filePerfAxisScores  = "performance_axis_scores.csv"
	filePerfBenchmarks  = "performance_benchmarks.json"
	filePerfMinMax      = "performance_minmax.json"
)

// PerformanceConfig mirrors the performance set's config.json.
type PerformanceConfig struct {
	MinutesThreshold float64 `json:"minutes_threshold"`
	Season           string  `json:"season"`
	SeasonID         int     `json:"season_id"`
}

// PerformanceSet holds the performance profile artifacts for the single
// reference season: raw metric values, their percentiles, the aggregated
// axis scores, and league benchmarks.
type PerformanceSet struct {
	Config      PerformanceConfig
	Axes        []types.AbilityAxis
	RawMetrics  *Table
	Percentiles *Table
	AxisScores  *Table
	Benchmarks  map[string]types.PerformanceBenchmark
	MinMax      map[string]types.MetricRange
}

// LoadPerformanceSet loads the performance artifacts from dir, degrading
// missing pieces to empty structures.
func LoadPerformanceSet(dir string, log *logrus.Logger) *PerformanceSet {
	entry := log.WithFields(logrus.Fields{"component": "artifacts", "dir": dir})

	set := &PerformanceSet{
		Benchmarks: make(map[string]types.PerformanceBenchmark),
		MinMax:     make(map[string]types.MetricRange),
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		entry.Warn("Performance artifacts missing, performance profiles disabled")
		set.RawMetrics = NewTable(nil)
		set.Percentiles = NewTable(nil)
		set.AxisScores = NewTable(nil)
		return set
	}

	if err := ReadJSON(filepath.Join(dir, filePerfConfig), &set.Config); err != nil {
		entry.WithError(err).Warn("Performance config unreadable, using defaults")
	}
	if err := ReadJSON(filepath.Join(dir, filePerfAxes), &set.Axes); err != nil {
		entry.WithError(err).Warn("Performance axis definitions unreadable")
	}
	if err := ReadJSON(filepath.Join(dir, filePerfBenchmarks), &set.Benchmarks); err != nil {
		set.Benchmarks = make(map[string]types.PerformanceBenchmark)
	}
	if err := ReadJSON(filepath.Join(dir, filePerfMinMax), &set.MinMax); err != nil {
		set.MinMax = make(map[string]types.MetricRange)
	}

	set.RawMetrics = loadTable(filepath.Join(dir, filePerfRawMetrics), entry)
	set.Percentiles = loadTable(filepath.Join(dir, filePerfPercentiles), entry)
	set.AxisScores = loadTable(filepath.Join(dir, filePerfAxisScores), entry)

	entry.WithFields(logrus.Fields{
		"rows":   set.AxisScores.Len(),
		"season": set.Config.Season,
	}).Info("Loaded performance artifact set")
	return set
}

// Covers reports whether the player-season has a performance row.
func (s *PerformanceSet) Covers(id string) bool {
	if _, ok := s.AxisScores.Lookup(id); ok {
		return true
	}
	_, ok := s.Percentiles.Lookup(id)
	return ok
}

// Identity returns identity fields for a covered player-season.
func (s *PerformanceSet) Identity(id string) (*Row, bool) {
	if row, ok := s.AxisScores.Lookup(id); ok {
		return row, true
	}
	if row, ok := s.Percentiles.Lookup(id); ok {
		return row, true
	}
	return s.RawMetrics.Lookup(id)
}
