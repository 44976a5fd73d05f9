package builder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/Eugenia148/ISAC2025/internal/artifacts"
	"github.com/Eugenia148/ISAC2025/internal/normalize"
	"github.com/Eugenia148/ISAC2025/internal/similarity"
	"github.com/Eugenia148/ISAC2025/internal/types"
)

// Input file names under the inputs directory. Tactical ability tables
// and the striker model outputs mirror the artifact names, since they are
// precomputed upstream and pass through the builder.
const (
	inputAbilityScores = "ability_scores.csv"
	inputStyleVectors  = "player_style_vectors.csv"
	inputClusterProbs  = "player_cluster_probs.csv"
	inputPerfRaw       = "performance_raw_metrics.csv"
)

// zScoreClip bounds standardized scores so a single outlier season cannot
// dominate display scaling.
const zScoreClip = 2.5

// ProgressFunc receives per-stage build progress in [0,1].
type ProgressFunc func(stage string, progress float64, message string)

// Builder turns raw input tables into the on-disk artifact layout:
// minutes filtering, the normalization transforms, league references,
// axis ranges, z-score parameters and neighbor tables. All writes are
// atomic so a crashed build never leaves a torn artifact behind.
type Builder struct {
	inputsDir string
	outDir    string
	logger    *logrus.Logger
	progress  ProgressFunc
}

// New creates a builder reading raw inputs from inputsDir and writing
// artifacts under outDir.
func New(inputsDir, outDir string, logger *logrus.Logger) *Builder {
	return &Builder{
		inputsDir: inputsDir,
		outDir:    outDir,
		logger:    logger,
	}
}

// OnProgress registers a progress callback, replacing any previous one.
func (b *Builder) OnProgress(fn ProgressFunc) {
	b.progress = fn
}

func (b *Builder) emit(stage string, progress float64, message string) {
	b.logger.WithFields(logrus.Fields{
		"component": "builder",
		"stage":     stage,
		"progress":  progress,
	}).Info(message)
	if b.progress != nil {
		b.progress(stage, progress, message)
	}
}

// BuildAll builds every artifact family. Component failures do not stop
// the remaining builds; all failures are joined into the returned error.
func (b *Builder) BuildAll(ctx context.Context) error {
	started := time.Now()
	var errs []error

	steps := len(types.AllGroups) + 2
	for i, group := range types.AllGroups {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.emit("tactical:"+string(group), float64(i)/float64(steps), fmt.Sprintf("Building %s tactical artifacts", group))
		if err := b.BuildTactical(group); err != nil {
			errs = append(errs, fmt.Errorf("tactical %s: %w", group, err))
			b.logger.WithError(err).WithField("group", group).Error("Tactical build failed")
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	b.emit("striker_roles", float64(steps-2)/float64(steps), "Building striker role artifacts")
	if err := b.BuildStrikerRoles(); err != nil {
		errs = append(errs, fmt.Errorf("striker roles: %w", err))
		b.logger.WithError(err).Error("Striker role build failed")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	b.emit("performance", float64(steps-1)/float64(steps), "Building performance artifacts")
	if err := b.BuildPerformance(); err != nil {
		errs = append(errs, fmt.Errorf("performance: %w", err))
		b.logger.WithError(err).Error("Performance build failed")
	}

	if len(errs) == 0 {
		b.emit("done", 1.0, fmt.Sprintf("Artifact build completed in %s", time.Since(started).Round(time.Millisecond)))
	}
	return errors.Join(errs...)
}

// BuildTactical builds one position group's artifact set: filters the
// cohort by minutes, computes percentile, z-score and L2 representations,
// axis ranges, the league reference, and (for Euclidean groups) the
// neighbor table over L2 vectors.
func (b *Builder) BuildTactical(group types.PositionGroup) error {
	spec, ok := types.Spec(group)
	if !ok {
		return fmt.Errorf("unknown position group %q", group)
	}
	entry := b.logger.WithFields(logrus.Fields{"component": "builder", "group": group})

	input, err := artifacts.ReadTable(filepath.Join(b.inputsDir, spec.ArtifactDir, inputAbilityScores))
	if err != nil {
		return err
	}
	if input.Len() == 0 {
		return fmt.Errorf("no input rows in %s", filepath.Join(spec.ArtifactDir, inputAbilityScores))
	}

	cohort := input.FilterMinutes(spec.MinutesThreshold)
	if cohort.Len() == 0 {
		return fmt.Errorf("no rows at or above %.0f minutes", spec.MinutesThreshold)
	}
	entry.WithFields(logrus.Fields{"input_rows": input.Len(), "cohort_rows": cohort.Len()}).Info("Cohort admitted")

	aligned := alignColumns(cohort, spec.AxisKeys, entry)
	raw := aligned.Matrix()
	pct := normalize.Percentiles(raw)

	outDir := filepath.Join(b.outDir, spec.ArtifactDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	cfg := artifacts.SetConfig{
		PositionGroup:    group,
		Metric:           spec.Metric,
		TopK:             types.DefaultNeighborsK,
		MinutesThreshold: spec.MinutesThreshold,
		Representations:  spec.Representations,
		Axes:             spec.AxisKeys,
		GeneratedAt:      time.Now().UTC(),
	}
	if spec.Metric == types.MetricEuclidean {
		cfg.SimilarityMap = artifacts.SimilarityMapInverseDistance
	}
	if err := artifacts.WriteJSON(filepath.Join(outDir, "config.json"), cfg); err != nil {
		return err
	}
	if err := artifacts.WriteJSON(filepath.Join(outDir, "ability_axes.json"), tacticalAxes[group]); err != nil {
		return err
	}
	if err := artifacts.WriteTable(filepath.Join(outDir, "ability_scores.csv"), aligned); err != nil {
		return err
	}

	pctTable, err := aligned.WithValues(spec.AxisKeys, pct)
	if err != nil {
		return err
	}
	if err := artifacts.WriteTable(filepath.Join(outDir, "ability_percentiles.csv"), pctTable); err != nil {
		return err
	}

	var l2 *mat.Dense
	if spec.HasRepresentation(types.ReprZScore) {
		partitions := seasonPartitions(aligned)
		zScores, params := normalize.ZScores(raw, partitions, zScoreClip)
		zTable, err := aligned.WithValues(spec.AxisKeys, zScores)
		if err != nil {
			return err
		}
		if err := artifacts.WriteTable(filepath.Join(outDir, "ability_scores_zscore.csv"), zTable); err != nil {
			return err
		}
		if err := artifacts.WriteJSON(filepath.Join(outDir, "zscore_params.json"), zScoreParamsByAxis(params, spec.AxisKeys)); err != nil {
			return err
		}
	}
	if spec.HasRepresentation(types.ReprL2) {
		l2 = normalize.L2Normalize(raw)
		l2Table, err := aligned.WithValues(spec.AxisKeys, l2)
		if err != nil {
			return err
		}
		if err := artifacts.WriteTable(filepath.Join(outDir, "ability_scores_l2.csv"), l2Table); err != nil {
			return err
		}
	}

	if err := artifacts.WriteJSON(filepath.Join(outDir, "axis_ranges.json"), axisRanges(raw, spec.AxisKeys)); err != nil {
		return err
	}
	if err := artifacts.WriteJSON(filepath.Join(outDir, "league_reference.json"), leagueReference(group, raw, pct, spec.AxisKeys)); err != nil {
		return err
	}

	// Striker similarity lives in the clustered role space and is built
	// with the role artifacts; only Euclidean groups get a neighbor
	// table here.
	if spec.Metric == types.MetricEuclidean && l2 != nil {
		edges, err := similarity.Build(l2, aligned.IDs(), types.MetricEuclidean, cfg.TopK)
		if err != nil {
			return err
		}
		if err := artifacts.WriteNeighbors(filepath.Join(outDir, "player_neighbors.csv"), edges); err != nil {
			return err
		}
		entry.WithField("edges", len(edges)).Info("Neighbor table built")
	}

	return nil
}

// BuildStrikerRoles copies the striker model's per-season style vectors
// and cluster posteriors through to the artifact layout and builds the
// global cosine neighbor table over all seasons' style vectors.
func (b *Builder) BuildStrikerRoles() error {
	inDir := filepath.Join(b.inputsDir, artifacts.StrikerRolesDirName)
	entry := b.logger.WithFields(logrus.Fields{"component": "builder", "stage": "striker_roles"})

	cfg := artifacts.RolesConfig{
		ClusterToRole:    defaultClusterToRole,
		RoleDescriptions: defaultRoleDescriptions,
		MinutesThreshold: 500,
		NComponentsPCA:   6,
		NClustersGMM:     3,
		TopKNeighbors:    types.DefaultNeighborsK,
	}
	var inputCfg artifacts.RolesConfig
	if err := artifacts.ReadJSON(filepath.Join(inDir, "config.json"), &inputCfg); err == nil && len(inputCfg.ClusterToRole) > 0 {
		cfg = inputCfg
		if cfg.TopKNeighbors <= 0 {
			cfg.TopKNeighbors = types.DefaultNeighborsK
		}
	}

	dirEntries, err := os.ReadDir(inDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", inDir, err)
	}

	outDir := filepath.Join(b.outDir, artifacts.StrikerRolesDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	var basis *artifacts.Table
	seasons := 0
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(dirEntry.Name()); err != nil {
			continue
		}
		seasonIn := filepath.Join(inDir, dirEntry.Name())
		vectors, err := artifacts.ReadTable(filepath.Join(seasonIn, inputStyleVectors))
		if err != nil {
			return err
		}
		probs, err := artifacts.ReadTable(filepath.Join(seasonIn, inputClusterProbs))
		if err != nil {
			return err
		}
		if vectors.Len() == 0 && probs.Len() == 0 {
			continue
		}

		seasonOut := filepath.Join(outDir, dirEntry.Name())
		if err := os.MkdirAll(seasonOut, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", seasonOut, err)
		}
		if err := artifacts.WriteTable(filepath.Join(seasonOut, inputStyleVectors), vectors); err != nil {
			return err
		}
		if err := artifacts.WriteTable(filepath.Join(seasonOut, inputClusterProbs), probs); err != nil {
			return err
		}
		seasons++

		eligible := vectors.FilterMinutes(cfg.MinutesThreshold)
		if eligible.Len() == 0 {
			continue
		}
		if basis == nil {
			basis = artifacts.NewTable(eligible.Columns)
		} else if !sameColumns(basis.Columns, eligible.Columns) {
			entry.WithField("season", dirEntry.Name()).Warn("Style vector columns differ, season excluded from neighbor basis")
			continue
		}
		for _, row := range eligible.Rows() {
			basis.Append(row)
		}
	}
	if seasons == 0 {
		return fmt.Errorf("no season directories under %s", inDir)
	}

	if err := artifacts.WriteJSON(filepath.Join(outDir, "config.json"), cfg); err != nil {
		return err
	}

	if basis != nil && basis.Len() > 1 {
		edges, err := similarity.Build(basis.Matrix(), basis.IDs(), types.MetricCosine, cfg.TopKNeighbors)
		if err != nil {
			return err
		}
		if err := artifacts.WriteNeighbors(filepath.Join(outDir, "player_neighbors.csv"), edges); err != nil {
			return err
		}
		entry.WithFields(logrus.Fields{"seasons": seasons, "anchors": basis.Len(), "edges": len(edges)}).Info("Striker neighbor table built")
	} else {
		entry.Warn("Too few style vectors for a neighbor table")
	}
	return nil
}

// BuildPerformance builds the performance artifact family for the
// reference season: metric percentiles, axis scores, league benchmarks
// and per-metric min/max.
func (b *Builder) BuildPerformance() error {
	inDir := filepath.Join(b.inputsDir, artifacts.PerformanceDirName)
	entry := b.logger.WithFields(logrus.Fields{"component": "builder", "stage": "performance"})

	cfg := artifacts.PerformanceConfig{
		MinutesThreshold: 600,
		Season:           "2024/25",
		SeasonID:         317,
	}
	var inputCfg artifacts.PerformanceConfig
	if err := artifacts.ReadJSON(filepath.Join(inDir, "performance_config.json"), &inputCfg); err == nil && inputCfg.SeasonID != 0 {
		cfg = inputCfg
	}

	input, err := artifacts.ReadTable(filepath.Join(inDir, inputPerfRaw))
	if err != nil {
		return err
	}
	if input.Len() == 0 {
		return fmt.Errorf("no input rows in %s", filepath.Join(artifacts.PerformanceDirName, inputPerfRaw))
	}

	cohort := input.FilterMinutes(cfg.MinutesThreshold)
	if cohort.Len() == 0 {
		return fmt.Errorf("no rows at or above %.0f minutes", cfg.MinutesThreshold)
	}
	entry.WithFields(logrus.Fields{"input_rows": input.Len(), "cohort_rows": cohort.Len()}).Info("Cohort admitted")

	metricKeys := performanceMetricKeys()
	aligned := alignColumns(cohort, metricKeys, entry)
	raw := aligned.Matrix()
	pct := normalize.Percentiles(raw)

	colIndex := make(map[string]int, len(metricKeys))
	for j, key := range metricKeys {
		colIndex[key] = j
	}
	axisMetrics := make([][]string, len(performanceAxes))
	axisKeys := make([]string, len(performanceAxes))
	for i, axis := range performanceAxes {
		axisKeys[i] = axis.Key
		for _, metric := range axis.Metrics {
			axisMetrics[i] = append(axisMetrics[i], metric.Key)
		}
	}
	axisScores := normalize.AxisScores(pct, colIndex, axisMetrics)

	outDir := filepath.Join(b.outDir, artifacts.PerformanceDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	if err := artifacts.WriteJSON(filepath.Join(outDir, "performance_config.json"), cfg); err != nil {
		return err
	}
	if err := artifacts.WriteJSON(filepath.Join(outDir, "performance_axes.json"), performanceAxes); err != nil {
		return err
	}
	if err := artifacts.WriteTable(filepath.Join(outDir, "performance_raw_metrics.csv"), aligned); err != nil {
		return err
	}
	pctTable, err := aligned.WithValues(metricKeys, pct)
	if err != nil {
		return err
	}
	if err := artifacts.WriteTable(filepath.Join(outDir, "performance_percentiles.csv"), pctTable); err != nil {
		return err
	}
	axisTable, err := aligned.WithValues(axisKeys, axisScores)
	if err != nil {
		return err
	}
	if err := artifacts.WriteTable(filepath.Join(outDir, "performance_axis_scores.csv"), axisTable); err != nil {
		return err
	}

	benchmarks := make(map[string]types.PerformanceBenchmark, len(axisKeys))
	for j, key := range axisKeys {
		col := matrixColumn(axisScores, j)
		median := normalize.Median(col)
		p80 := normalize.Quantile(0.8, col)
		if math.IsNaN(median) || math.IsNaN(p80) {
			continue
		}
		benchmarks[key] = types.PerformanceBenchmark{Median: median, P80: p80}
	}
	if err := artifacts.WriteJSON(filepath.Join(outDir, "performance_benchmarks.json"), benchmarks); err != nil {
		return err
	}

	minMax := make(map[string]types.MetricRange, len(metricKeys))
	for j, key := range metricKeys {
		r := normalize.ColumnRange(matrixColumn(raw, j))
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
			continue
		}
		minMax[key] = types.MetricRange{Min: r.Min, Max: r.Max}
	}
	if err := artifacts.WriteJSON(filepath.Join(outDir, "performance_minmax.json"), minMax); err != nil {
		return err
	}

	entry.WithField("rows", aligned.Len()).Info("Performance artifacts built")
	return nil
}

// alignColumns reorders a table's value columns into canonical order,
// filling missing columns with NaN.
func alignColumns(t *artifacts.Table, columns []string, entry *logrus.Entry) *artifacts.Table {
	idx := make(map[string]int, len(t.Columns))
	for j, col := range t.Columns {
		idx[col] = j
	}
	for _, col := range columns {
		if _, ok := idx[col]; !ok {
			entry.WithField("column", col).Warn("Input column missing, values will be NaN")
		}
	}

	out := artifacts.NewTable(columns)
	for _, row := range t.Rows() {
		values := make([]float64, len(columns))
		for j, col := range columns {
			src, ok := idx[col]
			if ok && src < len(row.Values) {
				values[j] = row.Values[src]
			} else {
				values[j] = math.NaN()
			}
		}
		out.Append(&artifacts.Row{
			ID:         row.ID,
			PlayerID:   row.PlayerID,
			SeasonID:   row.SeasonID,
			PlayerName: row.PlayerName,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			Minutes:    row.Minutes,
			Values:     values,
		})
	}
	return out
}

func seasonPartitions(t *artifacts.Table) []string {
	partitions := make([]string, 0, t.Len())
	for _, row := range t.Rows() {
		partitions = append(partitions, strconv.Itoa(row.SeasonID))
	}
	return partitions
}

// zScoreParamsByAxis reshapes the per-partition parameter slices into the
// season->axis->params layout persisted in zscore_params.json.
func zScoreParamsByAxis(params map[string][]types.ZScoreParams, axes []string) map[string]map[string]types.ZScoreParams {
	out := make(map[string]map[string]types.ZScoreParams, len(params))
	for season, perAxis := range params {
		byAxis := make(map[string]types.ZScoreParams, len(axes))
		for j, axis := range axes {
			if j >= len(perAxis) {
				break
			}
			p := perAxis[j]
			if math.IsNaN(p.Mean) || math.IsNaN(p.Std) {
				continue
			}
			byAxis[axis] = p
		}
		out[season] = byAxis
	}
	return out
}

func axisRanges(raw *mat.Dense, axes []string) map[string]types.AxisRange {
	out := make(map[string]types.AxisRange, len(axes))
	for j, axis := range axes {
		r := normalize.ColumnRange(matrixColumn(raw, j))
		if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsNaN(r.Mean) || math.IsNaN(r.Std) {
			continue
		}
		out[axis] = r
	}
	return out
}

// leagueReference computes the group's league comparison line: the median
// percentile per axis for the named-axis groups, the raw mean for the
// PCA-component groups.
func leagueReference(group types.PositionGroup, raw, pct *mat.Dense, axes []string) types.LeagueReference {
	ref := types.LeagueReference{Values: make(map[string]float64, len(axes))}
	switch group {
	case types.PositionGroupStriker, types.PositionGroupCenterBack:
		ref.Basis = types.LeagueBasisPercentileMedian
		for j, axis := range axes {
			v := normalize.Median(matrixColumn(pct, j))
			if !math.IsNaN(v) {
				ref.Values[axis] = v
			}
		}
	default:
		ref.Basis = types.LeagueBasisRawMean
		for j, axis := range axes {
			v := normalize.NaNMean(matrixColumn(raw, j))
			if !math.IsNaN(v) {
				ref.Values[axis] = v
			}
		}
	}
	return ref
}

func matrixColumn(m *mat.Dense, j int) []float64 {
	r, _ := m.Dims()
	col := make([]float64, r)
	mat.Col(col, j, m)
	return col
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
