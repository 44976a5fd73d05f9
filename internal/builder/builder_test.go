package builder

import (
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eugenia148/ISAC2025/internal/artifacts"
	"github.com/Eugenia148/ISAC2025/internal/types"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeInputTable(t *testing.T, path string, columns []string, rows []*artifacts.Row) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	table := artifacts.NewTable(columns)
	for _, row := range rows {
		table.Append(row)
	}
	require.NoError(t, artifacts.WriteTable(path, table))
}

func centerBackInput(t *testing.T, inputs string) {
	t.Helper()
	columns := []string{
		"Build_Up_Distribution", "Defensive_Actions", "Aerial_Dominance",
		"Aerial_Clearances", "Progressive_Passing", "Shot_Blocking_Retention",
	}
	writeInputTable(t, filepath.Join(inputs, "center_back_profile", "ability_scores.csv"), columns, []*artifacts.Row{
		{ID: "201_317", PlayerID: 201, SeasonID: 317, PlayerName: "Stone Wall", TeamName: "Granite FC", Minutes: 2000, Values: []float64{10, 5, 1, 1, 1, 1}},
		{ID: "202_317", PlayerID: 202, SeasonID: 317, PlayerName: "Left Rock", TeamName: "Granite FC", Minutes: 1500, Values: []float64{20, 6, 1, 1, 1, 1}},
		{ID: "203_281", PlayerID: 203, SeasonID: 281, PlayerName: "Old Guard", TeamName: "Marble United", Minutes: 900, Values: []float64{30, 7, 1, 1, 1, 1}},
		{ID: "204_317", PlayerID: 204, SeasonID: 317, PlayerName: "Bench Kid", TeamName: "Granite FC", Minutes: 120, Values: []float64{99, 99, 99, 99, 99, 99}},
	})
}

func TestBuildTacticalCenterBack(t *testing.T) {
	inputs, out := t.TempDir(), t.TempDir()
	centerBackInput(t, inputs)

	b := New(inputs, out, testLogger())
	require.NoError(t, b.BuildTactical(types.PositionGroupCenterBack))

	set := artifacts.LoadTacticalSet(filepath.Join(out, "center_back_profile"), types.PositionGroupCenterBack, testLogger())
	assert.Equal(t, 3, set.Scores.Len(), "row under the minutes threshold is excluded")
	assert.False(t, set.Covers("204_317"))
	assert.Equal(t, types.MetricEuclidean, set.Config.Metric)
	assert.Equal(t, artifacts.SimilarityMapInverseDistance, set.Config.SimilarityMap)
	assert.Len(t, set.Axes, 6)

	pct := set.Percentiles.ValueMap("202_317")
	require.NotNil(t, pct)
	assert.InDelta(t, 200.0/3, pct["Build_Up_Distribution"], 1e-9, "middle of three distinct values")
	assert.InDelta(t, 200.0/3, pct["Aerial_Dominance"], 1e-9, "full-column tie averages ranks")

	z := set.ZScores.ValueMap("201_317")
	require.NotNil(t, z)
	assert.InDelta(t, -1/math.Sqrt2, z["Build_Up_Distribution"], 1e-9, "standardized within the 2024/25 cohort")
	zOld := set.ZScores.ValueMap("203_281")
	require.NotNil(t, zOld)
	assert.InDelta(t, 0, zOld["Build_Up_Distribution"], 1e-9, "single-row season has zero spread")

	l2, ok := set.L2.Lookup("201_317")
	require.True(t, ok)
	norm := 0.0
	for _, v := range l2.Values {
		norm += v * v
	}
	assert.InDelta(t, 1.0, norm, 1e-9, "L2 rows are unit vectors")

	require.NotNil(t, set.LeagueRef)
	assert.Equal(t, types.LeagueBasisPercentileMedian, set.LeagueRef.Basis)
	assert.InDelta(t, 200.0/3, set.LeagueRef.Values["Build_Up_Distribution"], 1e-9)

	assert.Equal(t, 6, set.Neighbors.Len(), "three anchors with two candidates each")
	params, ok := set.ZParams["317"]
	require.True(t, ok)
	assert.InDelta(t, 15, params["Build_Up_Distribution"].Mean, 1e-9)

	ranges := set.AxisRanges["Build_Up_Distribution"]
	assert.InDelta(t, 10, ranges.Min, 1e-9)
	assert.InDelta(t, 30, ranges.Max, 1e-9)
}

func TestBuildTacticalStrikerHasNoOwnNeighbors(t *testing.T) {
	inputs, out := t.TempDir(), t.TempDir()
	columns := []string{
		"Progressive_Play", "Finishing_BoxPresence", "Pressing_WorkRate",
		"Finishing_Efficiency", "Dribbling_RiskTaking", "DecisionMaking_Balance",
	}
	writeInputTable(t, filepath.Join(inputs, "striker_profile", "ability_scores.csv"), columns, []*artifacts.Row{
		{ID: "101_317", PlayerID: 101, SeasonID: 317, PlayerName: "Target Man", Minutes: 1400, Values: []float64{1, 2, 3, 4, 5, 6}},
		{ID: "102_317", PlayerID: 102, SeasonID: 317, PlayerName: "Wide Forward", Minutes: 900, Values: []float64{6, 5, 4, 3, 2, 1}},
	})

	b := New(inputs, out, testLogger())
	require.NoError(t, b.BuildTactical(types.PositionGroupStriker))

	dir := filepath.Join(out, "striker_profile")
	_, err := os.Stat(filepath.Join(dir, "player_neighbors.csv"))
	assert.True(t, os.IsNotExist(err), "striker similarity is served from the role space")
	_, err = os.Stat(filepath.Join(dir, "ability_scores_zscore.csv"))
	assert.True(t, os.IsNotExist(err), "striker set carries raw and percentile only")
	_, err = os.Stat(filepath.Join(dir, "ability_scores_l2.csv"))
	assert.True(t, os.IsNotExist(err))

	set := artifacts.LoadTacticalSet(dir, types.PositionGroupStriker, testLogger())
	assert.Equal(t, 2, set.Scores.Len())
	assert.Equal(t, types.MetricCosine, set.Config.Metric)
	pct := set.Percentiles.ValueMap("101_317")
	assert.InDelta(t, 50, pct["Progressive_Play"], 1e-9)
	assert.InDelta(t, 100, pct["Finishing_Efficiency"], 1e-9)
}

func TestBuildTacticalMissingInput(t *testing.T) {
	b := New(t.TempDir(), t.TempDir(), testLogger())
	err := b.BuildTactical(types.PositionGroupDeepProgression)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input rows")
}

func TestBuildTacticalAllFilteredOut(t *testing.T) {
	inputs, out := t.TempDir(), t.TempDir()
	writeInputTable(t, filepath.Join(inputs, "center_back_profile", "ability_scores.csv"),
		[]string{"Build_Up_Distribution"}, []*artifacts.Row{
			{ID: "1_317", PlayerID: 1, SeasonID: 317, Minutes: 10, Values: []float64{1}},
		})
	err := New(inputs, out, testLogger()).BuildTactical(types.PositionGroupCenterBack)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minutes")
}

func rolesInput(t *testing.T, inputs string) {
	t.Helper()
	pca := []string{"pca_1", "pca_2", "pca_3", "pca_4", "pca_5", "pca_6"}
	writeInputTable(t, filepath.Join(inputs, "striker_roles", "317", "player_style_vectors.csv"), pca, []*artifacts.Row{
		{ID: "101_317", PlayerID: 101, SeasonID: 317, PlayerName: "Target Man", TeamName: "Granite FC", Minutes: 1400, Values: []float64{1, 0, 0, 0, 0, 0}},
		{ID: "102_317", PlayerID: 102, SeasonID: 317, PlayerName: "Wide Forward", TeamName: "Marble United", Minutes: 900, Values: []float64{0.9, 0.1, 0, 0, 0, 0}},
	})
	writeInputTable(t, filepath.Join(inputs, "striker_roles", "317", "player_cluster_probs.csv"),
		[]string{"cluster_0", "cluster_1", "cluster_2", "predicted_cluster"}, []*artifacts.Row{
			{ID: "101_317", PlayerID: 101, SeasonID: 317, Values: []float64{0.1, 0.15, 0.75, 2}},
			{ID: "102_317", PlayerID: 102, SeasonID: 317, Values: []float64{0.4, 0.35, 0.25, 0}},
		})
	writeInputTable(t, filepath.Join(inputs, "striker_roles", "281", "player_style_vectors.csv"), pca, []*artifacts.Row{
		{ID: "101_281", PlayerID: 101, SeasonID: 281, PlayerName: "Target Man", TeamName: "Granite FC", Minutes: 1100, Values: []float64{0.95, 0.05, 0, 0, 0, 0}},
	})
	writeInputTable(t, filepath.Join(inputs, "striker_roles", "281", "player_cluster_probs.csv"),
		[]string{"cluster_0", "cluster_1", "cluster_2", "predicted_cluster"}, []*artifacts.Row{
			{ID: "101_281", PlayerID: 101, SeasonID: 281, Values: []float64{0.2, 0.2, 0.6, 2}},
		})
}

func TestBuildStrikerRoles(t *testing.T) {
	inputs, out := t.TempDir(), t.TempDir()
	rolesInput(t, inputs)

	require.NoError(t, New(inputs, out, testLogger()).BuildStrikerRoles())

	roles := artifacts.LoadStrikerRoles(filepath.Join(out, "striker_roles"), testLogger())
	assert.Len(t, roles.Seasons, 2)
	assert.Equal(t, "Poacher", roles.Config.ClusterRoleMap()[2])
	assert.Equal(t, 10, roles.Config.TopKNeighbors)

	posteriors := roles.Posteriors(101, 317)
	require.NotNil(t, posteriors)
	assert.InDelta(t, 0.75, posteriors[2], 1e-9)

	// Other seasons of the same player are legitimate neighbors.
	neighbors, err := roles.Neighbors.Neighbors("101_317", 10, types.MetricCosine)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	ids := []string{neighbors[0].NeighborID, neighbors[1].NeighborID}
	assert.Contains(t, ids, "101_281")
	assert.Contains(t, ids, "102_317")
}

func TestBuildStrikerRolesNoSeasons(t *testing.T) {
	inputs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(inputs, "striker_roles"), 0o755))
	err := New(inputs, t.TempDir(), testLogger()).BuildStrikerRoles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no season directories")
}

func performanceInput(t *testing.T, inputs string) {
	t.Helper()
	columns := []string{"touches_box_90", "np_xg_90", "xa_90"}
	writeInputTable(t, filepath.Join(inputs, "performance", "performance_raw_metrics.csv"), columns, []*artifacts.Row{
		{ID: "301_317", PlayerID: 301, SeasonID: 317, PlayerName: "Goal Machine", TeamName: "Granite FC", Minutes: 2000, Values: []float64{6, 0.6, 0.3}},
		{ID: "302_317", PlayerID: 302, SeasonID: 317, PlayerName: "Second Fiddle", TeamName: "Marble United", Minutes: 1800, Values: []float64{4, 0.4, 0.2}},
		{ID: "303_317", PlayerID: 303, SeasonID: 317, PlayerName: "Cameo Sub", TeamName: "Granite FC", Minutes: 100, Values: []float64{9, 0.9, 0.9}},
	})
}

func TestBuildPerformance(t *testing.T) {
	inputs, out := t.TempDir(), t.TempDir()
	performanceInput(t, inputs)

	require.NoError(t, New(inputs, out, testLogger()).BuildPerformance())

	set := artifacts.LoadPerformanceSet(filepath.Join(out, "performance"), testLogger())
	assert.Equal(t, 2, set.AxisScores.Len(), "sub-600-minute row excluded")
	assert.Equal(t, "2024/25", set.Config.Season)
	assert.Equal(t, 317, set.Config.SeasonID)
	assert.Len(t, set.Axes, 5)

	pct := set.Percentiles.ValueMap("301_317")
	assert.InDelta(t, 100, pct["touches_box_90"], 1e-9)
	assert.InDelta(t, 100, pct["np_xg_90"], 1e-9)

	axes := set.AxisScores.ValueMap("301_317")
	assert.InDelta(t, 100, axes["finishing_output"], 1e-9, "mean of the available metric percentiles")
	assert.InDelta(t, 100, axes["chance_creation"], 1e-9)
	_, hasDefensive := axes["defensive_work_rate"]
	assert.False(t, hasDefensive, "axis with no input metrics stays missing")

	finishing, ok := set.Benchmarks["finishing_output"]
	require.True(t, ok)
	assert.InDelta(t, 75, finishing.Median, 1e-9)
	assert.InDelta(t, 90, finishing.P80, 1e-9, "linear-interpolated 80th percentile of {50,100}")
	_, ok = set.Benchmarks["defensive_work_rate"]
	assert.False(t, ok, "no benchmark for an all-missing axis")

	touches, ok := set.MinMax["touches_box_90"]
	require.True(t, ok)
	assert.InDelta(t, 4, touches.Min, 1e-9)
	assert.InDelta(t, 6, touches.Max, 1e-9)
}

func TestBuildAll(t *testing.T) {
	inputs, out := t.TempDir(), t.TempDir()
	centerBackInput(t, inputs)
	rolesInput(t, inputs)
	performanceInput(t, inputs)
	striker := []string{
		"Progressive_Play", "Finishing_BoxPresence", "Pressing_WorkRate",
		"Finishing_Efficiency", "Dribbling_RiskTaking", "DecisionMaking_Balance",
	}
	writeInputTable(t, filepath.Join(inputs, "striker_profile", "ability_scores.csv"), striker, []*artifacts.Row{
		{ID: "101_317", PlayerID: 101, SeasonID: 317, PlayerName: "Target Man", Minutes: 1400, Values: []float64{1, 2, 3, 4, 5, 6}},
		{ID: "102_317", PlayerID: 102, SeasonID: 317, PlayerName: "Wide Forward", Minutes: 900, Values: []float64{6, 5, 4, 3, 2, 1}},
	})
	pcs := []string{"PC1", "PC2", "PC3", "PC4", "PC5", "PC6", "PC7"}
	for _, dir := range []string{"deep_progression_profile", "attacking_mid_winger_profile"} {
		writeInputTable(t, filepath.Join(inputs, dir, "ability_scores.csv"), pcs, []*artifacts.Row{
			{ID: "401_317", PlayerID: 401, SeasonID: 317, PlayerName: "Engine Room", Minutes: 1700, Values: []float64{1, 2, 3, 4, 5, 6, 7}},
			{ID: "402_317", PlayerID: 402, SeasonID: 317, PlayerName: "Shuttler", Minutes: 1200, Values: []float64{7, 6, 5, 4, 3, 2, 1}},
		})
	}

	var stages []string
	b := New(inputs, out, testLogger())
	b.OnProgress(func(stage string, progress float64, message string) {
		stages = append(stages, stage)
	})
	require.NoError(t, b.BuildAll(context.Background()))

	assert.Equal(t, []string{
		"tactical:striker", "tactical:deep_progression", "tactical:attacking_mid_winger",
		"tactical:center_back", "striker_roles", "performance", "done",
	}, stages)

	store := artifacts.NewStore(out, testLogger())
	status := store.Status()
	assert.Equal(t, 2, status.Groups[types.PositionGroupStriker].Rows)
	assert.Equal(t, 3, status.Groups[types.PositionGroupCenterBack].Rows)
	assert.Equal(t, 2, status.RoleSeasons)
	assert.Equal(t, 2, status.PerformanceRows)
}

func TestBuildAllJoinsFailures(t *testing.T) {
	err := New(t.TempDir(), t.TempDir(), testLogger()).BuildAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tactical striker")
	assert.Contains(t, err.Error(), "striker roles")
	assert.Contains(t, err.Error(), "performance")
}

func TestBuildAllHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(t.TempDir(), t.TempDir(), testLogger()).BuildAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
