package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

func TestCosineBasics(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 0}, []float64{2, 0}), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-3, 0}), 1e-12)
}

func TestCosineZeroVectorIsZeroNotNaN(t *testing.T) {
	got := Cosine([]float64{0, 0, 0}, []float64{1, 2, 3})

	assert.False(t, math.IsNaN(got))
	assert.Equal(t, 0.0, got)
}

func TestInverseDistanceSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, InverseDistanceSimilarity(0))
	assert.Equal(t, 0.5, InverseDistanceSimilarity(1))
	assert.InDelta(t, 1.0/3.0, InverseDistanceSimilarity(2), 1e-12)
}

func TestPercentClampsToDisplayRange(t *testing.T) {
	assert.Equal(t, 99, Percent(0.994))
	assert.Equal(t, 100, Percent(1.0))
	assert.Equal(t, 0, Percent(-0.4))
	assert.Equal(t, 50, Percent(0.5))
}

func TestBuildExcludesSelfEdge(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	ids := []string{"10_317", "11_317", "12_317"}

	edges, err := Build(m, ids, types.MetricCosine, 10)
	require.NoError(t, err)

	for _, e := range edges {
		assert.NotEqual(t, e.AnchorID, e.NeighborID)
	}
	// Every anchor keeps both remaining candidates.
	assert.Len(t, edges, 6)
}

func TestBuildRanksByCosine(t *testing.T) {
	// Anchor x: an orthogonal candidate and a near-parallel one. The
	// near-parallel candidate must come back first.
	m := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0.9, 0.1, 0,
	})
	ids := []string{"x", "orthogonal", "close"}

	edges, err := Build(m, ids, types.MetricCosine, 1)
	require.NoError(t, err)

	var anchorX []Edge
	for _, e := range edges {
		if e.AnchorID == "x" {
			anchorX = append(anchorX, e)
		}
	}
	require.Len(t, anchorX, 1)
	assert.Equal(t, "close", anchorX[0].NeighborID)
	assert.InDelta(t, 0.9938837346736188, anchorX[0].Score, 1e-9)
}

func TestBuildEuclideanScoresUseInverseDistanceMap(t *testing.T) {
	// Unit vectors along axes: pairwise distance sqrt(2).
	m := mat.NewDense(2, 2, []float64{
		1, 0,
		0, 1,
	})
	ids := []string{"a", "b"}

	edges, err := Build(m, ids, types.MetricEuclidean, 5)
	require.NoError(t, err)

	require.Len(t, edges, 2)
	want := 1.0 / (1.0 + math.Sqrt2)
	assert.InDelta(t, want, edges[0].Score, 1e-12)
}

func TestBuildTieBreaksByNeighborID(t *testing.T) {
	// Two identical candidates: same score, deterministic order by id.
	m := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		0, 1,
	})
	ids := []string{"anchor", "b_second", "a_first"}

	edges, err := Build(m, ids, types.MetricCosine, 2)
	require.NoError(t, err)

	var got []string
	for _, e := range edges {
		if e.AnchorID == "anchor" {
			got = append(got, e.NeighborID)
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a_first", "b_second"}, got)
}

func TestTableNeighborsSortedDescending(t *testing.T) {
	table := NewTable(types.MetricCosine, []Edge{
		{AnchorID: "a", NeighborID: "low", Score: 0.2},
		{AnchorID: "a", NeighborID: "high", Score: 0.9},
		{AnchorID: "a", NeighborID: "mid", Score: 0.5},
	})

	got, err := table.Neighbors("a", 10, types.MetricCosine)
	require.NoError(t, err)

	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, "high", got[0].NeighborID)
}

func TestTableNeighborsCapsAtAvailable(t *testing.T) {
	table := NewTable(types.MetricCosine, []Edge{
		{AnchorID: "a", NeighborID: "b", Score: 0.7},
	})

	got, err := table.Neighbors("a", 5, types.MetricCosine)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Unknown anchors are a normal no-data outcome.
	none, err := table.Neighbors("missing", 5, types.MetricCosine)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTableDropsSelfEdges(t *testing.T) {
	table := NewTable(types.MetricEuclidean, []Edge{
		{AnchorID: "a", NeighborID: "a", Score: 1.0},
		{AnchorID: "a", NeighborID: "b", Score: 0.4},
	})

	got, err := table.Neighbors("a", 10, types.MetricEuclidean)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].NeighborID)
}

func TestTableRejectsMetricMismatch(t *testing.T) {
	table := NewTable(types.MetricCosine, nil)

	_, err := table.Neighbors("a", 5, types.MetricEuclidean)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMetricMismatch)
}

func BenchmarkBuildCosineCohort(b *testing.B) {
	m, ids := benchmarkCohort(300, 6)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(m, ids, types.MetricCosine, 10); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkCohort(n, dims int) (*mat.Dense, []string) {
	data := make([]float64, n*dims)
	for i := range data {
		// Deterministic spread is enough for a benchmark cohort.
		data[i] = float64((i*2654435761)%1000) / 1000.0
	}
	ids := make([]string, n)
	for i := range ids {
		ids[i] = types.NewPlayerSeasonID(int64(1000+i), 317).String()
	}
	return mat.NewDense(n, dims, data), ids
}
