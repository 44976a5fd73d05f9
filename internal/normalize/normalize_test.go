package normalize

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestPercentilesFourPlayerCohort(t *testing.T) {
	m := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	p := Percentiles(m)

	assert.Equal(t, 25.0, p.At(0, 0))
	assert.Equal(t, 50.0, p.At(1, 0))
	assert.Equal(t, 75.0, p.At(2, 0))
	assert.Equal(t, 100.0, p.At(3, 0))
}

func TestPercentilesDistinctColumnBounds(t *testing.T) {
	// Max ranks exactly 100, min ranks 100/n, total rank mass is fixed.
	n := 8
	vals := []float64{42, 7, 99, 13, 56, 71, 28, 3}
	m := mat.NewDense(n, 1, vals)

	p := Percentiles(m)

	var minV, maxV, sum float64
	minV = math.Inf(1)
	for i := 0; i < n; i++ {
		v := p.At(i, 0)
		sum += v
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	assert.InDelta(t, 100.0/float64(n), minV, 1e-12)
	assert.Equal(t, 100.0, maxV)
	assert.InDelta(t, 100.0*float64(n+1)/2.0, sum, 1e-9)
}

func TestPercentilesTiesShareAverageRank(t *testing.T) {
	m := mat.NewDense(4, 1, []float64{10, 20, 20, 40})

	p := Percentiles(m)

	assert.Equal(t, 25.0, p.At(0, 0))
	assert.Equal(t, 62.5, p.At(1, 0))
	assert.Equal(t, 62.5, p.At(2, 0))
	assert.Equal(t, 100.0, p.At(3, 0))
}

func TestPercentilesSingleRowIsHundred(t *testing.T) {
	m := mat.NewDense(1, 2, []float64{7, -3})

	p := Percentiles(m)

	assert.Equal(t, 100.0, p.At(0, 0))
	assert.Equal(t, 100.0, p.At(0, 1))
}

func TestPercentilesNaNStaysNaNAndShrinksCohort(t *testing.T) {
	m := mat.NewDense(3, 1, []float64{10, math.NaN(), 30})

	p := Percentiles(m)

	assert.Equal(t, 50.0, p.At(0, 0))
	assert.True(t, math.IsNaN(p.At(1, 0)))
	assert.Equal(t, 100.0, p.At(2, 0))
}

func TestPercentilesColumnsAreIndependent(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 300,
		2, 200,
		3, 100,
	})

	p := Percentiles(m)

	assert.Equal(t, 100.0, p.At(2, 0))
	assert.Equal(t, 100.0, p.At(0, 1))
}

func TestZScoresZeroMeanUnitStd(t *testing.T) {
	m := mat.NewDense(4, 1, []float64{10, 20, 30, 40})

	z, params := ZScores(m, nil, 0)

	col := make([]float64, 4)
	mat.Col(col, 0, z)
	assert.InDelta(t, 0.0, mean(col), 1e-12)
	assert.InDelta(t, 1.0, sampleStd(col), 1e-12)

	require.Contains(t, params, "")
	assert.InDelta(t, 25.0, params[""][0].Mean, 1e-12)
	assert.InDelta(t, 12.909944487358056, params[""][0].Std, 1e-9)
}

func TestZScoresZeroVarianceColumnYieldsZero(t *testing.T) {
	m := mat.NewDense(3, 1, []float64{5, 5, 5})

	z, params := ZScores(m, nil, 2.5)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0.0, z.At(i, 0))
	}
	assert.Equal(t, 0.0, params[""][0].Std)
}

func TestZScoresClipBoundsOutliers(t *testing.T) {
	vals := []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1e6}
	m := mat.NewDense(10, 1, vals)

	z, _ := ZScores(m, nil, 2.5)

	var maxV float64
	for i := 0; i < 10; i++ {
		if v := z.At(i, 0); v > maxV {
			maxV = v
		}
	}
	assert.Equal(t, 2.5, maxV)
}

func TestZScoresPerSeasonPartitions(t *testing.T) {
	m := mat.NewDense(6, 1, []float64{10, 20, 30, 100, 200, 300})
	seasons := []string{"317", "317", "317", "281", "281", "281"}

	z, params := ZScores(m, seasons, 0)

	// Each season cohort standardizes independently.
	assert.InDelta(t, -1.0, z.At(0, 0), 1e-12)
	assert.InDelta(t, 0.0, z.At(1, 0), 1e-12)
	assert.InDelta(t, 1.0, z.At(2, 0), 1e-12)
	assert.InDelta(t, -1.0, z.At(3, 0), 1e-12)
	assert.InDelta(t, 1.0, z.At(5, 0), 1e-12)

	require.Contains(t, params, "317")
	require.Contains(t, params, "281")
	assert.InDelta(t, 20.0, params["317"][0].Mean, 1e-12)
	assert.InDelta(t, 200.0, params["281"][0].Mean, 1e-12)
}

func TestZScoresNaNPropagatesButCohortSkipsIt(t *testing.T) {
	m := mat.NewDense(4, 1, []float64{10, math.NaN(), 20, 30})

	z, params := ZScores(m, nil, 0)

	assert.True(t, math.IsNaN(z.At(1, 0)))
	assert.InDelta(t, 20.0, params[""][0].Mean, 1e-12)
	assert.InDelta(t, 0.0, z.At(2, 0), 1e-12)
}

func TestScoreAgainstReusesFittedMoments(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		10, 1,
		20, 1,
		30, 1,
	})
	_, params := ZScores(m, nil, 2.5)

	scored := ScoreAgainst([]float64{40, 1}, params[""], 2.5)

	assert.InDelta(t, 2.0, scored[0], 1e-12)
	// Zero-variance axis scores to 0 for any input.
	assert.Equal(t, 0.0, scored[1])
}

func TestL2NormalizeUnitLength(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{
		3, 4,
		1, 0,
	})

	l := L2Normalize(m)

	assert.InDelta(t, 0.6, l.At(0, 0), 1e-12)
	assert.InDelta(t, 0.8, l.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, rowNorm(l, 0), 1e-12)
	assert.InDelta(t, 1.0, rowNorm(l, 1), 1e-12)
}

func TestL2NormalizeZeroRowStaysZero(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{0, 0, 0})

	l := L2Normalize(m)

	for j := 0; j < 3; j++ {
		assert.Equal(t, 0.0, l.At(0, j))
	}
}

func TestL2NormalizeIdempotent(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{2, -1, 2})

	once := L2Normalize(m)
	twice := L2Normalize(once)

	for j := 0; j < 3; j++ {
		assert.InDelta(t, once.At(0, j), twice.At(0, j), 1e-12)
	}
}

func TestL2NormalizeNaNPropagatesThroughRow(t *testing.T) {
	m := mat.NewDense(1, 2, []float64{1, math.NaN()})

	l := L2Normalize(m)

	assert.True(t, math.IsNaN(l.At(0, 0)))
	assert.True(t, math.IsNaN(l.At(0, 1)))
}

func TestAxisScoresMeanOverAvailableMetrics(t *testing.T) {
	// Columns: shots, xg, pressures.
	m := mat.NewDense(2, 3, []float64{
		80, 60, 40,
		90, math.NaN(), 10,
	})
	colIndex := map[string]int{"shots": 0, "xg": 1, "pressures": 2}
	axes := [][]string{
		{"shots", "xg"},
		{"pressures", "not_collected"},
	}

	scores := AxisScores(m, colIndex, axes)

	assert.InDelta(t, 70.0, scores.At(0, 0), 1e-12)
	// Missing metric is skipped, not treated as zero.
	assert.InDelta(t, 90.0, scores.At(1, 0), 1e-12)
	assert.InDelta(t, 40.0, scores.At(0, 1), 1e-12)
	assert.InDelta(t, 10.0, scores.At(1, 1), 1e-12)
}

func TestAxisScoresAllMissingYieldsNaN(t *testing.T) {
	m := mat.NewDense(1, 1, []float64{math.NaN()})
	scores := AxisScores(m, map[string]int{"xg": 0}, [][]string{{"xg"}})

	assert.True(t, math.IsNaN(scores.At(0, 0)))
}

func TestQuantileLinearInterpolation(t *testing.T) {
	vals := []float64{1, 2, 3, 4}

	assert.InDelta(t, 2.5, Median(vals), 1e-12)
	assert.InDelta(t, 3.4, Quantile(0.8, vals), 1e-12)
	assert.Equal(t, 1.0, Quantile(0, vals))
	assert.Equal(t, 4.0, Quantile(1, vals))
}

func TestQuantileSkipsNaN(t *testing.T) {
	vals := []float64{math.NaN(), 10, 20}

	assert.InDelta(t, 15.0, Median(vals), 1e-12)
	assert.True(t, math.IsNaN(Median([]float64{math.NaN()})))
}

func TestColumnRangeSummary(t *testing.T) {
	rng := ColumnRange([]float64{10, 20, math.NaN(), 30, 40})

	assert.Equal(t, 10.0, rng.Min)
	assert.Equal(t, 40.0, rng.Max)
	assert.InDelta(t, 25.0, rng.Mean, 1e-12)
	assert.InDelta(t, 12.909944487358056, rng.Std, 1e-9)
}

func BenchmarkPercentiles(b *testing.B) {
	m := randomMatrix(300, 7)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Percentiles(m)
	}
}

func BenchmarkL2Normalize(b *testing.B) {
	m := randomMatrix(300, 7)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		L2Normalize(m)
	}
}

func randomMatrix(r, c int) *mat.Dense {
	rng := rand.New(rand.NewSource(1))
	data := make([]float64, r*c)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	return mat.NewDense(r, c, data)
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	m := mean(vals)
	var sum float64
	for _, v := range vals {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}

func rowNorm(m *mat.Dense, i int) float64 {
	_, c := m.Dims()
	var sum float64
	for j := 0; j < c; j++ {
		sum += m.At(i, j) * m.At(i, j)
	}
	return math.Sqrt(sum)
}
