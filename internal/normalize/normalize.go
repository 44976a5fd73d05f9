package normalize

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// The transforms in this package are pure: they allocate fresh matrices
// and never touch the artifact store. Percentile and zscore operate
// column-wise across the cohort, L2 operates row-wise across axes.
// NaN inputs stay NaN except for the explicit zero-variance case, which
// yields 0 rather than dividing by zero.

// Percentiles rank-transforms every column independently into [0, 100].
// Ties receive the average of their ranks; the denominator counts only
// the column's non-NaN values, so a single-row column maps to 100.
// m must have at least one row and one column.
func Percentiles(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	col := make([]float64, r)
	dst := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		percentileColumn(dst, col)
		for i := 0; i < r; i++ {
			out.Set(i, j, dst[i])
		}
	}
	return out
}

func percentileColumn(dst, src []float64) {
	idx := make([]int, 0, len(src))
	for i, v := range src {
		if math.IsNaN(v) {
			dst[i] = math.NaN()
			continue
		}
		idx = append(idx, i)
	}
	n := len(idx)
	if n == 0 {
		return
	}
	sort.Slice(idx, func(a, b int) bool { return src[idx[a]] < src[idx[b]] })

	// Walk runs of equal values so ties share the averaged rank.
	for start := 0; start < n; {
		end := start + 1
		for end < n && src[idx[end]] == src[idx[start]] {
			end++
		}
		// 1-based ranks start+1 .. end averaged.
		avgRank := float64(start+1+end) / 2.0
		pct := avgRank / float64(n) * 100.0
		for k := start; k < end; k++ {
			dst[idx[k]] = pct
		}
		start = end
	}
}

// ZScores standardizes every column within each row partition, typically
// one partition per season. partitions[i] keys row i; nil treats the
// whole matrix as a single cohort. Std is the sample standard deviation;
// a zero-variance (or single-row) partition column yields 0. clip > 0
// bounds the output to [-clip, clip]. The fitted moments are returned per
// partition, aligned with the matrix columns, so new rows can be scored
// against the same cohort later.
func ZScores(m *mat.Dense, partitions []string, clip float64) (*mat.Dense, map[string][]types.ZScoreParams) {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)

	rowsByPart := make(map[string][]int)
	order := make([]string, 0)
	for i := 0; i < r; i++ {
		key := ""
		if partitions != nil {
			key = partitions[i]
		}
		if _, seen := rowsByPart[key]; !seen {
			order = append(order, key)
		}
		rowsByPart[key] = append(rowsByPart[key], i)
	}

	params := make(map[string][]types.ZScoreParams, len(order))
	col := make([]float64, r)
	for _, key := range order {
		rows := rowsByPart[key]
		moments := make([]types.ZScoreParams, c)
		for j := 0; j < c; j++ {
			mat.Col(col, j, m)
			valid := make([]float64, 0, len(rows))
			for _, i := range rows {
				if !math.IsNaN(col[i]) {
					valid = append(valid, col[i])
				}
			}
			var mean, std float64
			if len(valid) > 0 {
				mean = stat.Mean(valid, nil)
			}
			if len(valid) > 1 {
				std = stat.StdDev(valid, nil)
			}
			moments[j] = types.ZScoreParams{Mean: mean, Std: std}

			for _, i := range rows {
				v := col[i]
				switch {
				case math.IsNaN(v):
					out.Set(i, j, math.NaN())
				case std == 0:
					out.Set(i, j, 0)
				default:
					z := (v - mean) / std
					if clip > 0 {
						z = math.Max(-clip, math.Min(clip, z))
					}
					out.Set(i, j, z)
				}
			}
		}
		params[key] = moments
	}
	return out, params
}

// ScoreAgainst applies previously fitted moments to a single raw vector,
// with the same zero-variance and clipping rules as ZScores.
func ScoreAgainst(raw []float64, moments []types.ZScoreParams, clip float64) []float64 {
	out := make([]float64, len(raw))
	for j, v := range raw {
		if j >= len(moments) {
			out[j] = math.NaN()
			continue
		}
		switch {
		case math.IsNaN(v):
			out[j] = math.NaN()
		case moments[j].Std == 0:
			out[j] = 0
		default:
			z := (v - moments[j].Mean) / moments[j].Std
			if clip > 0 {
				z = math.Max(-clip, math.Min(clip, z))
			}
			out[j] = z
		}
	}
	return out
}

// L2Normalize scales every row to unit Euclidean norm. All-zero rows stay
// all-zero instead of dividing by zero; a NaN anywhere in a row
// propagates through that row's norm.
func L2Normalize(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, m)
		var sum float64
		for _, v := range row {
			sum += v * v
		}
		norm := math.Sqrt(sum)
		if norm == 0 {
			for j := 0; j < c; j++ {
				out.Set(i, j, row[j])
			}
			continue
		}
		for j := 0; j < c; j++ {
			out.Set(i, j, row[j]/norm)
		}
	}
	return out
}

// AxisScores reduces metric percentiles to axis-level scores: the
// unweighted mean over each axis's available (non-NaN) constituent
// metrics. Output column j corresponds to axisMetrics[j]; an axis with no
// available metric for a row yields NaN there. colIndex maps metric key
// to column in m; unknown metrics are skipped.
func AxisScores(m *mat.Dense, colIndex map[string]int, axisMetrics [][]string) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, len(axisMetrics), nil)
	for i := 0; i < r; i++ {
		for j, metrics := range axisMetrics {
			var sum float64
			var n int
			for _, key := range metrics {
				idx, ok := colIndex[key]
				if !ok {
					continue
				}
				v := m.At(i, idx)
				if math.IsNaN(v) {
					continue
				}
				sum += v
				n++
			}
			if n == 0 {
				out.Set(i, j, math.NaN())
			} else {
				out.Set(i, j, sum/float64(n))
			}
		}
	}
	return out
}

// ColumnRange summarizes one column for display scaling, skipping NaN.
func ColumnRange(col []float64) types.AxisRange {
	valid := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return types.AxisRange{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), Std: math.NaN()}
	}
	rng := types.AxisRange{Min: valid[0], Max: valid[0], Mean: stat.Mean(valid, nil)}
	for _, v := range valid[1:] {
		if v < rng.Min {
			rng.Min = v
		}
		if v > rng.Max {
			rng.Max = v
		}
	}
	if len(valid) > 1 {
		rng.Std = stat.StdDev(valid, nil)
	}
	return rng
}

// Quantile returns the q-quantile of the non-NaN values using linear
// interpolation between order statistics, matching the convention the
// batch benchmarks were produced with. Returns NaN for an empty input.
func Quantile(q float64, values []float64) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	sort.Float64s(valid)
	if len(valid) == 1 {
		return valid[0]
	}
	h := float64(len(valid)-1) * q
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return valid[lo]
	}
	return valid[lo] + (h-float64(lo))*(valid[hi]-valid[lo])
}

// Median is the 0.5 quantile.
func Median(values []float64) float64 {
	return Quantile(0.5, values)
}

// NaNMean averages the non-NaN values; NaN for an empty input.
func NaNMean(values []float64) float64 {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	return stat.Mean(valid, nil)
}
