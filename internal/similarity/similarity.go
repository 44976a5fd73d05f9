package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// ErrMetricMismatch signals that a query asked a neighbor table for a
// different metric than the one its artifact set was built with. This is
// a configuration error, not missing data, so it surfaces as an error.
var ErrMetricMismatch = errors.New("similarity metric does not match artifact set")

// Edge is one directed neighbor relation: anchor -> neighbor with the
// metric's raw score (cosine in [-1,1], or 1/(1+distance) in (0,1] for
// Euclidean sets). Edges are not symmetric.
type Edge struct {
	AnchorID   string
	NeighborID string
	Score      float64
}

// Cosine returns the cosine similarity of a and b. Zero-magnitude inputs
// yield 0 rather than NaN.
func Cosine(a, b []float64) float64 {
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// EuclideanDistance returns ||a-b||_2.
func EuclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// InverseDistanceSimilarity is the fixed monotonic map from Euclidean
// distance to a similarity in (0, 1]. Every Euclidean artifact set uses
// this one map; mixing conversions within a deployment is not allowed.
func InverseDistanceSimilarity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// Score computes the stored neighbor score between two vectors for the
// given metric. Euclidean callers are expected to pass L2-normalized
// vectors; the score is 1/(1+distance).
func Score(metric types.SimilarityMetric, a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d vs %d", len(a), len(b))
	}
	switch metric {
	case types.MetricCosine:
		return Cosine(a, b), nil
	case types.MetricEuclidean:
		return InverseDistanceSimilarity(EuclideanDistance(a, b)), nil
	default:
		return 0, fmt.Errorf("unknown similarity metric %q", metric)
	}
}

// Percent converts a raw similarity score to the 0-100 integer used in
// payloads. Negative cosine floors at 0.
func Percent(score float64) int {
	v := int(math.Round(score * 100))
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Build computes the top-k neighbor edges for every row of m. ids[i] is
// the player-season key of row i; the search space spans all rows, so a
// player's other seasons are legitimate neighbors and only the exact
// self-edge is excluded. The full pairwise matrix is computed, which is
// fine at cohort scale (a few hundred rows); ties break by neighbor id
// ascending for determinism.
func Build(m *mat.Dense, ids []string, metric types.SimilarityMetric, k int) ([]Edge, error) {
	r, c := m.Dims()
	if len(ids) != r {
		return nil, fmt.Errorf("ids length %d does not match %d rows", len(ids), r)
	}
	if k <= 0 {
		k = types.DefaultNeighborsK
	}

	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}

	edges := make([]Edge, 0, r*k)
	candidates := make([]Edge, 0, r-1)
	for i := 0; i < r; i++ {
		candidates = candidates[:0]
		for j := 0; j < r; j++ {
			if j == i {
				continue
			}
			score, err := Score(metric, rows[i], rows[j])
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, Edge{
				AnchorID:   ids[i],
				NeighborID: ids[j],
				Score:      score,
			})
		}
		sortEdges(candidates)
		take := k
		if take > len(candidates) {
			take = len(candidates)
		}
		edges = append(edges, candidates[:take]...)
	}
	return edges, nil
}

// Table is a queryable precomputed neighbor table, grouped by anchor and
// kept sorted descending by score.
type Table struct {
	metric   types.SimilarityMetric
	byAnchor map[string][]Edge
	total    int
}

// NewTable groups edges by anchor. Self-edges are dropped and each
// anchor's list is re-sorted so ordering never depends on file order.
func NewTable(metric types.SimilarityMetric, edges []Edge) *Table {
	byAnchor := make(map[string][]Edge)
	total := 0
	for _, e := range edges {
		if e.AnchorID == e.NeighborID {
			continue
		}
		byAnchor[e.AnchorID] = append(byAnchor[e.AnchorID], e)
		total++
	}
	for anchor := range byAnchor {
		sortEdges(byAnchor[anchor])
	}
	return &Table{metric: metric, byAnchor: byAnchor, total: total}
}

// Metric returns the metric the table was built with.
func (t *Table) Metric() types.SimilarityMetric {
	return t.metric
}

// Len returns the number of stored edges.
func (t *Table) Len() int {
	return t.total
}

// Neighbors returns up to k precomputed neighbors for the anchor, sorted
// descending by score. An unknown anchor returns an empty slice, since
// absent data is a normal outcome. The want metric must match the table's
// configured metric or the call fails with ErrMetricMismatch.
func (t *Table) Neighbors(anchor string, k int, want types.SimilarityMetric) ([]Edge, error) {
	if want != t.metric {
		return nil, fmt.Errorf("%w: table built with %q, queried as %q", ErrMetricMismatch, t.metric, want)
	}
	found := t.byAnchor[anchor]
	if k <= 0 || k > len(found) {
		k = len(found)
	}
	out := make([]Edge, k)
	copy(out, found[:k])
	return out, nil
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].Score != edges[b].Score {
			return edges[a].Score > edges[b].Score
		}
		return edges[a].NeighborID < edges[b].NeighborID
	})
}
