package roles

import (
	"fmt"
	"math"
	"sort"

	"github.com/Eugenia148/ISAC2025/internal/types"
)

// Classifier turns GMM posterior vectors into discrete role assignments.
// The cluster-to-role and description mappings come from the striker
// roles artifact config and are immutable for the life of a classifier;
// reloading the artifact store produces a fresh classifier.
type Classifier struct {
	clusterToRole map[int]string
	descriptions  map[string]string
	threshold     float64
}

// NewClassifier builds a classifier. threshold <= 0 falls back to the
// standard hybrid cut.
func NewClassifier(clusterToRole map[int]string, descriptions map[string]string, threshold float64) *Classifier {
	if threshold <= 0 {
		threshold = types.DefaultHybridCut
	}
	return &Classifier{
		clusterToRole: clusterToRole,
		descriptions:  descriptions,
		threshold:     threshold,
	}
}

// Threshold returns the hybrid cut in use.
func (c *Classifier) Threshold() float64 {
	return c.threshold
}

type clusterProb struct {
	cluster int
	prob    float64
}

// Assign maps a posterior vector to a role assignment. Upstream posterior
// sums drift from 1.0 by floating accumulation, so the vector is
// renormalized once here before thresholding. The hybrid flag compares
// the unrounded renormalized maximum: exactly at the threshold is NOT
// hybrid. Top roles are the two highest probabilities, ties broken by
// cluster id ascending. A nil/empty or all-zero vector returns nil;
// missing posteriors are normal, not an error.
func (c *Classifier) Assign(posteriors map[int]float64) *types.RoleAssignment {
	if len(posteriors) == 0 {
		return nil
	}

	entries := make([]clusterProb, 0, len(posteriors))
	var sum float64
	for cluster, p := range posteriors {
		if math.IsNaN(p) || p < 0 {
			continue
		}
		entries = append(entries, clusterProb{cluster: cluster, prob: p})
		sum += p
	}
	if len(entries) == 0 || sum <= 0 {
		return nil
	}
	for i := range entries {
		entries[i].prob /= sum
	}

	sort.Slice(entries, func(a, b int) bool {
		if entries[a].prob != entries[b].prob {
			return entries[a].prob > entries[b].prob
		}
		return entries[a].cluster < entries[b].cluster
	})

	top := entries[0]
	role := c.roleName(top.cluster)

	assignment := &types.RoleAssignment{
		Role:       role,
		Confidence: round3(top.prob),
		IsHybrid:   top.prob < c.threshold,
		Tooltip:    c.descriptions[role],
	}

	limit := 2
	if limit > len(entries) {
		limit = len(entries)
	}
	for _, e := range entries[:limit] {
		assignment.TopRoles = append(assignment.TopRoles, types.RoleProbability{
			Role: c.roleName(e.cluster),
			Prob: round3(e.prob),
		})
	}
	return assignment
}

func (c *Classifier) roleName(cluster int) string {
	if name, ok := c.clusterToRole[cluster]; ok {
		return name
	}
	return fmt.Sprintf("Cluster %d", cluster)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
