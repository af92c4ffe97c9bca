// Package reward derives the incentive score from the current tree
// contents. Nothing here is stored as ground truth; every value is
// recomputable from the node set on demand.
package reward

import (
	"math"

	"github.com/fractalvault/fractalvault/internal/complexity"
	"github.com/fractalvault/fractalvault/pkg/placement"
	"github.com/fractalvault/fractalvault/pkg/tree"
)

// Coefficients of the reward balance. These are a behavioral contract; any
// change breaks parity with balances users have already seen.
const (
	nodeWeight   = 0.01
	pointsWeight = 0.05
	scoreWeight  = 0.1
)

// ComplexityScore is the aggregate address-space complexity of the stored
// nodes as a percentage: the mean of iteration*complexity across nodes,
// normalized by the maximum iteration bound times the base complexity unit,
// clamped to [0, 100]. An empty node set scores 0.
func ComplexityScore(nodes []tree.Node) float64 {
	if len(nodes) == 0 {
		return 0
	}
	var sum float64
	for _, n := range nodes {
		sum += float64(n.Iteration) * float64(n.Complexity)
	}
	mean := sum / float64(len(nodes))
	score := mean / float64(placement.MaxIterations*complexity.BaseUnit) * 100
	return clamp(score, 0, 100)
}

// Balance computes the reward balance from the node count, storage points
// and complexity score, rounded to two decimal places.
func Balance(nodeCount, storagePoints int, complexityScore float64) float64 {
	raw := nodeWeight*float64(nodeCount) +
		pointsWeight*float64(storagePoints) +
		scoreWeight*complexityScore
	return math.Round(raw*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
