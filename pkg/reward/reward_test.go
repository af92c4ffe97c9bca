package reward

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fractalvault/fractalvault/internal/complexity"
	"github.com/fractalvault/fractalvault/pkg/placement"
	"github.com/fractalvault/fractalvault/pkg/tree"
)

func TestComplexityScoreEmpty(t *testing.T) {
	assert.Equal(t, 0.0, ComplexityScore(nil))
	assert.Equal(t, 0.0, ComplexityScore([]tree.Node{}))
}

func TestComplexityScoreSingleNode(t *testing.T) {
	nodes := []tree.Node{{Iteration: 100, Complexity: 5}}

	// mean = 500, normalized by MaxIterations * BaseUnit.
	want := 500.0 / float64(placement.MaxIterations*complexity.BaseUnit) * 100
	assert.InDelta(t, want, ComplexityScore(nodes), 1e-9)
}

func TestComplexityScoreClamped(t *testing.T) {
	nodes := []tree.Node{{Iteration: placement.MaxIterations, Complexity: complexity.BaseUnit * 50}}
	assert.Equal(t, 100.0, ComplexityScore(nodes))
}

func TestComplexityScoreRange(t *testing.T) {
	nodes := []tree.Node{
		{Iteration: 0, Complexity: 1},
		{Iteration: 17, Complexity: 9},
		{Iteration: placement.MaxIterations, Complexity: 3},
	}
	score := ComplexityScore(nodes)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestBalanceCoefficients(t *testing.T) {
	// 0.01*10 + 0.05*40 + 0.1*25 = 0.1 + 2 + 2.5
	assert.Equal(t, 4.6, Balance(10, 40, 25))
}

func TestBalanceZero(t *testing.T) {
	assert.Equal(t, 0.0, Balance(0, 0, 0))
}

func TestBalanceRounding(t *testing.T) {
	// 0.01*1 + 0.05*1 + 0.1*0.333... = 0.0933... -> 0.09
	assert.Equal(t, 0.09, Balance(1, 1, 1.0/3))
}
