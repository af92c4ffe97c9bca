// Package complexity assigns the integer weight a stored record carries in
// the tree. The weight feeds storage points and, combined with the placement
// iteration count, the aggregate complexity score.
package complexity

import (
	"math/rand"
	"time"

	"github.com/fractalvault/fractalvault/pkg/record"
)

// BaseUnit is the normalization unit for complexity-weighted scoring. The
// reward accountant divides by it, so it must stay in sync with the weights
// produced here.
const BaseUnit = 10

// sizeDivisor converts serialized payload bytes into complexity units.
const sizeDivisor = 32

// PerturbationRange is the exclusive upper bound of the random contribution
// to a weight.
const PerturbationRange = 5

type perturber interface {
	Intn(n int) int
}

// Estimator computes record weights. The random perturbation source is
// injectable so tests can pin it; with a nil source a time-seeded one is
// used. Two identical records estimated at different times may get different
// weights because of the perturbation, while their placement stays identical.
type Estimator struct {
	rng perturber
}

// New returns an Estimator using rng for the perturbation. rng may be nil.
func New(rng *rand.Rand) *Estimator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Estimator{rng: rng}
}

// Estimate scores a record from its serialized size and category. The result
// is always at least 1.
func (e *Estimator) Estimate(serializedSize int, cat record.Category) int {
	weight := 1 + serializedSize/sizeDivisor + categoryBonus(cat) + e.rng.Intn(PerturbationRange)
	if weight < 1 {
		weight = 1
	}
	return weight
}

// categoryBonus is the fixed per-category addition. The switch is exhaustive
// over the closed Category set.
func categoryBonus(cat record.Category) int {
	switch cat {
	case record.CategoryTypeA:
		return 4
	case record.CategoryTypeB:
		return 6
	case record.CategoryTypeC:
		return 3
	case record.CategoryTypeD:
		return 5
	default:
		return 0
	}
}
