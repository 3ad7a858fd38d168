// Package testutils provides utilities for testing, including decision
// matrix generators and literature datasets. These components are intended
// for internal use within the project's test suites and are not part of the
// public API.
package testutils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ahrav/go-criteria/internal/domain"
)

// MatrixSpec bounds the random decision matrices produced by
// GenerateDecisionData.
type MatrixSpec struct {
	MinAlternatives int
	MaxAlternatives int
	MinCriteria     int
	MaxCriteria     int

	// MinObjectivesProportion is the minimum share of MIN criteria.
	MinObjectivesProportion float64

	// MinValue and MaxValue bound the generated cell values. Values are
	// drawn from the half-open interval [MinValue, MaxValue).
	MinValue float64
	MaxValue float64
}

// DefaultMatrixSpec returns the bounds used by most tests: 10 to 100
// alternatives, 10 to 100 criteria, at least half MIN criteria and
// strictly positive values.
func DefaultMatrixSpec() MatrixSpec {
	return MatrixSpec{
		MinAlternatives:         10,
		MaxAlternatives:         100,
		MinCriteria:             10,
		MaxCriteria:             100,
		MinObjectivesProportion: 0.5,
		MinValue:                1,
		MaxValue:                10,
	}
}

// GeneratedData holds the raw arguments of a random decision matrix so
// tests can build it with domain.Mkdm and compare the fields.
type GeneratedData struct {
	Matrix     [][]float64
	Objectives []domain.Objective
	Weights    []float64
	Anames     []string
	Cnames     []string
}

// GenerateDecisionData creates a random decision matrix description.
// The seed parameter controls randomization: use a fixed value for
// reproducible tests.
func GenerateDecisionData(seed int64, spec MatrixSpec) GeneratedData {
	rng := rand.New(rand.NewSource(seed))

	alts := between(rng, spec.MinAlternatives, spec.MaxAlternatives)
	crits := between(rng, spec.MinCriteria, spec.MaxCriteria)

	minCount := int(float64(crits)*spec.MinObjectivesProportion + 0.5)
	minCount = min(max(minCount, 0), crits)
	objectives := make([]domain.Objective, crits)
	for j := range objectives {
		if j < minCount || rng.Intn(2) == 0 {
			objectives[j] = domain.ObjectiveMin
		} else {
			objectives[j] = domain.ObjectiveMax
		}
	}
	rng.Shuffle(len(objectives), func(a, b int) { objectives[a], objectives[b] = objectives[b], objectives[a] })

	span := spec.MaxValue - spec.MinValue
	matrix := make([][]float64, alts)
	for i := range matrix {
		matrix[i] = make([]float64, crits)
		for j := range matrix[i] {
			matrix[i][j] = spec.MinValue + rng.Float64()*span
		}
	}

	weights := make([]float64, crits)
	cnames := make([]string, crits)
	for j := range weights {
		weights[j] = rng.Float64() + 0.01
		cnames[j] = fmt.Sprintf("C%d", j)
	}
	anames := make([]string, alts)
	for i := range anames {
		anames[i] = fmt.Sprintf("A%d", i)
	}

	return GeneratedData{
		Matrix:     matrix,
		Objectives: objectives,
		Weights:    weights,
		Anames:     anames,
		Cnames:     cnames,
	}
}

// GenerateDecisionMatrix creates a validated random DecisionMatrix.
func GenerateDecisionMatrix(seed int64, spec MatrixSpec) (*domain.DecisionMatrix, error) {
	g := GenerateDecisionData(seed, spec)
	return domain.Mkdm(g.Matrix, g.Objectives,
		domain.WithWeights(g.Weights),
		domain.WithAnames(g.Anames...),
		domain.WithCnames(g.Cnames...),
	)
}

// GenerateDecisionMatrixDefault creates a matrix with a time-based seed.
func GenerateDecisionMatrixDefault() (*domain.DecisionMatrix, error) {
	return GenerateDecisionMatrix(time.Now().UnixNano(), DefaultMatrixSpec())
}

func between(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
