package domain

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// RankOrder tells RankScores which direction of a score is preferred.
type RankOrder int

const (
	// HigherIsBetter ranks the largest score first.
	HigherIsBetter RankOrder = iota
	// LowerIsBetter ranks the smallest score first.
	LowerIsBetter
)

// RankScores converts scores into 1-based ranks where 1 is the best
// alternative. Ties keep the original alternative order.
func RankScores(scores []float64, order RankOrder) ([]int, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: no scores to rank", ErrInvalidRank)
	}
	for i, s := range scores {
		if math.IsNaN(s) {
			return nil, fmt.Errorf("%w: score %d is NaN", ErrInvalidRank, i)
		}
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if order == LowerIsBetter {
			return scores[idx[a]] < scores[idx[b]]
		}
		return scores[idx[a]] > scores[idx[b]]
	})

	rank := make([]int, len(scores))
	for pos, i := range idx {
		rank[i] = pos + 1
	}
	return rank, nil
}

// AverageRanks returns 1-based ascending ranks where tied values share the
// mean of the positions they occupy. It is the ranking Spearman correlation
// is defined on.
func AverageRanks(values []float64) []float64 {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]float64, len(values))
	for start := 0; start < len(idx); {
		end := start + 1
		for end < len(idx) && values[idx[end]] == values[idx[start]] {
			end++
		}
		avg := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			out[idx[k]] = avg
		}
		start = end
	}
	return out
}

// isPermutation reports whether rank holds every value of 1..len(rank)
// exactly once.
func isPermutation(rank []int) bool {
	sorted := slices.Clone(rank)
	slices.Sort(sorted)
	for i, r := range sorted {
		if r != i+1 {
			return false
		}
	}
	return true
}
