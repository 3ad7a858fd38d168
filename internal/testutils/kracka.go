package testutils

import "github.com/ahrav/go-criteria/internal/domain"

// Kracka et al. (2010) heating-loss dataset as used by Brauers and
// Zavadskas to illustrate MOORA. Rows are six building alternatives, the
// first four and the sixth criterion are minimized.
var (
	KrackaMatrix = [][]float64{
		{33.95, 23.78, 11.45, 39.97, 29.44, 167.10, 3.852},
		{38.9, 4.17, 6.32, 0.01, 4.29, 132.52, 25.184},
		{37.59, 9.36, 8.23, 4.35, 10.22, 136.71, 10.845},
		{30.44, 37.59, 13.91, 74.08, 45.10, 198.34, 2.186},
		{36.21, 14.79, 9.17, 17.77, 17.06, 148.3, 6.610},
		{37.8, 8.55, 7.97, 2.35, 9.25, 134.83, 11.935},
	}

	KrackaObjectives = []domain.Objective{
		domain.ObjectiveMin, domain.ObjectiveMin, domain.ObjectiveMin, domain.ObjectiveMin,
		domain.ObjectiveMax, domain.ObjectiveMin, domain.ObjectiveMax,
	}
)

// Reference rankings of the Kracka dataset after vector scaling with unit
// weights.
var (
	KrackaRatioRank    = []int{5, 1, 3, 6, 4, 2}
	KrackaRefPointRank = []int{4, 5, 1, 6, 2, 3}
	KrackaFMFRank      = []int{5, 1, 3, 6, 4, 2}
	KrackaMultiRank    = []int{5, 1, 3, 6, 4, 2}
	KrackaTOPSISRank   = []int{5, 1, 3, 6, 4, 2}
)

// Reference scores of the Kracka dataset after vector scaling with unit
// weights.
var (
	KrackaRatioScores = []float64{
		-1.6244786664707023, -0.2523388918418189, -0.846350373541196,
		-2.2336351941613266, -1.1869824201365007, -0.7745620813161038,
	}
	KrackaRefPointScores = []float64{
		0.6893493115817941, 0.6998669738997617, 0.598171037726628,
		0.8595569566625207, 0.6002238005494208, 0.6148059547734981,
	}
	KrackaFMFScores = []float64{
		1.233813535771536, 11.90961455070459, 4.7903554588224875,
		-0.237964448770696, 2.790659249415201, 5.533055710703893,
	}
	KrackaTOPSISSimilarity = []float64{
		0.40298016055152197, 0.6606153497257038, 0.5819162113183235,
		0.3393846502742961, 0.5118647096015743, 0.5938114656928033,
	}
)

// Kracka returns the dataset as a DecisionMatrix with unit weights.
func Kracka() (*domain.DecisionMatrix, error) {
	return domain.Mkdm(KrackaMatrix, KrackaObjectives)
}
