package ports

import "fmt"

// Target selects which part of a decision matrix a matrix-and-weights
// transformer rewrites.
type Target string

// Supported targets.
const (
	TargetMatrix  Target = "matrix"
	TargetWeights Target = "weights"
	TargetBoth    Target = "both"
)

// ParseTarget resolves a target name. Unknown names fail with
// ErrInvalidTarget.
func ParseTarget(name string) (Target, error) {
	switch t := Target(name); t {
	case TargetMatrix, TargetWeights, TargetBoth:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (expected one of matrix, weights, both)", ErrInvalidTarget, name)
}

// IncludesMatrix reports whether the matrix values are rewritten.
func (t Target) IncludesMatrix() bool { return t == TargetMatrix || t == TargetBoth }

// IncludesWeights reports whether the weights are rewritten.
func (t Target) IncludesWeights() bool { return t == TargetWeights || t == TargetBoth }
