package application

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ahrav/go-criteria/internal/domain"
)

// ErrDuplicatePipeline indicates two pipelines added under one name.
var ErrDuplicatePipeline = fmt.Errorf("%w: duplicate pipeline name", domain.ErrInvalidValue)

// Comparator evaluates several pipelines on the same decision matrix
// concurrently and collects their rankings side by side.
// Pipelines are immutable, so every goroutine shares the input matrix
// without copying it.
type Comparator struct {
	// names and pipelines are parallel and keep insertion order.
	names     []string
	pipelines []*Pipeline
	// nameSet tracks names for O(1) duplicate detection.
	nameSet map[string]struct{}
	// concurrencyLimit caps the number of pipelines running at once.
	// Defaults to runtime.NumCPU() * 2.
	concurrencyLimit int
	mu               sync.RWMutex
}

// NewComparator creates an empty Comparator.
func NewComparator() *Comparator {
	return &Comparator{
		nameSet:          make(map[string]struct{}),
		concurrencyLimit: runtime.NumCPU() * 2,
	}
}

// Add registers a pipeline under a unique name.
func (c *Comparator) Add(name string, p *Pipeline) error {
	if name == "" {
		return ErrInvalidStepName
	}
	if p == nil {
		return fmt.Errorf("%w: pipeline %q", domain.ErrMissingArgument, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.nameSet[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePipeline, name)
	}
	c.nameSet[name] = struct{}{}
	c.names = append(c.names, name)
	c.pipelines = append(c.pipelines, p)
	return nil
}

// SetConcurrencyLimit sets the maximum number of concurrent evaluations.
// Values below 1 restore the default.
func (c *Comparator) SetConcurrencyLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit < 1 {
		limit = runtime.NumCPU() * 2
	}
	c.concurrencyLimit = limit
}

// Evaluate runs every pipeline on dm. All pipelines run to completion; when
// some fail their errors are joined and no comparison is returned.
func (c *Comparator) Evaluate(ctx context.Context, dm *domain.DecisionMatrix) (*RankComparison, error) {
	c.mu.RLock()
	names := slices.Clone(c.names)
	pipelines := slices.Clone(c.pipelines)
	limit := c.concurrencyLimit
	c.mu.RUnlock()

	if len(pipelines) == 0 {
		return nil, fmt.Errorf("%w: comparator has no pipelines", domain.ErrMissingArgument)
	}

	results := make([]*domain.Result, len(pipelines))
	errs := make([]error, len(pipelines))
	semaphore := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, p := range pipelines {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				errs[i] = fmt.Errorf("pipeline %s: %w", names[i], ctx.Err())
				return
			}

			r, err := p.Evaluate(ctx, dm)
			if err != nil {
				errs[i] = fmt.Errorf("pipeline %s: %w", names[i], err)
				return
			}
			results[i] = r
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return newRankComparison(names, results)
}

// RankComparison holds the rankings several pipelines produced for the
// same alternatives.
type RankComparison struct {
	names   []string
	results []*domain.Result
}

func newRankComparison(names []string, results []*domain.Result) (*RankComparison, error) {
	anames := results[0].Anames()
	for i, r := range results[1:] {
		if !slices.Equal(anames, r.Anames()) {
			return nil, fmt.Errorf("%w: pipeline %s ranked different alternatives than %s",
				domain.ErrShapeMismatch, names[i+1], names[0])
		}
	}
	return &RankComparison{names: names, results: results}, nil
}

// Names returns the pipeline names in insertion order.
func (rc *RankComparison) Names() []string { return slices.Clone(rc.names) }

// Anames returns the ranked alternatives.
func (rc *RankComparison) Anames() []string { return rc.results[0].Anames() }

// Result returns the result of the named pipeline.
func (rc *RankComparison) Result(name string) (*domain.Result, error) {
	i := slices.Index(rc.names, name)
	if i < 0 {
		return nil, fmt.Errorf("%w: pipeline %q%s", domain.ErrKeyNotFound, name, suggestion(name, rc.names))
	}
	return rc.results[i], nil
}

// Ranks returns an alternatives x pipelines matrix of ranks.
func (rc *RankComparison) Ranks() *mat.Dense {
	n := len(rc.Anames())
	m := mat.NewDense(n, len(rc.results), nil)
	for j, r := range rc.results {
		for i, rank := range r.Rank() {
			m.Set(i, j, float64(rank))
		}
	}
	return m
}

// Correlation returns the pairwise Spearman correlation of the rankings.
// Ranks are already ranks, so Spearman reduces to Pearson on them. A
// ranking without spread correlates as NaN.
func (rc *RankComparison) Correlation() *mat.SymDense {
	ranks := rc.Ranks()
	_, k := ranks.Dims()
	cols := make([][]float64, k)
	for j := range cols {
		cols[j] = mat.Col(nil, j, ranks)
	}
	corr := mat.NewSymDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			corr.SetSym(a, b, stat.Correlation(cols[a], cols[b], nil))
		}
	}
	return corr
}
