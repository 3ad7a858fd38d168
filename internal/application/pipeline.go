// Package application provides the pipeline orchestration of the decision
// engine: building and evaluating pipelines in code or from YAML, the stage
// registry, and the comparison of several pipelines on one matrix.
package application

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

// Pipeline errors. Each wraps the domain error class it belongs to.
var (
	// ErrInvalidStepName indicates an empty step name.
	ErrInvalidStepName = fmt.Errorf("%w: step name must be a non-empty string", domain.ErrInvalidType)

	// ErrDuplicateStep indicates two steps sharing a name.
	ErrDuplicateStep = fmt.Errorf("%w: duplicate step name", domain.ErrInvalidValue)

	// ErrStageOrder indicates a pipeline that is not a sequence of
	// transformers closed by exactly one decision maker.
	ErrStageOrder = fmt.Errorf("%w: invalid stage order", domain.ErrInvalidType)

	// ErrStepNotFound indicates an index or name that matches no step, or a
	// key of an unsupported type.
	ErrStepNotFound = fmt.Errorf("%w: step not found", domain.ErrKeyNotFound)

	// ErrInvalidSlice indicates a slice with a stride or one that does not
	// end in a decision maker.
	ErrInvalidSlice = fmt.Errorf("%w: invalid pipeline slice", domain.ErrInvalidValue)
)

// StepError reports the pipeline step whose stage failed during Evaluate.
type StepError struct {
	// Step is the step name.
	Step string

	// Index is the zero-based step position.
	Index int

	// Err is the stage error.
	Err error
}

// Error implements the error interface for StepError.
func (e *StepError) Error() string {
	return fmt.Sprintf("pipeline step %d (%s): %v", e.Index, e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *StepError) Unwrap() error { return e.Err }

// Step is a named pipeline stage.
type Step struct {
	Name  string
	Stage ports.Stage
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithObserver reports every step of Evaluate to obs.
func WithObserver(obs ports.StepObserver) PipelineOption {
	return func(p *Pipeline) { p.observer = obs }
}

// Pipeline is an ordered composition of transformers ending in one
// decision maker. It is immutable after construction and safe for
// concurrent use as long as its stages and observer are.
type Pipeline struct {
	steps    []Step
	index    map[string]int
	observer ports.StepObserver
}

// NewPipeline builds a pipeline from explicit steps.
//
// Every name must be a non-empty string and unique. Every stage but the
// last must implement ports.Transformer and the last must implement
// ports.DecisionMaker; violations fail with ErrStageOrder naming the
// offending position and step.
func NewPipeline(steps []Step, opts ...PipelineOption) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: a pipeline needs at least a decision maker", ErrStageOrder)
	}

	p := &Pipeline{
		steps: slices.Clone(steps),
		index: make(map[string]int, len(steps)),
	}
	for i, step := range p.steps {
		if step.Name == "" {
			return nil, fmt.Errorf("%w: step %d", ErrInvalidStepName, i)
		}
		if prev, exists := p.index[step.Name]; exists {
			return nil, fmt.Errorf("%w: %q used by steps %d and %d", ErrDuplicateStep, step.Name, prev, i)
		}
		p.index[step.Name] = i

		if step.Stage == nil {
			return nil, fmt.Errorf("%w: step %d (%s) has no stage", ErrStageOrder, i, step.Name)
		}
		last := i == len(p.steps)-1
		if _, ok := step.Stage.(ports.DecisionMaker); last && !ok {
			return nil, fmt.Errorf("%w: last step %d (%s) of type %T is not a decision maker",
				ErrStageOrder, i, step.Name, step.Stage)
		}
		if _, ok := step.Stage.(ports.Transformer); !last && !ok {
			return nil, fmt.Errorf("%w: step %d (%s) of type %T is not a transformer",
				ErrStageOrder, i, step.Name, step.Stage)
		}
	}

	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Mkpipe builds a pipeline from stages, naming every step after its stage.
// Names that occur more than once are numbered in order: two critic stages
// become critic-1 and critic-2.
func Mkpipe(stages ...ports.Stage) (*Pipeline, error) {
	return NewPipeline(nameStages(stages))
}

func nameStages(stages []ports.Stage) []Step {
	counts := make(map[string]int, len(stages))
	for _, s := range stages {
		if s != nil {
			counts[s.Name()]++
		}
	}

	seen := make(map[string]int, len(stages))
	steps := make([]Step, len(stages))
	for i, s := range stages {
		if s == nil {
			steps[i] = Step{Name: fmt.Sprintf("step-%d", i), Stage: nil}
			continue
		}
		name := s.Name()
		if counts[name] > 1 {
			seen[name]++
			name = fmt.Sprintf("%s-%d", name, seen[name])
		}
		steps[i] = Step{Name: name, Stage: s}
	}
	return steps
}

// Evaluate runs dm through every transformer in order and returns the
// result of the final decision maker. The context is checked between
// steps; a cancelled context stops the pipeline with ctx.Err().
func (p *Pipeline) Evaluate(ctx context.Context, dm *domain.DecisionMatrix) (*domain.Result, error) {
	if dm == nil {
		return nil, &domain.ArgumentError{Argument: "dm", Err: domain.ErrMissingArgument}
	}

	last := len(p.steps) - 1
	current := dm
	for i, step := range p.steps[:last] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		transformer := step.Stage.(ports.Transformer)

		var next *domain.DecisionMatrix
		err := p.observe(ctx, i, ports.StepKindTransformer, current, func() error {
			var err error
			next, err = transformer.Transform(current)
			return err
		})
		if err != nil {
			return nil, &StepError{Step: step.Name, Index: i, Err: err}
		}
		current = next
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	final := p.steps[last]
	maker := final.Stage.(ports.DecisionMaker)

	var result *domain.Result
	err := p.observe(ctx, last, ports.StepKindDecisionMaker, current, func() error {
		var err error
		result, err = maker.Evaluate(current)
		return err
	})
	if err != nil {
		return nil, &StepError{Step: final.Name, Index: last, Err: err}
	}
	return result, nil
}

// observe runs fn between the observer callbacks when an observer is set.
func (p *Pipeline) observe(ctx context.Context, i int, kind ports.StepKind, dm *domain.DecisionMatrix, fn func() error) error {
	if p.observer == nil {
		return fn()
	}
	rows, cols := dm.Shape()
	info := ports.StepInfo{
		Name:         p.steps[i].Name,
		Index:        i,
		Kind:         kind,
		Stage:        stageRepr(p.steps[i].Stage),
		Alternatives: rows,
		Criteria:     cols,
	}
	stepCtx := p.observer.OnStepStart(ctx, info)
	start := time.Now()
	err := fn()
	p.observer.OnStepEnd(stepCtx, info, time.Since(start), err)
	return err
}

// Len returns the number of steps.
func (p *Pipeline) Len() int { return len(p.steps) }

// Steps returns a copy of the ordered steps.
func (p *Pipeline) Steps() []Step { return slices.Clone(p.steps) }

// Names returns the step names in order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.Name
	}
	return names
}

// NamedSteps returns the stages keyed by step name. Use Names for the
// step order.
func (p *Pipeline) NamedSteps() map[string]ports.Stage {
	m := make(map[string]ports.Stage, len(p.steps))
	for _, s := range p.steps {
		m[s.Name] = s.Stage
	}
	return m
}

// At returns the stage at position i. Negative positions count from the
// end, so At(-1) is the decision maker.
func (p *Pipeline) At(i int) (ports.Stage, error) {
	n := len(p.steps)
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return nil, fmt.Errorf("%w: index %d out of range for %d steps", ErrStepNotFound, i, n)
	}
	return p.steps[j].Stage, nil
}

// Lookup returns the stage of the step called name.
func (p *Pipeline) Lookup(name string) (ports.Stage, error) {
	i, ok := p.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q%s", ErrStepNotFound, name, suggestion(name, p.Names()))
	}
	return p.steps[i].Stage, nil
}

// SliceKey selects a range of steps. Nil bounds are open; negative bounds
// count from the end. Step 0 and 1 both mean contiguous; any other stride
// is rejected.
type SliceKey struct {
	Start *int
	Stop  *int
	Step  int
}

// Span returns the SliceKey for steps[start:stop].
func Span(start, stop int) SliceKey { return SliceKey{Start: &start, Stop: &stop} }

// From returns the SliceKey for steps[start:].
func From(start int) SliceKey { return SliceKey{Start: &start} }

// Until returns the SliceKey for steps[:stop].
func Until(stop int) SliceKey { return SliceKey{Stop: &stop} }

// Slice returns a new pipeline over steps[start:stop], keeping names and
// the observer. Bounds follow the Go slice convention after negative
// values are counted from the end and out-of-range values are clamped.
// The slice must be non-empty and end in a decision maker.
func (p *Pipeline) Slice(start, stop int) (*Pipeline, error) {
	return p.slice(SliceKey{Start: &start, Stop: &stop})
}

func (p *Pipeline) slice(key SliceKey) (*Pipeline, error) {
	if key.Step != 0 && key.Step != 1 {
		return nil, fmt.Errorf("%w: stride %d, only contiguous slices are supported", ErrInvalidSlice, key.Step)
	}
	n := len(p.steps)
	start, stop := 0, n
	if key.Start != nil {
		start = clampIndex(*key.Start, n)
	}
	if key.Stop != nil {
		stop = clampIndex(*key.Stop, n)
	}
	if start >= stop {
		return nil, fmt.Errorf("%w: [%d:%d] selects no step", ErrInvalidSlice, start, stop)
	}
	if _, ok := p.steps[stop-1].Stage.(ports.DecisionMaker); !ok {
		return nil, fmt.Errorf("%w: [%d:%d] ends at step %q, which is not a decision maker",
			ErrInvalidSlice, start, stop, p.steps[stop-1].Name)
	}

	sub := &Pipeline{
		steps:    slices.Clone(p.steps[start:stop]),
		index:    make(map[string]int, stop-start),
		observer: p.observer,
	}
	for i, s := range sub.steps {
		sub.index[s.Name] = i
	}
	return sub, nil
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return min(max(i, 0), n)
}

// Get dispatches on the key type: an int is a position (see At), a string
// is a step name (see Lookup) and a SliceKey a range (see Slice). Stages
// are returned as ports.Stage and ranges as *Pipeline. Any other key,
// including nil, fails with ErrStepNotFound.
func (p *Pipeline) Get(key any) (any, error) {
	switch k := key.(type) {
	case int:
		return p.At(k)
	case string:
		return p.Lookup(k)
	case SliceKey:
		return p.slice(k)
	default:
		return nil, fmt.Errorf("%w: unsupported key %v of type %T", ErrStepNotFound, key, key)
	}
}

// String returns the pipeline representation, for example
// Pipeline(steps=[scale: VectorScaler(target=matrix), rank: TOPSIS(metric=euclidean)]).
func (p *Pipeline) String() string {
	parts := make([]string, len(p.steps))
	for i, s := range p.steps {
		parts[i] = s.Name + ": " + stageRepr(s.Stage)
	}
	return "Pipeline(steps=[" + strings.Join(parts, ", ") + "])"
}

func stageRepr(s ports.Stage) string {
	if str, ok := s.(fmt.Stringer); ok {
		return str.String()
	}
	return s.Name()
}
