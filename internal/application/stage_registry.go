package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-criteria/infrastructure/stages"
	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.StageRegistry = (*DefaultStageRegistry)(nil)

// Registry errors.
var (
	// ErrUnknownStageType indicates a type identifier without a factory.
	ErrUnknownStageType = fmt.Errorf("%w: unknown stage type", domain.ErrKeyNotFound)

	// ErrStageTypeRegistered indicates a second registration of a type.
	ErrStageTypeRegistered = fmt.Errorf("%w: stage type already registered", domain.ErrInvalidValue)
)

// Built-in stage type identifiers.
const (
	StageMinimizeToMaximize = "minimize_to_maximize"
	StageSumNormalizer      = "sum_normalizer"
	StageMaxNormalizer      = "max_normalizer"
	StageVectorScaler       = "vector_scaler"
	StageStandardScaler     = "standard_scaler"
	StageMinMaxScaler       = "minmax_scaler"
	StageEqualWeighter      = "equal_weighter"
	StageStdWeighter        = "std_weighter"
	StageCritic             = "critic"
	StageRatioMOORA         = "ratio_moora"
	StageRefPointMOORA      = "refpoint_moora"
	StageFMFMOORA           = "fmf_moora"
	StageMultiMOORA         = "multimoora"
	StageTOPSIS             = "topsis"
	StageWeightedSum        = "weighted_sum"
)

// DefaultStageRegistry implements the StageRegistry interface providing
// a factory for creating stages based on type and configuration.
// It supports dynamic registration of custom factories.
type DefaultStageRegistry struct {
	// factories maps stage type strings to their factory functions.
	factories map[string]ports.StageFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewDefaultStageRegistry creates a new stage registry with every built-in
// stage type pre-registered.
func NewDefaultStageRegistry() *DefaultStageRegistry {
	r := &DefaultStageRegistry{factories: make(map[string]ports.StageFactory)}
	r.registerBuiltinFactories()
	return r
}

// registerBuiltinFactories registers the stages provided by the
// stages package.
func (r *DefaultStageRegistry) registerBuiltinFactories() {
	builtins := map[string]ports.StageFactory{
		StageMinimizeToMaximize: stages.CreateMinimizeToMaximizeFromConfig,
		StageSumNormalizer:      stages.CreateSumNormalizerFromConfig,
		StageMaxNormalizer:      stages.CreateMaxNormalizerFromConfig,
		StageVectorScaler:       stages.CreateVectorScalerFromConfig,
		StageStandardScaler:     stages.CreateStandardScalerFromConfig,
		StageMinMaxScaler:       stages.CreateMinMaxScalerFromConfig,
		StageEqualWeighter:      stages.CreateEqualWeighterFromConfig,
		StageStdWeighter:        stages.CreateStdWeighterFromConfig,
		StageCritic:             stages.CreateCriticFromConfig,
		StageRatioMOORA:         stages.CreateRatioMOORAFromConfig,
		StageRefPointMOORA:      stages.CreateReferencePointMOORAFromConfig,
		StageFMFMOORA:           stages.CreateFullMultiplicativeFormFromConfig,
		StageMultiMOORA:         stages.CreateMultiMOORAFromConfig,
		StageTOPSIS:             stages.CreateTOPSISFromConfig,
		StageWeightedSum:        stages.CreateWeightedSumModelFromConfig,
	}
	for stageType, factory := range builtins {
		r.factories[stageType] = factory
	}
}

// Register adds a factory for a custom stage type. The identifier must be
// non-empty and not yet registered.
func (r *DefaultStageRegistry) Register(stageType string, factory ports.StageFactory) error {
	if stageType == "" {
		return fmt.Errorf("%w: stage type cannot be empty", domain.ErrInvalidValue)
	}
	if factory == nil {
		return fmt.Errorf("%w: factory function cannot be nil", domain.ErrMissingArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[stageType]; exists {
		return fmt.Errorf("%w: %s", ErrStageTypeRegistered, stageType)
	}
	r.factories[stageType] = factory
	return nil
}

// CreateStage creates a new stage of the given type. An empty name keeps
// the stage default name. Unknown types fail with ErrUnknownStageType and
// suggest the closest registered type.
func (r *DefaultStageRegistry) CreateStage(stageType, name string, params map[string]any) (ports.Stage, error) {
	r.mu.RLock()
	factory, exists := r.factories[stageType]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s%s", ErrUnknownStageType, stageType, suggestion(stageType, r.SupportedTypes()))
	}

	if params == nil {
		params = make(map[string]any)
	}

	stage, err := factory(name, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stage %q of type %s: %w", name, stageType, err)
	}
	return stage, nil
}

// IsRegistered reports whether stageType has a factory.
func (r *DefaultStageRegistry) IsRegistered(stageType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.factories[stageType]
	return ok
}

// SupportedTypes returns a sorted list of all registered stage types.
func (r *DefaultStageRegistry) SupportedTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for stageType := range r.factories {
		types = append(types, stageType)
	}
	slices.Sort(types)
	return types
}
