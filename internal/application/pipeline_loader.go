package application

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-criteria/internal/domain"
	"github.com/ahrav/go-criteria/internal/ports"
)

// PipelineLoader provides YAML configuration parsing, validation, and
// caching for decision pipelines, transforming declarative YAML
// specifications into executable Pipelines.
// Use PipelineLoader to load pipelines from files or readers while
// benefiting from SHA256-based caching and comprehensive validation.
type PipelineLoader struct {
	// validator performs struct field validation and the custom rules
	// registered by RegisterPipelineValidators.
	validator *validator.Validate
	// registry provides factory methods for creating stages based on
	// their type and configuration parameters.
	registry ports.StageRegistry
	// opts are applied to every pipeline the loader builds.
	opts []PipelineOption
	// cache stores built pipelines indexed by SHA256 hash of the normalized
	// configuration. Pipelines are immutable, so sharing them is safe.
	cache map[string]*Pipeline
	// cacheMu provides thread-safe access to the cache map.
	cacheMu sync.RWMutex
	// sf prevents duplicate pipeline construction when multiple goroutines
	// request the same configuration simultaneously.
	sf singleflight.Group
}

// NewPipelineLoader creates a new pipeline loader with validation
// capabilities and an empty cache. opts, such as WithObserver, are applied
// to every pipeline it builds.
// NewPipelineLoader returns an error if validator registration fails.
func NewPipelineLoader(registry ports.StageRegistry, opts ...PipelineOption) (*PipelineLoader, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: stage registry", domain.ErrMissingArgument)
	}

	v := validator.New()
	if err := RegisterPipelineValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &PipelineLoader{
		validator: v,
		registry:  registry,
		opts:      opts,
		cache:     make(map[string]*Pipeline),
	}, nil
}

// load is the common implementation for loading pipelines from byte data,
// utilizing singleflight to prevent duplicate construction and SHA256-based
// caching for efficiency.
func (pl *PipelineLoader) load(data []byte) (*Pipeline, error) {
	config, err := pl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config, not the raw bytes, so formatting
	// differences share a cache entry.
	hash, err := pl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := pl.sf.Do(hash, func() (any, error) {
		if pipeline, ok := pl.getCachedPipeline(hash); ok {
			return pipeline, nil
		}

		if err := pl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		pipeline, err := pl.buildPipeline(config)
		if err != nil {
			return nil, fmt.Errorf("failed to build pipeline: %w", err)
		}

		pl.cachePipeline(hash, pipeline)
		return pipeline, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Pipeline), nil
}

// LoadFromFile loads and builds a pipeline from a YAML file.
// LoadFromFile returns an error if file reading, parsing, validation, or
// pipeline construction fails.
func (pl *PipelineLoader) LoadFromFile(path string) (*Pipeline, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return pl.load(data)
}

// LoadFromReader loads and builds a pipeline from an io.Reader.
// LoadFromReader reads all data into memory and performs the same
// validation as LoadFromFile.
func (pl *PipelineLoader) LoadFromReader(r io.Reader) (*Pipeline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return pl.load(data)
}

// parseYAML unmarshals YAML byte data into a PipelineConfig using strict
// decoding, so configuration typos are not silently ignored.
func (pl *PipelineLoader) parseYAML(data []byte) (*PipelineConfig, error) {
	var config PipelineConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("%w: YAML decode failed: %v", domain.ErrInvalidValue, err)
	}
	return &config, nil
}

// validateConfig performs struct field validation and the semantic checks
// struct tags cannot express.
func (pl *PipelineLoader) validateConfig(config *PipelineConfig) error {
	if err := pl.validator.Struct(config); err != nil {
		return fmt.Errorf("%w: struct validation failed: %v", domain.ErrInvalidValue, err)
	}

	if err := pl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}

	return nil
}

// validateSemantics checks that every step type is registered, that
// explicit step names are unique and that the parameters of every step
// pass ValidateStageParameters.
func (pl *PipelineLoader) validateSemantics(config *PipelineConfig) error {
	names := make(map[string]int)
	for i, step := range config.Steps {
		if !pl.registry.IsRegistered(step.Type) {
			return fmt.Errorf("step %d: %w: %s%s", i, ErrUnknownStageType, step.Type,
				suggestion(step.Type, pl.registry.SupportedTypes()))
		}
		if step.Name != "" {
			if prev, exists := names[step.Name]; exists {
				return fmt.Errorf("%w: %q used by steps %d and %d", ErrDuplicateStep, step.Name, prev, i)
			}
			names[step.Name] = i
		}
		if err := ValidateStageParameters(step.Type, step.Parameters); err != nil {
			return fmt.Errorf("step %d (%s) parameter validation failed: %w", i, step.Type, err)
		}
	}
	return nil
}

// buildPipeline creates every stage through the registry and assembles
// them. Unnamed steps take the stage default name with the Mkpipe
// numbering for repeats.
func (pl *PipelineLoader) buildPipeline(config *PipelineConfig) (*Pipeline, error) {
	built := make([]ports.Stage, len(config.Steps))
	for i, sc := range config.Steps {
		params, err := decodeParameters(sc.Parameters)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		stage, err := pl.registry.CreateStage(sc.Type, sc.Name, params)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		built[i] = stage
	}

	steps := nameStages(built)
	for i, sc := range config.Steps {
		if sc.Name != "" {
			steps[i].Name = sc.Name
		}
	}
	return NewPipeline(steps, pl.opts...)
}

// calculateConfigHash computes the SHA256 hash of a normalized
// PipelineConfig for cache indexing.
func (pl *PipelineLoader) calculateConfigHash(config *PipelineConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

// getCachedPipeline returns a cached pipeline by hash.
func (pl *PipelineLoader) getCachedPipeline(hash string) (*Pipeline, bool) {
	pl.cacheMu.RLock()
	defer pl.cacheMu.RUnlock()

	p, ok := pl.cache[hash]
	return p, ok
}

// cachePipeline stores a pipeline under hash, replacing any entry.
func (pl *PipelineLoader) cachePipeline(hash string, p *Pipeline) {
	pl.cacheMu.Lock()
	defer pl.cacheMu.Unlock()

	pl.cache[hash] = p
}

// ClearCache removes all cached pipelines, forcing subsequent loads to
// rebuild from source.
func (pl *PipelineLoader) ClearCache() {
	pl.cacheMu.Lock()
	defer pl.cacheMu.Unlock()

	pl.cache = make(map[string]*Pipeline)
}
