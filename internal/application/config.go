package application

import (
	"gopkg.in/yaml.v3"
)

// PipelineConfig defines the complete specification of a decision pipeline
// and serves as the primary configuration entry point for the system.
// Use PipelineConfig when a pipeline is described declaratively in YAML
// rather than assembled in code.
type PipelineConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the pipeline
	// including name, tags, and labels for organization and discovery.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Steps lists the pipeline stages in execution order. Every step but
	// the last must be a transformer and the last a decision maker.
	Steps []StepConfig `yaml:"steps" validate:"required,min=1,dive"`
}

// Metadata provides descriptive information about a pipeline to support
// organization and discovery.
type Metadata struct {
	// Name is the human-readable identifier for this pipeline.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides a detailed explanation of the pipeline's
	// purpose.
	Description string `yaml:"description" validate:"max=1000"`
	// Tags are categorical labels that enable filtering and grouping.
	Tags []string `yaml:"tags" validate:"max=20,dive,min=1,max=50"`
	// Labels are arbitrary key-value pairs for integration with external
	// systems.
	Labels map[string]string `yaml:"labels" validate:"max=50"`
}

// StepConfig defines a single pipeline step.
type StepConfig struct {
	// Name is the unique step name. When omitted the stage default name is
	// used, numbered like Mkpipe does when several steps share it.
	Name string `yaml:"name,omitempty" validate:"omitempty,stepname"`
	// Type selects the stage implementation from the StageRegistry.
	Type string `yaml:"type" validate:"required,min=1,max=100"`
	// Parameters contains type-specific configuration as flexible YAML
	// that is validated according to the stage type requirements.
	Parameters yaml.Node `yaml:"parameters,omitempty"`
}

// DecisionMatrixConfig is the YAML document read by LoadDecisionMatrix.
// Objectives accept every alias Objective understands ("min", "max",
// "<", ">", -1, 1, ...).
type DecisionMatrixConfig struct {
	Matrix       [][]float64 `yaml:"matrix" validate:"required,min=1,dive,min=1"`
	Objectives   []any       `yaml:"objectives" validate:"required,min=1"`
	Weights      []float64   `yaml:"weights,omitempty"`
	Alternatives []string    `yaml:"alternatives,omitempty"`
	Criteria     []string    `yaml:"criteria,omitempty"`
}
