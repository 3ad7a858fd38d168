package application

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-criteria/internal/domain"
)

var stepNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_\-.]*$`)

// ValidateStageParameters validates the parameters for a specific stage
// type before the stage is built, ensuring values meet the constraints of
// the type. The stage constructors validate again; this pass exists so a
// whole pipeline document is rejected before any stage is created.
// Types without a built-in rule set, such as custom registrations, pass
// unchecked.
func ValidateStageParameters(stageType string, params yaml.Node) error {
	paramMap, err := decodeParameters(params)
	if err != nil {
		return err
	}

	switch stageType {
	case StageSumNormalizer, StageMaxNormalizer, StageVectorScaler, StageMinMaxScaler:
		return validateTargetParams(paramMap, "target")
	case StageStandardScaler:
		return validateStandardScalerParams(paramMap)
	case StageEqualWeighter:
		return validateEqualWeighterParams(paramMap)
	case StageCritic:
		return validateCriticParams(paramMap)
	case StageTOPSIS:
		return validateTOPSISParams(paramMap)
	case StageMinimizeToMaximize, StageStdWeighter, StageRatioMOORA, StageRefPointMOORA,
		StageFMFMOORA, StageMultiMOORA, StageWeightedSum:
		return validateNoParams(stageType, paramMap)
	default:
		// Custom stages validate their own parameters in their factory.
		return nil
	}
}

func decodeParameters(params yaml.Node) (map[string]any, error) {
	paramMap := make(map[string]any)
	if params.IsZero() {
		return paramMap, nil
	}
	if err := params.Decode(&paramMap); err != nil {
		return nil, fmt.Errorf("%w: failed to decode parameters: %v", domain.ErrInvalidValue, err)
	}
	return paramMap, nil
}

func paramError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidValue, fmt.Sprintf(format, args...))
}

// validateTargetParams accepts only the target key, which must be one of
// matrix, weights or both.
func validateTargetParams(params map[string]any, allowed ...string) error {
	for key := range params {
		if !slices.Contains(allowed, key) {
			return paramError("unknown parameter %q", key)
		}
	}
	if target, ok := params["target"]; ok {
		s, ok := target.(string)
		if !ok {
			return paramError("target must be a string")
		}
		if !slices.Contains([]string{"matrix", "weights", "both"}, s) {
			return paramError("invalid target %q: must be one of matrix, weights, both", s)
		}
	}
	return nil
}

// validateStandardScalerParams checks the target and the two boolean
// switches of the standard scaler.
func validateStandardScalerParams(params map[string]any) error {
	if err := validateTargetParams(params, "target", "with_mean", "with_std"); err != nil {
		return err
	}
	for _, key := range []string{"with_mean", "with_std"} {
		if v, ok := params[key]; ok {
			if _, ok := v.(bool); !ok {
				return paramError("%s must be a boolean", key)
			}
		}
	}
	return nil
}

// validateEqualWeighterParams requires a positive base_value when given.
func validateEqualWeighterParams(params map[string]any) error {
	for key := range params {
		if key != "base_value" {
			return paramError("unknown parameter %q", key)
		}
	}
	if v, ok := params["base_value"]; ok {
		switch n := v.(type) {
		case float64:
			if n <= 0 {
				return paramError("base_value must be positive")
			}
		case int:
			if n <= 0 {
				return paramError("base_value must be positive")
			}
		default:
			return paramError("base_value must be a number")
		}
	}
	return nil
}

// validateCriticParams checks the correlation method and the scale flag.
func validateCriticParams(params map[string]any) error {
	for key := range params {
		if key != "correlation" && key != "scale" {
			return paramError("unknown parameter %q", key)
		}
	}
	if v, ok := params["correlation"]; ok {
		s, ok := v.(string)
		if !ok {
			return paramError("correlation must be a string")
		}
		if s != "pearson" && s != "spearman" {
			return paramError("invalid correlation %q: must be pearson or spearman", s)
		}
	}
	if v, ok := params["scale"]; ok {
		if _, ok := v.(bool); !ok {
			return paramError("scale must be a boolean")
		}
	}
	return nil
}

// validateTOPSISParams checks the distance metric.
func validateTOPSISParams(params map[string]any) error {
	for key := range params {
		if key != "metric" {
			return paramError("unknown parameter %q", key)
		}
	}
	if v, ok := params["metric"]; ok {
		s, ok := v.(string)
		if !ok {
			return paramError("metric must be a string")
		}
		if !slices.Contains([]string{"euclidean", "cityblock", "chebyshev"}, s) {
			return paramError("invalid metric %q: must be one of euclidean, cityblock, chebyshev", s)
		}
	}
	return nil
}

func validateNoParams(stageType string, params map[string]any) error {
	if len(params) > 0 {
		return paramError("%s takes no parameters", stageType)
	}
	return nil
}

// RegisterPipelineValidators registers the semver and stepname rules used
// by the pipeline configuration structs.
func RegisterPipelineValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("semver", validateSemver); err != nil {
		return fmt.Errorf("failed to register semver validator: %w", err)
	}

	if err := v.RegisterValidation("stepname", validateStepName); err != nil {
		return fmt.Errorf("failed to register stepname validator: %w", err)
	}

	return nil
}

// validateSemver validates that a string is a release version X.Y.Z
// without a "v" prefix, pre-release or build metadata. Leading zeros and
// signs are rejected.
func validateSemver(fl validator.FieldLevel) bool {
	v := "v" + fl.Field().String()
	return semver.IsValid(v) && semver.Canonical(v) == v && semver.Prerelease(v) == ""
}

// validateStepName validates that a step name starts with a letter or digit
// and contains only letters, digits, '_', '-' and '.'.
func validateStepName(fl validator.FieldLevel) bool {
	return stepNamePattern.MatchString(fl.Field().String())
}
