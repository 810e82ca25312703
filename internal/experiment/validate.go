package experiment

import (
	"fmt"
	"math"
)

// Validation error codes (E100-E199).
const (
	ErrNameEmpty          = "E100" // name is required
	ErrUnknownFamily      = "E101" // family outside the closed set
	ErrShotsInvalid       = "E102" // shots must be >= 1
	ErrAngleInvalid       = "E103" // zeno angle must be finite and non-zero
	ErrCheckpointsMissing = "E104" // zeno needs at least one checkpoint
	ErrCheckpointInvalid  = "E105" // checkpoint counts must be >= 1
	ErrModeInvalid        = "E106" // zeno mode outside {survival, reset}
	ErrDelayInvalid       = "E107" // cat delays must be >= 0
	ErrStagesInvalid      = "E108" // bomb stages must be >= 1
	ErrThresholdInvalid   = "E109" // margins and cutoffs live in [0,1]
)

// ValidationError describes one configuration contract violation.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks every configuration invariant and returns all violations
// found (it does not fail fast). A malformed config is a programming or
// catalog error, never a runtime-recoverable condition.
func Validate(cfg Config) []ValidationError {
	var errs []ValidationError

	if cfg.Name == "" {
		errs = append(errs, ValidationError{
			Field: "name", Code: ErrNameEmpty,
			Message: "name is required and must be non-empty",
		})
	}
	if !KnownFamily(cfg.Family) {
		errs = append(errs, ValidationError{
			Field: "family", Code: ErrUnknownFamily,
			Message: fmt.Sprintf("unknown family %q", cfg.Family),
		})
	}
	if cfg.Shots < 1 {
		errs = append(errs, ValidationError{
			Field: "shots", Code: ErrShotsInvalid,
			Message: fmt.Sprintf("shots %d < 1", cfg.Shots),
		})
	}

	switch cfg.Family {
	case FamilyZeno:
		if math.IsNaN(cfg.Angle) || math.IsInf(cfg.Angle, 0) || cfg.Angle == 0 {
			errs = append(errs, ValidationError{
				Field: "angle", Code: ErrAngleInvalid,
				Message: "total rotation angle must be finite and non-zero",
			})
		}
		if len(cfg.Checkpoints) == 0 {
			errs = append(errs, ValidationError{
				Field: "checkpoints", Code: ErrCheckpointsMissing,
				Message: "at least one checkpoint count is required",
			})
		}
		for i, n := range cfg.Checkpoints {
			if n < 1 {
				errs = append(errs, ValidationError{
					Field: fmt.Sprintf("checkpoints[%d]", i), Code: ErrCheckpointInvalid,
					Message: fmt.Sprintf("checkpoint count %d < 1 (N = 0 is the unobserved circuit, not a staged one)", n),
				})
			}
		}
		if cfg.Mode != ZenoSurvival && cfg.Mode != ZenoReset {
			errs = append(errs, ValidationError{
				Field: "mode", Code: ErrModeInvalid,
				Message: fmt.Sprintf("mode %q is not %q or %q", cfg.Mode, ZenoSurvival, ZenoReset),
			})
		}
	case FamilyCat:
		if len(cfg.Delays) == 0 {
			errs = append(errs, ValidationError{
				Field: "delays", Code: ErrDelayInvalid,
				Message: "at least one decoherence delay is required",
			})
		}
		for i, d := range cfg.Delays {
			if d < 0 {
				errs = append(errs, ValidationError{
					Field: fmt.Sprintf("delays[%d]", i), Code: ErrDelayInvalid,
					Message: fmt.Sprintf("delay %d < 0", d),
				})
			}
		}
	case FamilyBomb:
		if cfg.Stages < 1 {
			errs = append(errs, ValidationError{
				Field: "stages", Code: ErrStagesInvalid,
				Message: fmt.Sprintf("stages %d < 1", cfg.Stages),
			})
		}
	}

	for _, th := range []struct {
		field string
		value float64
	}{
		{"thresholds.margin", cfg.Thresholds.Margin},
		{"thresholds.weak_window", cfg.Thresholds.WeakWindow},
		{"thresholds.cutoff", cfg.Thresholds.Cutoff},
	} {
		if th.value < 0 || th.value > 1 || math.IsNaN(th.value) {
			errs = append(errs, ValidationError{
				Field: th.field, Code: ErrThresholdInvalid,
				Message: fmt.Sprintf("%g outside [0,1]", th.value),
			})
		}
	}

	return errs
}
