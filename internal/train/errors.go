package train

import (
	"errors"
	"fmt"

	"github.com/sentio-ml/sentio/internal/data"
)

// ErrNonFiniteLoss marks a NaN or infinite training loss. The step
// that produced it fails and the run aborts; there is no recovery from
// a diverged state.
var ErrNonFiniteLoss = errors.New("non-finite loss")

// ConfigError wraps any invalid-configuration failure: impossible
// hyperparameters, dataset validation failures, a model that does not
// match its config. errors.Is sees through it, so callers can still
// match wrapped sentinels such as data.ErrConfig.
type ConfigError struct {
	Field string // offending config field, "" when not field-specific
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// configErrorf builds a field-tagged ConfigError.
func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Err: fmt.Errorf(format, args...)}
}

// wrapDataErr keeps the config/IO distinction across the data layer
// boundary: validation failures become ConfigError, IO failures pass
// through unchanged.
func wrapDataErr(err error) error {
	if errors.Is(err, data.ErrConfig) {
		return &ConfigError{Err: err}
	}
	return err
}
