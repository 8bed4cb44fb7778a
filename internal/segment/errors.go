package segment

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a configuration or operation payload is
// malformed or misses a required field.
var ErrInvalidConfig = errors.New("invalid configuration")

// UnsupportedKindError reports an unknown segment or operation kind.
type UnsupportedKindError struct {
	Category string // "segment" or "operation"
	Kind     string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported %s kind %q", e.Category, e.Kind)
}

// MissingResourceError reports a media segment built without a local resource.
type MissingResourceError struct {
	Kind string
}

func (e *MissingResourceError) Error() string {
	return fmt.Sprintf("segment kind %q requires a local resource", e.Kind)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
}
