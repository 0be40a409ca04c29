package runtime

import "fmt"

// ValueUnavailable reports an operation invoked against a Cookie variant
// that cannot serve it, e.g. requesting $file inside a protocol callback.
// It is always fatal to the current callback.
type ValueUnavailable struct {
	What     string
	Location string
}

func (e *ValueUnavailable) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s (%s)", e.What, e.Location)
	}
	return e.What
}

// TypeMismatch reports an argument-count or type mismatch between a
// declared event and its installed handler signature.
type TypeMismatch struct {
	Message  string
	Location string
}

func (e *TypeMismatch) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("type mismatch: %s (%s)", e.Message, e.Location)
	}
	return fmt.Sprintf("type mismatch: %s", e.Message)
}

// InvalidValue reports an unusable value produced during argument
// conversion.
type InvalidValue struct {
	Message  string
	Location string
}

func (e *InvalidValue) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("invalid value: %s (%s)", e.Message, e.Location)
	}
	return fmt.Sprintf("invalid value: %s", e.Message)
}

// HostError wraps a failure reported by the host framework itself.
type HostError struct {
	Message string
}

func (e *HostError) Error() string { return e.Message }

func unavailable(what, location string) error {
	return &ValueUnavailable{What: what, Location: location}
}
