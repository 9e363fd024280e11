// Package diagnostics defines the error and violation types surfaced by the
// hint-to-check pipeline.
//
// Messages produced deep inside canonicalization, compilation or synthesis
// do not know which call site they belong to. They embed Placeholder
// instead, and the factory substitutes a description of the concrete call
// site through ReplacePlaceholder before the error reaches the caller.
package diagnostics

import (
	"fmt"
	"strings"
)

// Placeholder marks the spot in a message where the call-site description
// is substituted.
const Placeholder = "$%CALLSITE/~"

// placeholderError is implemented by every error type in this package.
type placeholderError interface {
	error
	withTarget(target string) error
}

// ReplacePlaceholder returns err with every Placeholder in its message
// replaced by target. The concrete error type is preserved. Errors not
// defined by this package are returned unchanged.
func ReplacePlaceholder(err error, target string) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(placeholderError); ok {
		return pe.withTarget(target)
	}
	return err
}

// Substitute replaces Placeholder in msg with target, dropping the
// placeholder entirely when target is empty.
func Substitute(msg, target string) string {
	return strings.ReplaceAll(msg, Placeholder, target)
}

// ConfigurationError reports a malformed configuration.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

func (e *ConfigurationError) withTarget(target string) error {
	return &ConfigurationError{Msg: Substitute(e.Msg, target)}
}

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// HintUnsupportedError reports a hint built from a construct with no
// defined checking semantics.
type HintUnsupportedError struct {
	Hint string
	Msg  string
}

func (e *HintUnsupportedError) Error() string { return e.Msg }

func (e *HintUnsupportedError) withTarget(target string) error {
	return &HintUnsupportedError{Hint: e.Hint, Msg: Substitute(e.Msg, target)}
}

func NewHintUnsupportedError(hint string, format string, args ...any) *HintUnsupportedError {
	return &HintUnsupportedError{
		Hint: hint,
		Msg:  Placeholder + "type hint " + hint + " unsupported: " + fmt.Sprintf(format, args...),
	}
}

// PortabilityError reports relative forward references, which can only be
// resolved by walking the caller's stack.
type PortabilityError struct {
	Refs []string
	Msg  string
}

func (e *PortabilityError) Error() string { return e.Msg }

func (e *PortabilityError) withTarget(target string) error {
	return &PortabilityError{Refs: e.Refs, Msg: Substitute(e.Msg, target)}
}

func NewPortabilityError(hint string, refs []string) *PortabilityError {
	return &PortabilityError{
		Refs: refs,
		Msg: fmt.Sprintf("%stype hint %s contains relative forward reference(s) %s; "+
			"forward references must be absolute (e.g. \"pkg.Name\") and registered with hint.Register",
			Placeholder, hint, strings.Join(quoteAll(refs), ", ")),
	}
}

// InvalidGeneratedCodeError reports generated source that failed to load.
// It always indicates a defect in the code generator.
type InvalidGeneratedCodeError struct {
	Name   string
	Source string
	Err    error
}

func (e *InvalidGeneratedCodeError) Error() string {
	return fmt.Sprintf("generated checker %s invalid: %v\n%s", e.Name, e.Err, e.Source)
}

func (e *InvalidGeneratedCodeError) Unwrap() error { return e.Err }

func (e *InvalidGeneratedCodeError) withTarget(string) error { return e }

func NewInvalidGeneratedCodeError(name, source string, err error) *InvalidGeneratedCodeError {
	return &InvalidGeneratedCodeError{Name: name, Source: source, Err: err}
}

// ForwardRefError reports an absolute forward reference that could not be
// resolved when a check ran.
type ForwardRefError struct {
	Ref string
	Msg string
}

func (e *ForwardRefError) Error() string { return e.Msg }

func (e *ForwardRefError) withTarget(target string) error {
	return &ForwardRefError{Ref: e.Ref, Msg: Substitute(e.Msg, target)}
}

func NewForwardRefError(ref string) *ForwardRefError {
	return &ForwardRefError{
		Ref: ref,
		Msg: fmt.Sprintf("%sforward reference %q unresolvable: no type registered under that name", Placeholder, ref),
	}
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
