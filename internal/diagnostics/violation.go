package diagnostics

import (
	"fmt"
	"strings"
)

// Violation describes a pith failing its hint.
type Violation struct {
	// CallSite names what was checked ("parameter \"x\"", "return value").
	// Before the factory fills it in it holds Placeholder.
	CallSite string
	// Hint is the description of the violated hint.
	Hint string
	// Pith is the offending value itself.
	Pith any
	// PithRepr is a truncated representation of Pith.
	PithRepr string
	// Path locates the offending element inside Pith ("[2]", "[\"k\"]"),
	// empty when Pith itself is at fault.
	Path string
	// Cause explains the innermost failure.
	Cause string
	// Seed is the random integer the checker sampled containers with.
	Seed uint64
}

// Message renders the violation as a single line.
func (v *Violation) Message() string {
	var b strings.Builder
	site := v.CallSite
	if site == "" {
		site = Placeholder
	}
	b.WriteString(site)
	b.WriteString(" ")
	b.WriteString(v.PithRepr)
	b.WriteString(" violates type hint ")
	b.WriteString(v.Hint)
	if v.Cause != "" {
		b.WriteString(", as ")
		if v.Path != "" {
			b.WriteString("element ")
			b.WriteString(v.Path)
			b.WriteString(" ")
		}
		b.WriteString(v.Cause)
	}
	b.WriteString(".")
	return b.String()
}

func (v *Violation) withSite(site string) *Violation {
	cp := *v
	if cp.CallSite == "" || strings.Contains(cp.CallSite, Placeholder) {
		cp.CallSite = strings.TrimSpace(Substitute(cp.CallSite, site))
		if cp.CallSite == "" {
			cp.CallSite = strings.TrimSpace(site)
		}
	}
	return &cp
}

// ViolationError is returned by raisers whose policy is to raise.
type ViolationError struct {
	Violation *Violation
}

func (e *ViolationError) Error() string { return e.Violation.Message() }

func (e *ViolationError) withTarget(target string) error {
	return &ViolationError{Violation: e.Violation.withSite(target)}
}

// ViolationWarning carries the same payload as ViolationError but is
// delivered as a non-fatal warning.
type ViolationWarning struct {
	Violation *Violation
}

func (w *ViolationWarning) String() string { return w.Violation.Message() }

// WithSite returns a copy of w whose call site is site.
func (w *ViolationWarning) WithSite(site string) *ViolationWarning {
	return &ViolationWarning{Violation: w.Violation.withSite(site)}
}

// WithSite returns a copy of e whose call site is site.
func (e *ViolationError) WithSite(site string) *ViolationError {
	return &ViolationError{Violation: e.Violation.withSite(site)}
}

func (v *Violation) String() string {
	return fmt.Sprintf("Violation(%s)", v.Message())
}
