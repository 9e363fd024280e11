package check

import (
	"fmt"

	"github.com/funvibe/hintguard/internal/codegen"
	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/warnings"
)

// Re-exported configuration and error types.
type (
	Conf     = config.Conf
	CallSite = config.CallSite
	Site     = config.Site
	Strategy = config.Strategy
	Policy   = config.Policy
	Policies = config.Policies

	ConfigurationError        = diagnostics.ConfigurationError
	HintUnsupportedError      = diagnostics.HintUnsupportedError
	PortabilityError          = diagnostics.PortabilityError
	InvalidGeneratedCodeError = diagnostics.InvalidGeneratedCodeError
	ForwardRefError           = diagnostics.ForwardRefError
	ViolationError            = diagnostics.ViolationError
	ViolationWarning          = diagnostics.ViolationWarning
	Violation                 = diagnostics.Violation
)

const (
	StrategyO1 = config.StrategyO1
	StrategyOn = config.StrategyOn

	PolicyRaise = config.PolicyRaise
	PolicyWarn  = config.PolicyWarn

	CallSiteFree   = config.CallSiteFree
	CallSiteParam  = config.CallSiteParam
	CallSiteReturn = config.CallSiteReturn
)

// Tester reports whether values satisfy a hint.
type Tester struct {
	art      *codegen.Artifact
	hint     string
	constant bool
}

var ignorableTester = &Tester{hint: "any", constant: true}

// Test reports whether pith satisfies the hint. Validators reading sibling
// arguments see nil; use TestArgs to bind them.
func (t *Tester) Test(pith any) bool {
	if t.constant {
		return true
	}
	return t.art.Run(pith, make([]any, len(t.art.Args))...).(bool)
}

// TestArgs is Test with sibling argument values bound by name.
func (t *Tester) TestArgs(pith any, args map[string]any) bool {
	if t.constant {
		return true
	}
	return t.art.Run(pith, bindArgs(t.art.Args, args)...).(bool)
}

// Name returns the generated function name, empty for ignorable hints.
func (t *Tester) Name() string {
	if t.constant {
		return ""
	}
	return t.art.Name
}

// Source returns the generated source in debug mode.
func (t *Tester) Source() string {
	if t.constant {
		return ""
	}
	return t.art.Source
}

// Args returns the sibling argument names the tester reads.
func (t *Tester) Args() []string {
	if t.constant {
		return nil
	}
	return append([]string(nil), t.art.Args...)
}

func (t *Tester) String() string { return "Tester(" + t.hint + ")" }

// Raiser checks values against a hint and reports violations.
type Raiser struct {
	art      *codegen.Artifact
	hint     string
	site     Site
	target   string
	constant bool
}

var ignorableRaiser = &Raiser{hint: "any", constant: true}

// Check returns nil when pith satisfies the hint. Otherwise it returns a
// *ViolationError, or emits a *ViolationWarning and returns nil when the
// configured policy for the raiser's call site is to warn. A
// *ForwardRefError is returned when a forward reference in the hint no
// longer resolves.
func (r *Raiser) Check(pith any) error {
	return r.CheckNamed("", pith)
}

// CheckNamed is Check for a named parameter; the name appears in
// violation messages.
func (r *Raiser) CheckNamed(name string, pith any) error {
	if r.constant {
		return nil
	}
	return r.report(name, r.art.Run(pith, make([]any, len(r.art.Args))...))
}

// CheckArgs is Check with sibling argument values bound by name.
func (r *Raiser) CheckArgs(pith any, args map[string]any) error {
	if r.constant {
		return nil
	}
	return r.report("", r.art.Run(pith, bindArgs(r.art.Args, args)...))
}

func (r *Raiser) report(name string, out any) error {
	label := r.site.Label(name)
	switch v := out.(type) {
	case nil:
		return nil
	case *diagnostics.ViolationError:
		return v.WithSite(label)
	case *diagnostics.ViolationWarning:
		w := v.WithSite(label)
		warnings.Emit(warnings.Warning{Category: warnings.Violation, Message: w.String(), Payload: w})
		return nil
	case error:
		return diagnostics.ReplacePlaceholder(v, r.target)
	}
	panic(fmt.Sprintf("check: raiser returned %T", out))
}

// Args returns the sibling argument names the raiser reads.
func (r *Raiser) Args() []string {
	if r.constant {
		return nil
	}
	return append([]string(nil), r.art.Args...)
}

// Name returns the generated function name, empty for ignorable hints.
func (r *Raiser) Name() string {
	if r.constant {
		return ""
	}
	return r.art.Name
}

// Source returns the generated source in debug mode.
func (r *Raiser) Source() string {
	if r.constant {
		return ""
	}
	return r.art.Source
}

func (r *Raiser) String() string { return "Raiser(" + r.hint + ")" }

func bindArgs(names []string, args map[string]any) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = args[n]
	}
	return out
}
