// Package vale builds validators: custom predicates attached to hints with
// hint.Annotated.
//
// A validator carries a Go expression template over "{obj}" plus the
// callables that template calls. The checker compiler splices the template
// straight into generated checking code, so a validator costs one call.
package vale

import (
	"fmt"
	"go/token"
	"maps"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/pkg/hint"
)

// ObjPlaceholder stands for the checked value in validator templates.
const ObjPlaceholder = config.ObjPlaceholder

// counter uniquifies the scope names validators bind their callables to.
var counter atomic.Uint64

func nextName() string {
	return config.NamePrefix + "vale_" + strconv.FormatUint(counter.Add(1), 10)
}

// Validator implements hint.Validator.
type Validator struct {
	id        string
	code      string
	locals    map[string]any
	target    string
	remaining []string
	repr      string
}

var _ hint.Validator = (*Validator)(nil)

func (v *Validator) ID() string              { return v.id }
func (v *Validator) Code() string            { return v.code }
func (v *Validator) Locals() map[string]any  { return maps.Clone(v.locals) }
func (v *Validator) TargetArg() string       { return v.target }
func (v *Validator) RemainingArgs() []string { return append([]string(nil), v.remaining...) }
func (v *Validator) String() string          { return v.repr }

// Is returns a validator accepting values for which fn returns true.
func Is(fn func(obj any) bool) *Validator {
	return IsNamed("Is", fn)
}

// IsNamed is Is with a custom description used in messages.
func IsNamed(label string, fn func(obj any) bool) *Validator {
	if fn == nil {
		panic("vale: nil validator func")
	}
	name := nextName()
	return &Validator{
		id:     uuid.NewString(),
		code:   name + "(" + ObjPlaceholder + ")",
		locals: map[string]any{name: fn},
		target: "obj",
		repr:   label,
	}
}

// IsArgumentative returns a validator whose predicate also receives the
// values of sibling arguments. fn is called with the checked value first,
// followed by the sibling values in the order of others. target names the
// checked argument; each name in others must be a Go identifier and is
// bound by name when the check runs (see check.Tester.TestArgs).
func IsArgumentative(fn func(target any, others ...any) bool, target string, others ...string) (*Validator, error) {
	if fn == nil {
		return nil, fmt.Errorf("vale: IsArgumentative: nil validator func")
	}
	if !token.IsIdentifier(target) {
		return nil, fmt.Errorf("vale: IsArgumentative: target %q is not an identifier", target)
	}
	seen := map[string]bool{target: true}
	for _, o := range others {
		if !token.IsIdentifier(o) || strings.HasPrefix(o, config.NamePrefix) ||
			o == config.PithName || o == config.RandIntName || o == config.ViolationName {
			return nil, fmt.Errorf("vale: IsArgumentative: argument name %q is not usable", o)
		}
		if seen[o] {
			return nil, fmt.Errorf("vale: IsArgumentative: argument name %q repeated", o)
		}
		seen[o] = true
	}

	name := nextName()
	var code strings.Builder
	code.WriteString(name)
	code.WriteString("(")
	code.WriteString(ObjPlaceholder)
	for _, o := range others {
		code.WriteString(", ")
		code.WriteString(o)
	}
	code.WriteString(")")

	return &Validator{
		id:        uuid.NewString(),
		code:      code.String(),
		locals:    map[string]any{name: fn},
		target:    target,
		remaining: append([]string(nil), others...),
		repr:      fmt.Sprintf("IsArgumentative[%s(%s)]", target, strings.Join(others, ", ")),
	}, nil
}

// And returns a validator satisfied when every validator is.
func And(vs ...*Validator) *Validator {
	return combine("&&", "And", vs)
}

// Or returns a validator satisfied when any validator is.
func Or(vs ...*Validator) *Validator {
	return combine("||", "Or", vs)
}

// Not negates v.
func Not(v *Validator) *Validator {
	return &Validator{
		id:        uuid.NewString(),
		code:      "!(" + v.code + ")",
		locals:    maps.Clone(v.locals),
		target:    v.target,
		remaining: append([]string(nil), v.remaining...),
		repr:      "Not[" + v.repr + "]",
	}
}

func combine(op, label string, vs []*Validator) *Validator {
	if len(vs) == 0 {
		panic("vale: " + label + " needs at least one validator")
	}
	if len(vs) == 1 {
		return vs[0]
	}
	out := &Validator{
		id:     uuid.NewString(),
		locals: make(map[string]any),
		target: vs[0].target,
	}
	codes := make([]string, len(vs))
	reprs := make([]string, len(vs))
	seen := make(map[string]bool)
	for i, v := range vs {
		codes[i] = "(" + v.code + ")"
		reprs[i] = v.repr
		maps.Copy(out.locals, v.locals)
		for _, r := range v.remaining {
			if !seen[r] {
				seen[r] = true
				out.remaining = append(out.remaining, r)
			}
		}
	}
	out.code = strings.Join(codes, " "+op+" ")
	out.repr = label + "[" + strings.Join(reprs, ", ") + "]"
	return out
}
