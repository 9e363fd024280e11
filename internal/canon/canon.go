// Package canon canonicalizes raw hints.
//
// Canonicalize is a pure function of (hint, configuration): it never
// mutates the hint and identical inputs always produce nodes with identical
// keys. Hints admitting every value canonicalize to typesystem.Ignorable so
// the factory can skip compilation entirely.
package canon

import (
	"go/token"
	"reflect"

	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/internal/warnings"
	"github.com/funvibe/hintguard/pkg/hint"
)

// MaxDepth bounds hint nesting; deeper hints are almost certainly cyclic.
const MaxDepth = 128

// Canonicalize converts h into its canonical form under conf. Warnings
// (e.g. deprecations) are written to sink with the call-site placeholder
// in their messages.
func Canonicalize(h hint.Hint, conf config.Conf, sink warnings.Sink) (typesystem.Type, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = warnings.Emitter{}
	}
	c := &canonicalizer{conf: conf.Normalize(), sink: sink}
	return c.canon(h, 0)
}

type canonicalizer struct {
	conf config.Conf
	sink warnings.Sink
}

func (c *canonicalizer) canon(h hint.Hint, depth int) (typesystem.Type, error) {
	if depth > MaxDepth {
		return nil, diagnostics.NewHintUnsupportedError(shortRepr(h), "nesting deeper than %d levels", MaxDepth)
	}
	depth++

	switch v := h.(type) {
	case nil:
		return typesystem.Nil{}, nil

	case reflect.Type:
		return c.simple(v), nil

	case hint.AnyHint:
		return typesystem.Ignorable{}, nil

	case hint.SelfHint:
		return typesystem.SelfRef{}, nil

	case string:
		return c.ref(v)

	case hint.RefHint:
		return c.ref(v.Name)

	case hint.UnionHint:
		if len(v.Members) == 0 {
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "union has no members")
		}
		return c.union(v.Members, depth)

	case hint.ContainerHint:
		return c.container(v, depth)

	case hint.TupleHint:
		elems := make([]typesystem.Type, len(v.Elems))
		for i, e := range v.Elems {
			t, err := c.canon(e, depth)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return typesystem.Tuple{Elems: elems}, nil

	case hint.LiteralHint:
		return c.literal(v)

	case hint.TypeVarHint:
		switch {
		case v.Bound != nil && len(v.Constraints) > 0:
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "type variable both bounded and constrained")
		case v.Bound != nil:
			return c.canon(v.Bound, depth)
		case len(v.Constraints) > 0:
			return c.union(v.Constraints, depth)
		}
		return typesystem.Ignorable{}, nil

	case hint.AnnotatedHint:
		return c.annotated(v, depth)

	case []any:
		if err := c.legacy(hint.Repr(v)); err != nil {
			return nil, err
		}
		return c.union(v, depth)

	case []reflect.Type:
		if err := c.legacy(hint.Repr(v)); err != nil {
			return nil, err
		}
		members := make([]hint.Hint, len(v))
		for i, t := range v {
			members[i] = t
		}
		return c.union(members, depth)
	}

	return nil, diagnostics.NewHintUnsupportedError(shortRepr(h), "%T is not a type hint", h)
}

// simple canonicalizes a reflect.Type, widening float and complex types
// under the numeric tower.
func (c *canonicalizer) simple(t reflect.Type) typesystem.Type {
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return typesystem.Ignorable{}
	}
	if c.conf.NumericTower {
		if widened, ok := towers[t]; ok {
			members := make([]typesystem.Type, len(widened))
			for i, w := range widened {
				members[i] = typesystem.Simple{Type: w}
			}
			return typesystem.NormalizeUnion(members)
		}
	}
	return typesystem.Simple{Type: t}
}

func (c *canonicalizer) ref(name string) (typesystem.Type, error) {
	if t, ok := hint.Builtin(name); ok {
		return c.simple(t), nil
	}
	path, base := hint.SplitRef(name)
	if !token.IsIdentifier(base) {
		return nil, diagnostics.NewHintUnsupportedError(shortRepr(name), "forward reference basename %q is not an identifier", base)
	}
	if path == "" && hint.IsAbsolute(name) {
		return nil, diagnostics.NewHintUnsupportedError(shortRepr(name), "forward reference has an empty package path")
	}
	return typesystem.ForwardRef{Name: base, Path: path}, nil
}

func (c *canonicalizer) union(members []hint.Hint, depth int) (typesystem.Type, error) {
	ts := make([]typesystem.Type, len(members))
	for i, m := range members {
		t, err := c.canon(m, depth)
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return typesystem.NormalizeUnion(ts), nil
}

func (c *canonicalizer) container(v hint.ContainerHint, depth int) (typesystem.Type, error) {
	switch v.Origin {
	case hint.OriginSequence, hint.OriginSlice, hint.OriginPointer:
		if v.Key != nil {
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "%s hints take no key hint", v.Origin)
		}
	case hint.OriginMap:
	default:
		return nil, diagnostics.NewHintUnsupportedError(v.String(), "unknown container origin %d", int(v.Origin))
	}

	elem, err := c.canon(v.Elem, depth)
	if err != nil {
		return nil, err
	}
	out := typesystem.Container{Origin: v.Origin, Elem: elem}
	if v.Origin == hint.OriginMap {
		key, err := c.canon(v.Key, depth)
		if err != nil {
			return nil, err
		}
		out.KeyType = key
	}
	return out, nil
}

func (c *canonicalizer) literal(v hint.LiteralHint) (typesystem.Type, error) {
	if len(v.Values) == 0 {
		return nil, diagnostics.NewHintUnsupportedError(v.String(), "literal has no values")
	}
	for _, val := range v.Values {
		if val == nil {
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "nil literal; use a nil hint instead")
		}
		if !reflect.TypeOf(val).Comparable() {
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "literal value of type %T is not comparable", val)
		}
	}
	return typesystem.Literal{Values: append([]any(nil), v.Values...)}, nil
}

func (c *canonicalizer) annotated(v hint.AnnotatedHint, depth int) (typesystem.Type, error) {
	base, err := c.canon(v.Base, depth)
	if err != nil {
		return nil, err
	}
	if len(v.Validators) == 0 {
		return base, nil
	}
	for i, val := range v.Validators {
		if val == nil {
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "validator %d is nil", i)
		}
		if val.Code() == "" {
			return nil, diagnostics.NewHintUnsupportedError(v.String(), "validator %s has no code", val)
		}
	}
	validators := append([]hint.Validator(nil), v.Validators...)
	if inner, ok := base.(typesystem.Validated); ok {
		return typesystem.Validated{
			Base:       inner.Base,
			Validators: append(append([]hint.Validator(nil), inner.Validators...), validators...),
		}, nil
	}
	return typesystem.Validated{Base: base, Validators: validators}, nil
}

// legacy handles tuple unions: rejected in strict mode, otherwise accepted
// with a deprecation warning.
func (c *canonicalizer) legacy(repr string) error {
	if c.conf.Strict {
		return diagnostics.NewHintUnsupportedError(repr, "legacy tuple unions are rejected in strict mode; use hint.Union(...)")
	}
	c.sink.Warn(warnings.Warning{
		Category: warnings.Deprecation,
		Message:  diagnostics.Placeholder + "type hint " + repr + " is a deprecated tuple union; use hint.Union(...) instead.",
	})
	return nil
}

func shortRepr(h hint.Hint) string {
	s := hint.Repr(h)
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
