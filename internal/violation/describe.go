// Package violation explains why a value failed a check.
//
// Checkers only compute a boolean. When a raiser's check fails, Describe
// walks the canonical hint against the value a second time to find the
// innermost offending element and produce a human-readable cause. It
// inspects the element the failed check sampled first, so the reported
// path agrees with what the checker looked at.
package violation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/internal/vm"
	"github.com/funvibe/hintguard/pkg/hint"
)

// MaxReprLen bounds value representations in messages.
const MaxReprLen = 96

// Options carries the state of the failed check.
type Options struct {
	// Seed is the random integer the check sampled containers with.
	Seed uint64
	// SampleAll is set when the check inspected every element.
	SampleAll bool
	// ClsStack resolves Self.
	ClsStack []reflect.Type
	// Args are the sibling argument values validators read.
	Args map[string]any
}

// Describe explains why pith violates t. It returns a ForwardRefError
// instead when t contains an absolute forward reference that no longer
// resolves.
func Describe(t typesystem.Type, pith any, opts Options) (*diagnostics.Violation, error) {
	d := &describer{opts: opts}
	f, err := d.find(t, pith, "")
	if err != nil {
		return nil, err
	}
	v := &diagnostics.Violation{
		CallSite: diagnostics.Placeholder,
		Pith:     pith,
		PithRepr: Repr(pith),
		Seed:     opts.Seed,
	}
	if f != nil {
		v.Path, v.Cause = f.path, f.cause
	}
	return v, nil
}

// Repr renders v for messages, stripped of terminal escapes and truncated.
func Repr(v any) string {
	return ansi.Truncate(ansi.Strip(fmt.Sprintf("%#v", v)), MaxReprLen, "...")
}

type failure struct {
	path  string
	cause string
}

type describer struct {
	opts Options
}

func (d *describer) fail(path, format string, args ...any) *failure {
	return &failure{path: path, cause: fmt.Sprintf(format, args...)}
}

// find returns nil when v satisfies t.
func (d *describer) find(t typesystem.Type, v any, path string) (*failure, error) {
	switch n := t.(type) {
	case typesystem.Ignorable:
		return nil, nil

	case typesystem.Simple:
		if vm.Instance(v, n.Type) {
			return nil, nil
		}
		return d.fail(path, "%s not instance of %s", typed(v), n.Type), nil

	case typesystem.Nil:
		if v == nil {
			return nil, nil
		}
		return d.fail(path, "%s not nil", typed(v)), nil

	case typesystem.Literal:
		if vm.LiteralMatch(v, n.Values) {
			return nil, nil
		}
		return d.fail(path, "%s not any of %s", typed(v), n), nil

	case typesystem.ForwardRef:
		rt, ok := hint.Lookup(n.Qualified())
		if !ok {
			return nil, diagnostics.NewForwardRefError(n.Qualified())
		}
		return d.find(typesystem.Simple{Type: rt}, v, path)

	case typesystem.SelfRef:
		if len(d.opts.ClsStack) == 0 {
			return d.fail(path, "Self unresolvable"), nil
		}
		return d.find(typesystem.Simple{Type: d.opts.ClsStack[len(d.opts.ClsStack)-1]}, v, path)

	case typesystem.Union:
		return d.union(n, v, path)

	case typesystem.Container:
		return d.container(n, v, path)

	case typesystem.Tuple:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() != len(n.Elems) {
			return d.fail(path, "%s not tuple of length %d", typed(v), len(n.Elems)), nil
		}
		for i, e := range n.Elems {
			f, err := d.find(e, rv.Index(i).Interface(), path+fmt.Sprintf("[%d]", i))
			if f != nil || err != nil {
				return f, err
			}
		}
		return nil, nil

	case typesystem.Validated:
		f, err := d.find(n.Base, v, path)
		if f != nil || err != nil {
			return f, err
		}
		for _, val := range n.Validators {
			ok, err := evalValidator(val, v, d.opts.Args)
			if err != nil {
				return nil, err
			}
			if !ok {
				return d.fail(path, "%s violates validator %s", typed(v), val), nil
			}
		}
		return nil, nil
	}
	return d.fail(path, "%s unchecked by %s", typed(v), t), nil
}

func (d *describer) union(u typesystem.Union, v any, path string) (*failure, error) {
	// A member whose outer shape matches explains the failure best.
	var candidates []*failure
	for _, m := range u.Members {
		f, err := d.find(m, v, path)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, nil
		}
		if shapeMatches(m, v) {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return d.fail(path, "%s not any of %s", typed(v), u), nil
}

func shapeMatches(t typesystem.Type, v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	switch n := t.(type) {
	case typesystem.Container:
		switch n.Origin {
		case hint.OriginSequence:
			return k == reflect.Slice || k == reflect.Array
		case hint.OriginSlice:
			return k == reflect.Slice
		case hint.OriginMap:
			return k == reflect.Map
		case hint.OriginPointer:
			return k == reflect.Pointer
		}
	case typesystem.Tuple:
		return k == reflect.Slice || k == reflect.Array
	case typesystem.Validated:
		return shapeMatches(n.Base, v)
	}
	return false
}

func (d *describer) container(n typesystem.Container, v any, path string) (*failure, error) {
	if !shapeMatches(n, v) {
		return d.fail(path, "%s not %s", typed(v), shapeName(n.Origin)), nil
	}
	if n.IgnoresElements() {
		return nil, nil
	}
	rv := reflect.ValueOf(v)

	switch n.Origin {
	case hint.OriginPointer:
		if rv.IsNil() {
			return nil, nil
		}
		return d.find(n.Elem, rv.Elem().Interface(), "(*"+orRoot(path)+")")

	case hint.OriginMap:
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().Interface()
			if n.KeyType != nil {
				f, err := d.find(n.KeyType, k, path)
				if err != nil {
					return nil, err
				}
				if f != nil {
					f.cause = "key " + f.cause
					return f, nil
				}
			}
			f, err := d.find(n.Elem, iter.Value().Interface(), path+"["+Repr(k)+"]")
			if f != nil || err != nil {
				return f, err
			}
		}
		return nil, nil
	}

	size := rv.Len()
	if size == 0 {
		return nil, nil
	}
	first := 0
	if !d.opts.SampleAll {
		first = vm.SampleIndex(d.opts.Seed, size)
	}
	for j := range size {
		i := (first + j) % size
		f, err := d.find(n.Elem, rv.Index(i).Interface(), path+fmt.Sprintf("[%d]", i))
		if f != nil || err != nil {
			return f, err
		}
	}
	return nil, nil
}

func shapeName(o hint.Origin) string {
	switch o {
	case hint.OriginSequence:
		return "slice or array"
	case hint.OriginSlice:
		return "slice"
	case hint.OriginMap:
		return "map"
	case hint.OriginPointer:
		return "pointer"
	}
	return strings.ToLower(o.String())
}

func orRoot(path string) string {
	if path == "" {
		return "pith"
	}
	return path
}

// typed renders v with its dynamic type.
func typed(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T %s", v, Repr(v))
}
