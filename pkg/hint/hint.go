// Package hint provides the type hints checkers are built from.
//
// A Hint is any of:
//
//   - a reflect.Type (see Of), matched by exact dynamic type, or by
//     implementation when the type is an interface;
//   - a constructor from this package (Any, Union, SliceOf, MapOf, ...);
//   - a string, treated as a forward reference ("pkg.Name");
//   - nil, matching the nil interface value;
//   - a legacy []any or []reflect.Type, treated as a union (deprecated).
//
// Hints are never mutated by the checker factory.
package hint

import (
	"fmt"
	"reflect"
	"strings"
)

// Hint is a type hint.
type Hint = any

// Of returns the reflect.Type of T, the simplest hint.
func Of[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}

// AnyHint is satisfied by every value.
type AnyHint struct{}

// Any is satisfied by every value.
var Any = AnyHint{}

func (AnyHint) String() string { return "any" }

// UnionHint is satisfied by values satisfying any member.
type UnionHint struct {
	Members []Hint
}

// Union returns a hint satisfied by values satisfying any member.
func Union(members ...Hint) UnionHint {
	return UnionHint{Members: members}
}

// Optional returns a hint satisfied by nil or by values satisfying h.
func Optional(h Hint) UnionHint {
	return UnionHint{Members: []Hint{h, nil}}
}

func (u UnionHint) String() string {
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = Repr(m)
	}
	return strings.Join(parts, " | ")
}

// Origin is the shape of a container hint.
type Origin int

const (
	// OriginSequence accepts slices and arrays.
	OriginSequence Origin = iota
	// OriginSlice accepts slices only.
	OriginSlice
	// OriginMap accepts maps.
	OriginMap
	// OriginPointer accepts pointers; the pointee is the element.
	OriginPointer
)

func (o Origin) String() string {
	switch o {
	case OriginSequence:
		return "Sequence"
	case OriginSlice:
		return "Slice"
	case OriginMap:
		return "Map"
	case OriginPointer:
		return "Pointer"
	default:
		return fmt.Sprintf("Origin(%d)", int(o))
	}
}

// ContainerHint is satisfied by containers of the given origin whose
// elements (and keys, for maps) satisfy the element hints.
type ContainerHint struct {
	Origin Origin
	Key    Hint
	Elem   Hint
}

// SequenceOf returns a hint for slices and arrays of elem.
func SequenceOf(elem Hint) ContainerHint {
	return ContainerHint{Origin: OriginSequence, Elem: elem}
}

// SliceOf returns a hint for slices of elem.
func SliceOf(elem Hint) ContainerHint {
	return ContainerHint{Origin: OriginSlice, Elem: elem}
}

// MapOf returns a hint for maps from key to elem.
func MapOf(key, elem Hint) ContainerHint {
	return ContainerHint{Origin: OriginMap, Key: key, Elem: elem}
}

// PointerTo returns a hint for pointers to elem. Nil pointers satisfy it.
func PointerTo(elem Hint) ContainerHint {
	return ContainerHint{Origin: OriginPointer, Elem: elem}
}

func (c ContainerHint) String() string {
	switch c.Origin {
	case OriginSequence:
		return "Sequence[" + Repr(c.Elem) + "]"
	case OriginSlice:
		return "[]" + operandRepr(c.Elem)
	case OriginMap:
		return "map[" + operandRepr(c.Key) + "]" + operandRepr(c.Elem)
	case OriginPointer:
		return "*" + operandRepr(c.Elem)
	}
	return c.Origin.String() + "[" + Repr(c.Elem) + "]"
}

// operandRepr describes a container key or element. Unions take their
// bracketed form, since "[]int | string" reads as a union of []int.
func operandRepr(h Hint) string {
	u, ok := h.(UnionHint)
	if !ok || len(u.Members) < 2 {
		return Repr(h)
	}
	if len(u.Members) == 2 {
		switch {
		case u.Members[1] == nil:
			return "Optional[" + Repr(u.Members[0]) + "]"
		case u.Members[0] == nil:
			return "Optional[" + Repr(u.Members[1]) + "]"
		}
	}
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = Repr(m)
	}
	return "Union[" + strings.Join(parts, ", ") + "]"
}

// TupleHint is satisfied by slices or arrays with exactly one element per
// entry, each satisfying the entry at the same position.
type TupleHint struct {
	Elems []Hint
}

// Tuple returns a fixed-length sequence hint.
func Tuple(elems ...Hint) TupleHint {
	return TupleHint{Elems: elems}
}

func (t TupleHint) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = Repr(e)
	}
	return "Tuple[" + strings.Join(parts, ", ") + "]"
}

// LiteralHint is satisfied by values equal to one of Values with the same
// dynamic type.
type LiteralHint struct {
	Values []any
}

// Literal returns a hint satisfied by any of the given comparable values.
func Literal(values ...any) LiteralHint {
	return LiteralHint{Values: values}
}

func (l LiteralHint) String() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = fmt.Sprintf("%#v", v)
	}
	return "Literal[" + strings.Join(parts, ", ") + "]"
}

// RefHint is a forward reference to a type registered by name.
type RefHint struct {
	Name string
}

// Ref returns a forward reference. Absolute names ("pkg.Name") are looked
// up in the registry each time a check runs; relative names are rejected
// by the factory.
func Ref(name string) RefHint {
	return RefHint{Name: name}
}

func (r RefHint) String() string { return fmt.Sprintf("%q", r.Name) }

// TypeVarHint is a type variable. Unconstrained type variables are
// satisfied by every value.
type TypeVarHint struct {
	Name        string
	Bound       Hint
	Constraints []Hint
}

// TypeVar returns an unconstrained type variable.
func TypeVar(name string) TypeVarHint {
	return TypeVarHint{Name: name}
}

// BoundTypeVar returns a type variable bounded by bound.
func BoundTypeVar(name string, bound Hint) TypeVarHint {
	return TypeVarHint{Name: name, Bound: bound}
}

// ConstrainedTypeVar returns a type variable restricted to constraints.
func ConstrainedTypeVar(name string, constraints ...Hint) TypeVarHint {
	return TypeVarHint{Name: name, Constraints: constraints}
}

func (t TypeVarHint) String() string { return "~" + t.Name }

// SelfHint refers to the innermost type of the class stack a raiser is
// built for.
type SelfHint struct{}

// Self refers to the innermost type of the class stack.
var Self = SelfHint{}

func (SelfHint) String() string { return "Self" }

// AnnotatedHint is satisfied by values satisfying Base and every validator.
type AnnotatedHint struct {
	Base       Hint
	Validators []Validator
}

// Annotated attaches validators to base.
func Annotated(base Hint, validators ...Validator) AnnotatedHint {
	return AnnotatedHint{Base: base, Validators: validators}
}

func (a AnnotatedHint) String() string {
	parts := []string{Repr(a.Base)}
	for _, v := range a.Validators {
		parts = append(parts, v.String())
	}
	return "Annotated[" + strings.Join(parts, ", ") + "]"
}

// Validator is a custom predicate attached to a hint with Annotated.
type Validator interface {
	// ID uniquely identifies the validator; it is part of memo keys.
	ID() string
	// Code is a Go expression template over "{obj}" calling the captured
	// callables by their names in Locals.
	Code() string
	// Locals maps the names used in Code to captured callables.
	Locals() map[string]any
	// TargetArg names the argument Code is checking.
	TargetArg() string
	// RemainingArgs names sibling arguments Code reads, in order.
	RemainingArgs() []string
	String() string
}

// Repr describes a hint for messages.
func Repr(h Hint) string {
	switch v := h.(type) {
	case nil:
		return "nil"
	case reflect.Type:
		return v.String()
	case string:
		return fmt.Sprintf("%q", v)
	case fmt.Stringer:
		return v.String()
	case []any:
		parts := make([]string, len(v))
		for i, m := range v {
			parts[i] = Repr(m)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case []reflect.Type:
		parts := make([]string, len(v))
		for i, m := range v {
			parts[i] = m.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%#v", h)
}
