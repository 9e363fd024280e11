// Package typesystem is the canonical hint model.
//
// Raw hints are canonicalized into these value-typed nodes before
// compilation. Every node has a structural Key: two nodes with the same key
// check exactly the same values, which is what makes memoizing compiled
// checks by key sound.
package typesystem

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/funvibe/hintguard/pkg/hint"
)

// Kind discriminates canonical nodes.
type Kind int

const (
	KindIgnorable Kind = iota
	KindSimple
	KindNil
	KindLiteral
	KindUnion
	KindContainer
	KindTuple
	KindForwardRef
	KindSelf
	KindValidated
)

func (k Kind) String() string {
	switch k {
	case KindIgnorable:
		return "Ignorable"
	case KindSimple:
		return "Simple"
	case KindNil:
		return "Nil"
	case KindLiteral:
		return "Literal"
	case KindUnion:
		return "Union"
	case KindContainer:
		return "Container"
	case KindTuple:
		return "Tuple"
	case KindForwardRef:
		return "ForwardRef"
	case KindSelf:
		return "Self"
	case KindValidated:
		return "Validated"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Type is the interface for all canonical hints.
type Type interface {
	String() string
	Kind() Kind
	// Key is the structural identity of the node.
	Key() string
}

// Ignorable is satisfied by every value.
type Ignorable struct{}

func (Ignorable) String() string { return "any" }
func (Ignorable) Kind() Kind     { return KindIgnorable }
func (Ignorable) Key() string    { return "*" }

// Simple is satisfied by values whose dynamic type is Type, or implements
// Type when Type is an interface.
type Simple struct {
	Type reflect.Type
}

func (t Simple) String() string { return t.Type.String() }
func (t Simple) Kind() Kind     { return KindSimple }
func (t Simple) Key() string    { return "T" + TypeID(t.Type) }

// Nil is satisfied by the nil interface value.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Kind() Kind     { return KindNil }
func (Nil) Key() string    { return "N" }

// Literal is satisfied by values equal to one of Values with the same
// dynamic type.
type Literal struct {
	Values []any
}

func (t Literal) String() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = fmt.Sprintf("%#v", v)
	}
	return "Literal[" + strings.Join(parts, ", ") + "]"
}
func (t Literal) Kind() Kind { return KindLiteral }
func (t Literal) Key() string {
	parts := make([]string, len(t.Values))
	for i, v := range t.Values {
		parts[i] = fmt.Sprintf("%T:%#v", v, v)
	}
	return "L(" + strings.Join(parts, ",") + ")"
}

// Union is satisfied by values satisfying any member. Members are never
// unions themselves and never ignorable; see NormalizeUnion.
type Union struct {
	Members []Type
}

func (t Union) String() string {
	parts := make([]string, len(t.Members))
	for i, m := range t.Members {
		parts[i] = m.String()
	}
	return strings.Join(parts, " | ")
}
func (t Union) Kind() Kind { return KindUnion }
func (t Union) Key() string {
	return "U(" + joinKeys(t.Members) + ")"
}

// Container is satisfied by containers of Origin whose elements satisfy
// Elem and, for maps, whose keys satisfy KeyType.
type Container struct {
	Origin  hint.Origin
	KeyType Type
	Elem    Type
}

func (t Container) String() string {
	switch t.Origin {
	case hint.OriginSequence:
		return "Sequence[" + t.Elem.String() + "]"
	case hint.OriginSlice:
		return "[]" + operand(t.Elem)
	case hint.OriginMap:
		return "map[" + operand(t.KeyType) + "]" + operand(t.Elem)
	case hint.OriginPointer:
		return "*" + operand(t.Elem)
	}
	return t.Origin.String() + "[" + t.Elem.String() + "]"
}

// operand renders a container key or element, bracketing unions.
func operand(t Type) string {
	u, ok := t.(Union)
	if !ok || len(u.Members) < 2 {
		return t.String()
	}
	if len(u.Members) == 2 {
		switch {
		case u.Members[1].Kind() == KindNil:
			return "Optional[" + u.Members[0].String() + "]"
		case u.Members[0].Kind() == KindNil:
			return "Optional[" + u.Members[1].String() + "]"
		}
	}
	parts := make([]string, len(u.Members))
	for i, m := range u.Members {
		parts[i] = m.String()
	}
	return "Union[" + strings.Join(parts, ", ") + "]"
}
func (t Container) Kind() Kind { return KindContainer }
func (t Container) Key() string {
	k := "C" + strconv.Itoa(int(t.Origin)) + "("
	if t.KeyType != nil {
		k += t.KeyType.Key() + ";"
	}
	return k + t.Elem.Key() + ")"
}

// IgnoresElements reports whether no element (or key) needs checking.
func (t Container) IgnoresElements() bool {
	keyIgnored := t.KeyType == nil || t.KeyType.Kind() == KindIgnorable
	return keyIgnored && t.Elem.Kind() == KindIgnorable
}

// Tuple is satisfied by sequences of exactly len(Elems) elements, each
// satisfying the entry at its position.
type Tuple struct {
	Elems []Type
}

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "Tuple[" + strings.Join(parts, ", ") + "]"
}
func (t Tuple) Kind() Kind  { return KindTuple }
func (t Tuple) Key() string { return "P(" + joinKeys(t.Elems) + ")" }

// ForwardRef names a type resolved when the check runs. Path is the package
// qualifier; it is empty for relative references.
type ForwardRef struct {
	Name string
	Path string
}

// Qualified returns the full reference name.
func (t ForwardRef) Qualified() string {
	if t.Path == "" {
		return t.Name
	}
	return t.Path + "." + t.Name
}

// Relative reports whether the reference lacks a package qualifier.
func (t ForwardRef) Relative() bool { return t.Path == "" }

func (t ForwardRef) String() string { return strconv.Quote(t.Qualified()) }
func (t ForwardRef) Kind() Kind     { return KindForwardRef }
func (t ForwardRef) Key() string    { return "R(" + t.Qualified() + ")" }

// SelfRef is the innermost type of the class stack.
type SelfRef struct{}

func (SelfRef) String() string { return "Self" }
func (SelfRef) Kind() Kind     { return KindSelf }
func (SelfRef) Key() string    { return "S" }

// Validated is satisfied by values satisfying Base and every validator.
type Validated struct {
	Base       Type
	Validators []hint.Validator
}

func (t Validated) String() string {
	parts := []string{t.Base.String()}
	for _, v := range t.Validators {
		parts = append(parts, v.String())
	}
	return "Annotated[" + strings.Join(parts, ", ") + "]"
}
func (t Validated) Kind() Kind { return KindValidated }
func (t Validated) Key() string {
	ids := make([]string, len(t.Validators))
	for i, v := range t.Validators {
		ids[i] = v.ID()
	}
	return "V(" + t.Base.Key() + ";" + strings.Join(ids, ",") + ")"
}

// NormalizeUnion creates a normalized union type.
// It flattens nested unions and removes duplicates, keeping first
// occurrences in order. A union with an ignorable member is ignorable and a
// union of one member is that member.
func NormalizeUnion(types []Type) Type {
	flat := make([]Type, 0, len(types))
	for _, t := range types {
		if u, ok := t.(Union); ok {
			flat = append(flat, u.Members...)
		} else {
			flat = append(flat, t)
		}
	}

	seen := make(map[string]bool)
	unique := []Type{}
	for _, t := range flat {
		if t.Kind() == KindIgnorable {
			return Ignorable{}
		}
		k := t.Key()
		if !seen[k] {
			seen[k] = true
			unique = append(unique, t)
		}
	}

	switch len(unique) {
	case 0:
		return Ignorable{}
	case 1:
		return unique[0]
	}
	return Union{Members: unique}
}

func joinKeys(ts []Type) string {
	keys := make([]string, len(ts))
	for i, t := range ts {
		keys[i] = t.Key()
	}
	return strings.Join(keys, ",")
}

var (
	typeIDs   sync.Map // reflect.Type -> string
	typeIDSeq atomic.Uint64
)

// TypeID returns a process-unique identifier for t. Distinct types with
// equal String() forms (e.g. from different packages) get distinct IDs.
func TypeID(t reflect.Type) string {
	if id, ok := typeIDs.Load(t); ok {
		return id.(string)
	}
	id := "#" + strconv.FormatUint(typeIDSeq.Add(1), 10)
	actual, _ := typeIDs.LoadOrStore(t, id)
	return actual.(string)
}
