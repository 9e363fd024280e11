package vm

import (
	"fmt"
	"reflect"

	"github.com/funvibe/hintguard/pkg/hint"
)

// Builtin is a function callable from generated code with any arguments.
type Builtin func(args []any) any

var builtins map[string]Builtin

func init() {
	builtins = map[string]Builtin{
		"isinstance":    builtinIsInstance,
		"isanyinstance": builtinIsAnyInstance,
		"isnil":         builtinIsNil,
		"isliteral":     builtinIsLiteral,
		"issequence":    kindTest(reflect.Slice, reflect.Array),
		"isslice":       kindTest(reflect.Slice),
		"ismap":         kindTest(reflect.Map),
		"ispointer":     kindTest(reflect.Pointer),
		"istuple":       builtinIsTuple,
		"all":           builtinAll,
		"sample":        builtinSample,
		"allmap":        builtinAllMap,
		"samplemap":     builtinSampleMap,
		"pointee":       builtinPointee,
		"index":         builtinIndex,
		"resolve":       builtinResolve,
	}
}

// IsBuiltin reports whether name is predeclared in generated code.
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

// invoke calls fn with args. The function types generated code and
// validators use are called directly; anything else goes through reflect.
func invoke(fn any, args []any) any {
	switch f := fn.(type) {
	case Builtin:
		return f(args)
	case func([]any) any:
		return f(args)
	case func(any) bool:
		arity(args, 1)
		return f(args[0])
	case func(...any) bool:
		return f(args...)
	case func(any, ...any) bool:
		if len(args) == 0 {
			panic("vm: missing argument")
		}
		return f(args[0], args[1:]...)
	case func() uint64:
		arity(args, 0)
		return f()
	case nil:
		panic("vm: call of nil function")
	}
	return invokeReflect(fn, args)
}

func invokeReflect(fn any, args []any) any {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		panic(fmt.Sprintf("vm: call of non-function %T", fn))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		switch {
		case ft.IsVariadic() && i >= ft.NumIn()-1:
			pt = ft.In(ft.NumIn() - 1).Elem()
		case i < ft.NumIn():
			pt = ft.In(i)
		default:
			panic(fmt.Sprintf("vm: too many arguments to %s", ft))
		}
		if a == nil {
			in[i] = reflect.Zero(pt)
		} else {
			in[i] = reflect.ValueOf(a)
		}
	}
	out := fv.Call(in)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}

func arity(args []any, n int) {
	if len(args) != n {
		panic(fmt.Sprintf("vm: got %d arguments, want %d", len(args), n))
	}
}

// Instance reports whether v has dynamic type t, or implements t when t is
// an interface. A nil t or nil v never matches.
func Instance(v any, t reflect.Type) bool {
	if v == nil || t == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	if t.Kind() == reflect.Interface {
		return vt.Implements(t)
	}
	return vt == t
}

func builtinIsInstance(args []any) any {
	arity(args, 2)
	t, _ := args[1].(reflect.Type)
	return Instance(args[0], t)
}

func builtinIsAnyInstance(args []any) any {
	arity(args, 2)
	for _, t := range args[1].([]reflect.Type) {
		if Instance(args[0], t) {
			return true
		}
	}
	return false
}

func builtinIsNil(args []any) any {
	arity(args, 1)
	return args[0] == nil
}

// LiteralMatch reports whether v equals one of values with the same
// dynamic type.
func LiteralMatch(v any, values []any) bool {
	if v == nil {
		return false
	}
	vt := reflect.TypeOf(v)
	for _, l := range values {
		if reflect.TypeOf(l) == vt && l == v {
			return true
		}
	}
	return false
}

func builtinIsLiteral(args []any) any {
	arity(args, 2)
	return LiteralMatch(args[0], args[1].([]any))
}

func kindTest(kinds ...reflect.Kind) Builtin {
	return func(args []any) any {
		arity(args, 1)
		if args[0] == nil {
			return false
		}
		k := reflect.TypeOf(args[0]).Kind()
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	}
}

func builtinIsTuple(args []any) any {
	arity(args, 2)
	if args[0] == nil {
		return false
	}
	v := reflect.ValueOf(args[0])
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len() == args[1].(int)
	}
	return false
}

func pred(v any) func(any) bool {
	if v == nil {
		return nil
	}
	return v.(func(any) bool)
}

func builtinAll(args []any) any {
	arity(args, 2)
	v := reflect.ValueOf(args[0])
	fn := pred(args[1])
	for i := range v.Len() {
		if !fn(v.Index(i).Interface()) {
			return false
		}
	}
	return true
}

// SampleIndex is the element index a check sampling a container of n > 0
// elements with randInt inspects.
func SampleIndex(randInt uint64, n int) int {
	return int(randInt % uint64(n))
}

func builtinSample(args []any) any {
	arity(args, 3)
	v := reflect.ValueOf(args[0])
	n := v.Len()
	if n == 0 {
		return true
	}
	return pred(args[2])(v.Index(SampleIndex(args[1].(uint64), n)).Interface())
}

func entryOK(iter *reflect.MapIter, kfn, vfn func(any) bool) bool {
	if kfn != nil && !kfn(iter.Key().Interface()) {
		return false
	}
	return vfn == nil || vfn(iter.Value().Interface())
}

func builtinAllMap(args []any) any {
	arity(args, 3)
	kfn, vfn := pred(args[1]), pred(args[2])
	iter := reflect.ValueOf(args[0]).MapRange()
	for iter.Next() {
		if !entryOK(iter, kfn, vfn) {
			return false
		}
	}
	return true
}

// builtinSampleMap checks the entry at the sampled position of the map's
// iteration order.
func builtinSampleMap(args []any) any {
	arity(args, 4)
	v := reflect.ValueOf(args[0])
	n := v.Len()
	if n == 0 {
		return true
	}
	kfn, vfn := pred(args[2]), pred(args[3])
	target := SampleIndex(args[1].(uint64), n)
	iter := v.MapRange()
	for i := 0; iter.Next(); i++ {
		if i == target {
			return entryOK(iter, kfn, vfn)
		}
	}
	return true
}

func builtinPointee(args []any) any {
	arity(args, 2)
	v := reflect.ValueOf(args[0])
	if v.IsNil() {
		return true
	}
	return pred(args[1])(v.Elem().Interface())
}

func builtinIndex(args []any) any {
	arity(args, 2)
	return reflect.ValueOf(args[0]).Index(args[1].(int)).Interface()
}

func builtinResolve(args []any) any {
	arity(args, 1)
	t, ok := hint.Lookup(args[0].(string))
	if !ok {
		return nil
	}
	return t
}
