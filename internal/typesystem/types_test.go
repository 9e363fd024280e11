package typesystem

import (
	"reflect"
	"testing"

	"github.com/funvibe/hintguard/pkg/hint"
)

func simple[T any]() Simple { return Simple{Type: reflect.TypeFor[T]()} }

func TestNormalizeUnion(t *testing.T) {
	tests := []struct {
		name     string
		input    []Type
		expected string
		kind     Kind
	}{
		{"empty", nil, "any", KindIgnorable},
		{"single", []Type{simple[int]()}, "int", KindSimple},
		{"dedupe keeps first", []Type{simple[int](), simple[string](), simple[int]()}, "int | string", KindUnion},
		{"flattens", []Type{Union{Members: []Type{simple[int](), Nil{}}}, simple[string]()}, "int | nil | string", KindUnion},
		{"ignorable absorbs", []Type{simple[int](), Ignorable{}}, "any", KindIgnorable},
		{"nested collapses", []Type{Union{Members: []Type{simple[int](), simple[int8]()}}, simple[int8]()}, "int | int8", KindUnion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeUnion(tt.input)
			if got.String() != tt.expected {
				t.Errorf("NormalizeUnion() = %s; want %s", got, tt.expected)
			}
			if got.Kind() != tt.kind {
				t.Errorf("Kind() = %s; want %s", got.Kind(), tt.kind)
			}
		})
	}
}

func TestKeys(t *testing.T) {
	seqInt := Container{Origin: hint.OriginSequence, Elem: simple[int]()}
	sliceInt := Container{Origin: hint.OriginSlice, Elem: simple[int]()}
	mapStrInt := Container{Origin: hint.OriginMap, KeyType: simple[string](), Elem: simple[int]()}

	distinct := []Type{
		Ignorable{}, Nil{}, SelfRef{},
		simple[int](), simple[int64](),
		Literal{Values: []any{1}}, Literal{Values: []any{int64(1)}}, Literal{Values: []any{"1"}},
		seqInt, sliceInt, mapStrInt,
		Tuple{Elems: []Type{simple[int]()}},
		Tuple{Elems: []Type{simple[int](), simple[int]()}},
		ForwardRef{Name: "User", Path: "example.com/app"},
		ForwardRef{Name: "User"},
	}
	seen := make(map[string]Type)
	for _, typ := range distinct {
		k := typ.Key()
		if prev, ok := seen[k]; ok {
			t.Errorf("%s and %s share key %q", prev, typ, k)
		}
		seen[k] = typ
	}

	same := Container{Origin: hint.OriginSlice, Elem: Simple{Type: reflect.TypeOf(0)}}
	if same.Key() != sliceInt.Key() {
		t.Errorf("structurally equal containers have keys %q and %q", same.Key(), sliceInt.Key())
	}
}

func TestTypeID(t *testing.T) {
	type local struct{ A int }
	a, b := TypeID(reflect.TypeFor[local]()), TypeID(reflect.TypeFor[local]())
	if a != b {
		t.Errorf("TypeID not stable: %s, %s", a, b)
	}
	if TypeID(reflect.TypeFor[int]()) == a {
		t.Errorf("distinct types share id %s", a)
	}
}

func TestContainerIgnoresElements(t *testing.T) {
	tests := []struct {
		c    Container
		want bool
	}{
		{Container{Origin: hint.OriginSlice, Elem: Ignorable{}}, true},
		{Container{Origin: hint.OriginSlice, Elem: simple[int]()}, false},
		{Container{Origin: hint.OriginMap, KeyType: Ignorable{}, Elem: Ignorable{}}, true},
		{Container{Origin: hint.OriginMap, KeyType: simple[string](), Elem: Ignorable{}}, false},
	}
	for _, tt := range tests {
		if got := tt.c.IgnoresElements(); got != tt.want {
			t.Errorf("%s.IgnoresElements() = %t; want %t", tt.c, got, tt.want)
		}
	}
}

func TestForwardRef(t *testing.T) {
	r := ForwardRef{Name: "User", Path: "example.com/app"}
	if r.Relative() || r.Qualified() != "example.com/app.User" {
		t.Errorf("absolute ref = %s relative=%t", r.Qualified(), r.Relative())
	}
	if rel := (ForwardRef{Name: "User"}); !rel.Relative() || rel.String() != `"User"` {
		t.Errorf("relative ref = %s relative=%t", rel, rel.Relative())
	}
}

func TestContainerStringBracketsUnions(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{Container{Origin: hint.OriginSlice, Elem: Union{Members: []Type{simple[int](), simple[string]()}}}, "[]Union[int, string]"},
		{Container{Origin: hint.OriginPointer, Elem: Union{Members: []Type{simple[int](), Nil{}}}}, "*Optional[int]"},
		{Container{Origin: hint.OriginMap, KeyType: Union{Members: []Type{Nil{}, simple[int]()}}, Elem: simple[string]()}, "map[Optional[int]]string"},
		{Union{Members: []Type{Container{Origin: hint.OriginSlice, Elem: simple[int]()}, simple[string]()}}, "[]int | string"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.expected {
				t.Errorf("String() = %q; want %q", got, tt.expected)
			}
		})
	}
}
