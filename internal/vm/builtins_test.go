package vm

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/funvibe/hintguard/pkg/hint"
)

type named int

func TestInstance(t *testing.T) {
	stringer := reflect.TypeFor[fmt.Stringer]()
	tests := []struct {
		name     string
		v        any
		t        reflect.Type
		expected bool
	}{
		{"exact", 1, reflect.TypeFor[int](), true},
		{"named differs", named(1), reflect.TypeFor[int](), false},
		{"interface", reflect.TypeFor[int](), stringer, true},
		{"interface miss", 1, stringer, false},
		{"nil value", nil, reflect.TypeFor[int](), false},
		{"nil type", 1, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Instance(tt.v, tt.t); got != tt.expected {
				t.Errorf("Instance(%v, %v) = %t; want %t", tt.v, tt.t, got, tt.expected)
			}
		})
	}
}

func TestLiteralMatch(t *testing.T) {
	values := []any{1, "a"}
	if !LiteralMatch(1, values) || !LiteralMatch("a", values) {
		t.Error("expected matches")
	}
	if LiteralMatch(int64(1), values) {
		t.Error("literal matching must respect dynamic type")
	}
	if LiteralMatch(nil, values) {
		t.Error("nil matches no literal")
	}
}

func TestContainerBuiltins(t *testing.T) {
	isInt := func(v any) bool { _, ok := v.(int); return ok }

	if builtinSample([]any{[]any{}, uint64(3), isInt}) != true {
		t.Error("empty sequences pass sampling")
	}
	if builtinSample([]any{[]any{"x", 1}, uint64(3), isInt}) != true {
		t.Error("index 3%2 = 1 holds an int")
	}
	if builtinSample([]any{[]any{"x", 1}, uint64(4), isInt}) != false {
		t.Error("index 4%2 = 0 holds a string")
	}
	if builtinAll([]any{[2]any{1, 2}, isInt}) != true {
		t.Error("arrays are sequences")
	}
	if builtinAllMap([]any{map[string]int{"a": 1}, nil, isInt}) != true {
		t.Error("nil key predicate skips keys")
	}
	if builtinAllMap([]any{map[string]any{"a": "x"}, nil, isInt}) != false {
		t.Error("values are checked")
	}
	if builtinSampleMap([]any{map[int]int{1: 1}, uint64(9), isInt, isInt}) != true {
		t.Error("single entry map")
	}
	var p *int
	if builtinPointee([]any{p, isInt}) != true {
		t.Error("nil pointers pass")
	}
	n := 3
	if builtinPointee([]any{&n, isInt}) != true {
		t.Error("pointee checked")
	}
	if builtinIsTuple([]any{[]int{1, 2}, 2}) != true || builtinIsTuple([]any{[]int{1}, 2}) != false {
		t.Error("tuple length")
	}
}

type resolvable struct{}

func TestResolve(t *testing.T) {
	name, err := hint.RegisterType[resolvable]()
	if err != nil {
		t.Fatal(err)
	}
	if got := builtinResolve([]any{name}); got != reflect.TypeFor[resolvable]() {
		t.Errorf("resolve(%q) = %v", name, got)
	}
	if got := builtinResolve([]any{"nowhere.Missing"}); got != nil {
		t.Errorf("unresolvable ref resolved to %v", got)
	}
	if builtinIsInstance([]any{resolvable{}, builtinResolve([]any{"nowhere.Missing"})}) != false {
		t.Error("unresolved refs match nothing")
	}
}

func TestInvokeReflectFallback(t *testing.T) {
	got := invoke(func(a int, rest ...string) string { return fmt.Sprint(a, rest) }, []any{1, "x", "y"})
	if got != "1 [x y]" {
		t.Errorf("got %v", got)
	}
}
