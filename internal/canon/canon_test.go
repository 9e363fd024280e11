package canon

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/hintguard/internal/config"
	"github.com/funvibe/hintguard/internal/diagnostics"
	"github.com/funvibe/hintguard/internal/typesystem"
	"github.com/funvibe/hintguard/internal/warnings"
	"github.com/funvibe/hintguard/pkg/hint"
	"github.com/funvibe/hintguard/pkg/vale"
)

type fooer interface{ Foo() }

func TestCanonicalize(t *testing.T) {
	intT := hint.Of[int]()
	strT := hint.Of[string]()

	tests := []struct {
		name     string
		hint     hint.Hint
		expected string
		kind     typesystem.Kind
	}{
		{"nil", nil, "nil", typesystem.KindNil},
		{"simple", intT, "int", typesystem.KindSimple},
		{"interface", hint.Of[fooer](), "canon.fooer", typesystem.KindSimple},
		{"empty interface", hint.Of[any](), "any", typesystem.KindIgnorable},
		{"any", hint.Any, "any", typesystem.KindIgnorable},
		{"self", hint.Self, "Self", typesystem.KindSelf},
		{"builtin name", "int", "int", typesystem.KindSimple},
		{"absolute ref", "example.com/app.User", `"example.com/app.User"`, typesystem.KindForwardRef},
		{"relative ref", hint.Ref("User"), `"User"`, typesystem.KindForwardRef},
		{"union", hint.Union(intT, strT, intT), "int | string", typesystem.KindUnion},
		{"union of one", hint.Union(intT), "int", typesystem.KindSimple},
		{"union with any", hint.Union(intT, hint.Any), "any", typesystem.KindIgnorable},
		{"optional", hint.Optional(strT), "string | nil", typesystem.KindUnion},
		{"slice", hint.SliceOf(intT), "[]int", typesystem.KindContainer},
		{"map", hint.MapOf(strT, hint.SliceOf(intT)), "map[string][]int", typesystem.KindContainer},
		{"pointer", hint.PointerTo(intT), "*int", typesystem.KindContainer},
		{"tuple", hint.Tuple(intT, strT), "Tuple[int, string]", typesystem.KindTuple},
		{"literal", hint.Literal("a", 1), `Literal["a", 1]`, typesystem.KindLiteral},
		{"typevar", hint.TypeVar("T"), "any", typesystem.KindIgnorable},
		{"bound typevar", hint.BoundTypeVar("T", intT), "int", typesystem.KindSimple},
		{"constrained typevar", hint.ConstrainedTypeVar("T", intT, strT), "int | string", typesystem.KindUnion},
		{"annotated", hint.Annotated(strT, vale.IsNamed("IsX", func(any) bool { return true })), "Annotated[string, IsX]", typesystem.KindValidated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.hint, config.Conf{}, nil)
			if err != nil {
				t.Fatalf("Canonicalize(%s): %v", hint.Repr(tt.hint), err)
			}
			if got.String() != tt.expected {
				t.Errorf("Canonicalize(%s) = %s; want %s", hint.Repr(tt.hint), got, tt.expected)
			}
			if got.Kind() != tt.kind {
				t.Errorf("Kind() = %s; want %s", got.Kind(), tt.kind)
			}
		})
	}
}

func TestCanonicalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		hint hint.Hint
		want string
	}{
		{"not a hint", 42, "int is not a type hint"},
		{"empty union", hint.Union(), "union has no members"},
		{"empty literal", hint.Literal(), "literal has no values"},
		{"nil literal", hint.Literal(nil), "nil literal"},
		{"uncomparable literal", hint.Literal([]int{1}), "not comparable"},
		{"slice key", hint.ContainerHint{Origin: hint.OriginSlice, Key: hint.Of[int](), Elem: hint.Of[int]()}, "take no key hint"},
		{"bad ref", "pkg.not-ident", "not an identifier"},
		{"empty ref path", ".User", "empty package path"},
		{"bound and constrained", hint.TypeVarHint{Name: "T", Bound: hint.Of[int](), Constraints: []hint.Hint{hint.Of[string]()}}, "both bounded and constrained"},
		{"nested error", hint.SliceOf(hint.Union()), "union has no members"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Canonicalize(tt.hint, config.Conf{}, nil)
			var hue *diagnostics.HintUnsupportedError
			if !errors.As(err, &hue) {
				t.Fatalf("error = %v; want *HintUnsupportedError", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), diagnostics.Placeholder) {
				t.Errorf("error %q lacks the call-site placeholder", err)
			}
		})
	}

	_, err := Canonicalize(hint.Of[int](), config.Conf{Strategy: "On2"}, nil)
	var ce *diagnostics.ConfigurationError
	if !errors.As(err, &ce) {
		t.Errorf("bad strategy error = %v; want *ConfigurationError", err)
	}
}

func TestCanonicalizeDepth(t *testing.T) {
	var h hint.Hint = hint.Of[int]()
	for range MaxDepth + 1 {
		h = hint.SliceOf(h)
	}
	if _, err := Canonicalize(h, config.Conf{}, nil); err == nil || !strings.Contains(err.Error(), "nesting deeper") {
		t.Errorf("deep hint error = %v", err)
	}
	if _, err := RawKey(h); err == nil {
		t.Errorf("RawKey accepted a hint nested deeper than %d", MaxDepth)
	}
}

func TestLegacyUnion(t *testing.T) {
	legacy := []any{hint.Of[int](), nil}

	rec := &warnings.Recorder{}
	got, err := Canonicalize(legacy, config.Conf{}, rec)
	if err != nil {
		t.Fatalf("Canonicalize: %v", err)
	}
	if got.String() != "int | nil" {
		t.Errorf("legacy union = %s", got)
	}
	ws := rec.Warnings()
	if len(ws) != 1 || ws[0].Category != warnings.Deprecation {
		t.Fatalf("warnings = %+v; want one deprecation", ws)
	}
	if !strings.HasPrefix(ws[0].Message, diagnostics.Placeholder+"type hint (int, nil) is a deprecated") {
		t.Errorf("deprecation message = %q", ws[0].Message)
	}

	typed := []reflect.Type{hint.Of[int](), hint.Of[string]()}
	if _, err := Canonicalize(typed, config.Conf{Strict: true}, rec); err == nil {
		t.Errorf("strict mode accepted legacy union %s", hint.Repr(typed))
	}
	if len(rec.Warnings()) != 1 {
		t.Errorf("strict rejection should not warn")
	}
}

func TestNumericTower(t *testing.T) {
	tests := []struct {
		hint    reflect.Type
		members int
		first   string
	}{
		{hint.Of[float64](), 12, "float64"},
		{hint.Of[float32](), 12, "float32"},
		{hint.Of[complex128](), 14, "complex128"},
		{hint.Of[int](), 0, "int"},
	}
	for _, tt := range tests {
		t.Run(tt.hint.String(), func(t *testing.T) {
			off, err := Canonicalize(tt.hint, config.Conf{}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if off.Kind() != typesystem.KindSimple {
				t.Errorf("tower off: %s", off)
			}
			on, err := Canonicalize(tt.hint, config.Conf{NumericTower: true}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.members == 0 {
				if on.Kind() != typesystem.KindSimple {
					t.Errorf("tower widened %s to %s", tt.hint, on)
				}
				return
			}
			u, ok := on.(typesystem.Union)
			if !ok || len(u.Members) != tt.members {
				t.Fatalf("tower on: %s", on)
			}
			if u.Members[0].String() != tt.first {
				t.Errorf("first member = %s; want %s", u.Members[0], tt.first)
			}
		})
	}
}

func TestAnnotatedMerges(t *testing.T) {
	a := vale.IsNamed("A", func(any) bool { return true })
	b := vale.IsNamed("B", func(any) bool { return true })
	got, err := Canonicalize(hint.Annotated(hint.Annotated(hint.Of[int](), a), b), config.Conf{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := got.(typesystem.Validated)
	if !ok || len(v.Validators) != 2 || v.Base.String() != "int" {
		t.Errorf("nested Annotated = %s", got)
	}
}

func TestRawKey(t *testing.T) {
	intT := hint.Of[int]()
	v := vale.IsNamed("V", func(any) bool { return true })
	same := []struct{ a, b hint.Hint }{
		{hint.SliceOf(intT), hint.SliceOf(reflect.TypeOf(0))},
		{hint.Union(intT, nil), hint.Optional(intT)},
		{"example.com/app.User", hint.Ref("example.com/app.User")},
		{hint.Annotated(intT, v), hint.Annotated(intT, v)},
	}
	for _, tt := range same {
		ka, err := RawKey(tt.a)
		if err != nil {
			t.Fatal(err)
		}
		kb, _ := RawKey(tt.b)
		if ka != kb {
			t.Errorf("RawKey(%s) = %q, RawKey(%s) = %q", hint.Repr(tt.a), ka, hint.Repr(tt.b), kb)
		}
	}

	distinct := []hint.Hint{
		hint.SliceOf(intT), hint.SequenceOf(intT), hint.PointerTo(intT),
		hint.Literal(1), hint.Literal(int64(1)),
		hint.Union(intT), []any{intT},
		hint.Annotated(intT, vale.IsNamed("V", func(any) bool { return true })),
	}
	seen := make(map[string]string)
	for _, h := range distinct {
		k, err := RawKey(h)
		if err != nil {
			t.Fatal(err)
		}
		if prev, ok := seen[k]; ok {
			t.Errorf("%s and %s share raw key %q", prev, hint.Repr(h), k)
		}
		seen[k] = hint.Repr(h)
	}

	if _, err := RawKey(struct{}{}); err == nil {
		t.Errorf("RawKey accepted a non-hint")
	}
}

func TestCanonicalizeDoesNotMutate(t *testing.T) {
	members := []hint.Hint{hint.Of[int](), hint.Union(hint.Of[string](), nil)}
	u := hint.Union(members...)
	if _, err := Canonicalize(u, config.Conf{}, nil); err != nil {
		t.Fatal(err)
	}
	if len(u.Members) != 2 || u.Members[0] != hint.Of[int]() {
		t.Errorf("hint mutated: %s", u)
	}
	a, _ := Canonicalize(u, config.Conf{}, nil)
	b, _ := Canonicalize(u, config.Conf{}, nil)
	if a.Key() != b.Key() {
		t.Errorf("keys differ across calls: %s vs %s", a.Key(), b.Key())
	}
}
